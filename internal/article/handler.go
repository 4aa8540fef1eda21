package handler

import (
	"encoding/json"
	"net/http"

	"drafthub/internal/article/model"
	"drafthub/internal/article/service"
	"drafthub/internal/content"
	"drafthub/internal/response"
	"drafthub/internal/session"
	"drafthub/pkg/apperr"

	"github.com/go-chi/chi/v5"
)

type ArticleHandler struct {
	Service *service.ArticleService
}

func NewArticleHandler(service *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{Service: service}
}

func (h *ArticleHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req model.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.InvalidBody(w, r, err)
		return
	}

	article, err := h.Service.CreateArticle(r.Context(), session.FromContext(r.Context()), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, article)
}

func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	filter, ok := model.ParseFilter(r.URL.Query().Get("status"))
	if !ok {
		response.Error(w, r, apperr.Validation("article.list", "status must be draft, published or all"))
		return
	}

	summaries, err := h.Service.Summaries(r.Context(), session.FromContext(r.Context()), filter)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, summaries)
}

func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.Service.GetArticle(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, article)
}

func (h *ArticleHandler) GetSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.Service.GetSections(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, sections)
}

func (h *ArticleHandler) GetMarkdown(w http.ResponseWriter, r *http.Request) {
	sections, err := h.Service.GetSections(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content.Markdown(sections.Title, sections.Sections)))
}

func (h *ArticleHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.InvalidBody(w, r, err)
		return
	}

	article, err := h.Service.UpdateArticle(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "articleID"), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, article)
}

func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Service.DeleteArticle(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "articleID"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, model.DeleteResponse{Deleted: deleted})
}
