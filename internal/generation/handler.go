package generation

import (
	"context"
	"encoding/json"
	"net/http"

	"drafthub/internal/content"
	"drafthub/internal/response"
)

// Generator is the part of Client the HTTP layer depends on.
type Generator interface {
	GenerateStructure(ctx context.Context, theme string) ([]content.Section, error)
	GenerateAdvice(ctx context.Context, sectionTitle, theme string) (string, error)
}

type Handler struct {
	Generator Generator
}

func NewHandler(g Generator) *Handler {
	return &Handler{Generator: g}
}

func (h *Handler) GenerateStructure(w http.ResponseWriter, r *http.Request) {
	var req StructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.InvalidBody(w, r, err)
		return
	}

	sections, err := h.Generator.GenerateStructure(r.Context(), req.Theme)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, sections)
}

func (h *Handler) GenerateAdvice(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.InvalidBody(w, r, err)
		return
	}

	advice, err := h.Generator.GenerateAdvice(r.Context(), req.SectionTitle, req.Theme)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, AdviceResponse{Advice: advice})
}
