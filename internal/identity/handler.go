package identity

import (
	"encoding/json"
	"net/http"

	"drafthub/internal/identity/model"
	"drafthub/internal/response"
	"drafthub/internal/session"
	"drafthub/pkg/apperr"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.InvalidBody(w, r, err)
		return
	}

	acct, err := h.Service.Register(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, model.NewSessionResponse(acct))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.InvalidBody(w, r, err)
		return
	}

	acct, err := h.Service.Login(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, model.NewSessionResponse(acct))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), session.FromContext(r.Context())); err != nil {
		response.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.Service.Me(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if me == nil {
		response.Error(w, r, apperr.NotAuthenticated("identity.me"))
		return
	}
	response.JSON(w, r, http.StatusOK, me)
}
