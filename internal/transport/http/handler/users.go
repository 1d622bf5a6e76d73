package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/needcart-api/internal/application/account"
)

// UserHandler handles admin back-office user endpoints.
type UserHandler struct {
	svc account.Service
}

func NewUserHandler(svc account.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, cursor := parsePage(r)
	users, next, err := h.svc.List(r.Context(), limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaginatedEnvelope{Data: users, NextCursor: next})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Disable(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Disable(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user disabled"})
}

func parsePage(r *http.Request) (limit int, cursor string) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	return limit, r.URL.Query().Get("cursor")
}
