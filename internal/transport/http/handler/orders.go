package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/needcart-api/internal/application/order"
	"github.com/needcart-api/internal/domain"
	"github.com/needcart-api/internal/pkg/validate"
	"github.com/needcart-api/internal/transport/http/middleware"
)

// OrderHandler handles the order boundary of the escrow flow.
type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler { return &OrderHandler{svc: svc} }

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	o, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// List returns the authenticated seller's own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, cursor := parsePage(r)
	orders, next, err := h.svc.ListBySeller(r.Context(), claims.UserID, limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaginatedEnvelope{Data: orders, NextCursor: next})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Complete marks an order completed, which opens its escrow payout.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	payout, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}
