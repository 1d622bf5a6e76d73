package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/needcart-api/internal/application/escrow"
)

// PayoutHandler handles the escrow payout ledger endpoints. release is
// admin-gated by the router; the handler trusts that check already ran.
type PayoutHandler struct {
	svc escrow.Service
}

func NewPayoutHandler(svc escrow.Service) *PayoutHandler { return &PayoutHandler{svc: svc} }

func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, cursor := parsePage(r)
	payouts, next, err := h.svc.List(r.Context(), limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaginatedEnvelope{Data: payouts, NextCursor: next})
}

func (h *PayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PayoutHandler) Release(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Release(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
