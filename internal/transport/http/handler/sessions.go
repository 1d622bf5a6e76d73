package handler

import (
	"encoding/json"
	"net/http"

	"github.com/needcart-api/internal/application/account"
	"github.com/needcart-api/internal/domain"
	"github.com/needcart-api/internal/pkg/validate"
)

// SessionHandler handles bearer-credential issuance.
type SessionHandler struct {
	svc account.Service
}

func NewSessionHandler(svc account.Service) *SessionHandler { return &SessionHandler{svc: svc} }

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, bearer, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer, User: u})
}
