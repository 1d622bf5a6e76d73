package handler

import (
	"encoding/json"
	"net/http"

	"github.com/needcart-api/internal/application/signup"
	"github.com/needcart-api/internal/domain"
	"github.com/needcart-api/internal/pkg/validate"
)

// SignupHandler handles the OTP signup flow endpoints.
type SignupHandler struct {
	svc signup.Service
}

func NewSignupHandler(svc signup.Service) *SignupHandler { return &SignupHandler{svc: svc} }

func (h *SignupHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.Request(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *SignupHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifySignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, bearer, err := h.svc.Verify(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Bearer: bearer, User: u})
}
