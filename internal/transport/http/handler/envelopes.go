package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/needcart-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login and signup-verification responses.
type AuthEnvelope struct {
	Bearer string       `json:"Bearer,omitempty"`
	User   *domain.User `json:"user,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// PaginatedEnvelope wraps cursor-paginated list responses.
type PaginatedEnvelope struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes.
// Unknown errors are reported as a generic 500 so storage faults never leak.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCodeNotFoundOrExpired):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicateEscrow), errors.Is(err, domain.ErrAlreadyReleased):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidFee):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
