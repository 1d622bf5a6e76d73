package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Escrow ledger failures.
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidFee      = errors.New("invalid fee")
	ErrDuplicateEscrow = errors.New("duplicate escrow")
	ErrAlreadyReleased = errors.New("already released")

	// Signup verification failure. Wrong code and expired code are deliberately
	// indistinguishable so callers cannot probe which case occurred.
	ErrCodeNotFoundOrExpired = errors.New("code not found or expired")
)
