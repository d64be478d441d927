package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Verification and redemption failure kinds.
var (
	ErrValidation       = errors.New("validation error")
	ErrRateLimited      = errors.New("rate limited")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrInvalidCode      = errors.New("invalid code")
	ErrExpired          = errors.New("expired")
	ErrAttemptsExceeded = errors.New("attempts exceeded")
	ErrAlreadyUsed      = errors.New("already used")
	ErrNotYetActive     = errors.New("not yet active")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidRequest   = errors.New("invalid request")
)

// RateLimitError reports how long a caller has to wait before a new code can be requested.
type RateLimitError struct {
	RetryAfter int // seconds
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Please wait %ds before requesting another code", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
