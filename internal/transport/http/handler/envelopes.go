package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-homeservices-api/internal/domain"
	jwtinfra "github.com/go-homeservices-api/internal/infrastructure/jwt"
	"github.com/go-homeservices-api/internal/pkg/validate"
	"github.com/go-homeservices-api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// AuthEnvelope wraps signup/login responses.
type AuthEnvelope struct {
	Bearer string    `json:"Bearer,omitempty"`
	User   *SafeUser `json:"user,omitempty"`
}

// OTPSentEnvelope is returned by POST /otp/send.
type OTPSentEnvelope struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user lists.
type PaginatedUsersEnvelope struct {
	Data       []SafeUser `json:"data"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// SafeUser is the public projection of domain.User.
type SafeUser struct {
	UserID         string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	Role           string  `json:"role"`
	EmailConfirmed bool    `json:"email_confirmed"`
	Enable         bool    `json:"enable"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		UserID:         u.UserID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		EmailConfirmed: u.EmailConfirmed,
		Enable:         u.Enable,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: code})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{domain.ErrInvalidCode, http.StatusBadRequest, "invalid_code"},
	{domain.ErrAttemptsExceeded, http.StatusForbidden, "attempts_exceeded"},
	{domain.ErrExpired, http.StatusGone, "expired"},
	{domain.ErrNotYetActive, http.StatusUnprocessableEntity, "not_yet_active"},
	{domain.ErrAlreadyUsed, http.StatusConflict, "already_used"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrDeliveryFailed, http.StatusBadGateway, "delivery_failed"},
}

// httpError maps a service error onto a status code and error envelope.
// Unknown errors are logged and reported as a bare 500.
func httpError(w http.ResponseWriter, err error) {
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, MessageEnvelope{
			Error:      rl.Error(),
			ErrorCode:  "rate_limited",
			RetryAfter: rl.RetryAfter,
		})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, humanMessage(err, m.target))
			return
		}
	}
	slog.Error("unhandled service error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// humanMessage drops the trailing ": <sentinel>" that services append when wrapping.
func humanMessage(err, target error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+target.Error())
	if msg == "" {
		return target.Error()
	}
	return msg
}

// decodeJSON reads the body into dst and runs struct validation.
// strict rejects unknown fields, which patch endpoints rely on.
func decodeJSON(r *http.Request, dst interface{}, strict bool) error {
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty: %w", domain.ErrBadRequest)
		}
		return fmt.Errorf("invalid request body: %w", domain.ErrBadRequest)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}
	return nil
}

// claimsOrUnauthorized writes a 401 when the request carries no verified claims.
func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) (*jwtinfra.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
		return nil, false
	}
	return claims, true
}
