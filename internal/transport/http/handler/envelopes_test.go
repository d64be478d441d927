package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-homeservices-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("field 'email' failed 'email': %w", domain.ErrValidation), http.StatusUnprocessableEntity, "validation_error"},
		{domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
		{fmt.Errorf("invalid or expired code: %w", domain.ErrInvalidCode), http.StatusBadRequest, "invalid_code"},
		{domain.ErrAttemptsExceeded, http.StatusForbidden, "attempts_exceeded"},
		{fmt.Errorf("coupon has expired: %w", domain.ErrExpired), http.StatusGone, "expired"},
		{domain.ErrNotYetActive, http.StatusUnprocessableEntity, "not_yet_active"},
		{domain.ErrAlreadyUsed, http.StatusConflict, "already_used"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("coupon not found: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{domain.ErrConflict, http.StatusConflict, "conflict"},
		{domain.ErrDeliveryFailed, http.StatusBadGateway, "delivery_failed"},
		{errors.New("dynamo exploded"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rr := httptest.NewRecorder()
			httpError(rr, tc.err)
			assert.Equal(t, tc.status, rr.Code)
			var env MessageEnvelope
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
			assert.Equal(t, tc.code, env.ErrorCode)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestHTTPError_StripsSentinelSuffix(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, fmt.Errorf("coupon has expired: %w", domain.ErrExpired))
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "coupon has expired", env.Error)
}

func TestHTTPError_InternalDoesNotLeak(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, errors.New("ResourceNotFoundException: table otps"))
	assert.NotContains(t, rr.Body.String(), "otps")
}

func TestHTTPError_RateLimited(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, fmt.Errorf("issue: %w", &domain.RateLimitError{RetryAfter: 25}))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "25", rr.Header().Get("Retry-After"))
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Equal(t, "rate_limited", env.ErrorCode)
	assert.Equal(t, 25, env.RetryAfter)
	assert.Equal(t, "Please wait 25s before requesting another code", env.Error)
}

func TestDecodeJSON(t *testing.T) {
	var req domain.UpdateSettingsRequest
	err := decodeJSON(jsonReq(http.MethodPut, "/", ""), &req, true)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = decodeJSON(jsonReq(http.MethodPut, "/", `{"site_name":"x","bogus":1}`), &req, true)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = decodeJSON(jsonReq(http.MethodPut, "/", `{"support_email":"nope"}`), &req, true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var lenient domain.LoginRequest
	err = decodeJSON(jsonReq(http.MethodPost, "/", `{"email":"a@b.co","password":"pw","extra":true}`), &lenient, false)
	assert.NoError(t, err)
}
