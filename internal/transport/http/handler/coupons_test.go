package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-homeservices-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCouponSvc struct{ mock.Mock }

func (m *mockCouponSvc) Validate(ctx context.Context, userID string, req domain.ValidateCouponRequest) (*domain.CouponQuote, error) {
	args := m.Called(ctx, userID, req)
	if q, _ := args.Get(0).(*domain.CouponQuote); q != nil {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCouponSvc) Redeem(ctx context.Context, userID string, req domain.RedeemCouponRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *mockCouponSvc) Create(ctx context.Context, req domain.CreateCouponRequest) (*domain.Coupon, error) {
	args := m.Called(ctx, req)
	if c, _ := args.Get(0).(*domain.Coupon); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCouponSvc) List(ctx context.Context) ([]domain.Coupon, error) {
	args := m.Called(ctx)
	coupons, _ := args.Get(0).([]domain.Coupon)
	return coupons, args.Error(1)
}

func (m *mockCouponSvc) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if c, _ := args.Get(0).(*domain.Coupon); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCouponSvc) Update(ctx context.Context, code string, req domain.UpdateCouponRequest) (*domain.Coupon, error) {
	args := m.Called(ctx, code, req)
	if c, _ := args.Get(0).(*domain.Coupon); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCouponValidate_UsesCallerID(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCouponSvc{}
	quote := &domain.CouponQuote{Code: "SAVE20", DiscountPercentage: 20, DiscountAmount: 100, OriginalAmount: 500, FinalAmount: 400}
	svc.On("Validate", mock.Anything, "u1", domain.ValidateCouponRequest{Code: "save20", Amount: 500}).Return(quote, nil)
	h := NewCouponHandler(svc)

	rr := httptest.NewRecorder()
	r := bearerReq(t, p, http.MethodPost, "/v1/coupons/validate", "u1", domain.RoleUser, []byte(`{"code":"save20","amount":500}`))
	serveAuthed(p, http.HandlerFunc(h.Validate), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.CouponQuote
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 400.0, resp.FinalAmount)
	svc.AssertExpectations(t)
}

func TestCouponValidate_NoClaimsIsUnauthenticated(t *testing.T) {
	svc := &mockCouponSvc{}
	svc.On("Validate", mock.Anything, "", mock.Anything).Return(nil, domain.ErrUnauthenticated)
	h := NewCouponHandler(svc)

	rr := httptest.NewRecorder()
	h.Validate(rr, jsonReq(http.MethodPost, "/v1/coupons/validate", `{"code":"SAVE20","amount":500}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCouponValidate_NonPositiveAmount(t *testing.T) {
	h := NewCouponHandler(&mockCouponSvc{})
	rr := httptest.NewRecorder()
	h.Validate(rr, jsonReq(http.MethodPost, "/v1/coupons/validate", `{"code":"SAVE20","amount":0}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCouponValidate_Failures(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"missing":    {domain.ErrNotFound, http.StatusNotFound},
		"expired":    {domain.ErrExpired, http.StatusGone},
		"not active": {domain.ErrNotYetActive, http.StatusUnprocessableEntity},
		"used":       {domain.ErrAlreadyUsed, http.StatusConflict},
	}
	p := newTestJWTProvider(t)
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &mockCouponSvc{}
			svc.On("Validate", mock.Anything, "u1", mock.Anything).Return(nil, tc.err)
			h := NewCouponHandler(svc)
			rr := httptest.NewRecorder()
			r := bearerReq(t, p, http.MethodPost, "/v1/coupons/validate", "u1", domain.RoleUser, []byte(`{"code":"X1Y2Z3","amount":100}`))
			serveAuthed(p, http.HandlerFunc(h.Validate), rr, r)
			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestCouponRedeem(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCouponSvc{}
	svc.On("Redeem", mock.Anything, "u1", domain.RedeemCouponRequest{Code: "SAVE20", BookingID: "b1"}).Return(nil)
	h := NewCouponHandler(svc)

	rr := httptest.NewRecorder()
	r := bearerReq(t, p, http.MethodPost, "/v1/coupons/redeem", "u1", domain.RoleUser, []byte(`{"code":"SAVE20","booking_id":"b1"}`))
	serveAuthed(p, http.HandlerFunc(h.Redeem), rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestCouponRedeem_MissingBooking(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockCouponSvc{}
	svc.On("Redeem", mock.Anything, "u1", mock.Anything).Return(domain.ErrInvalidRequest)
	h := NewCouponHandler(svc)

	rr := httptest.NewRecorder()
	r := bearerReq(t, p, http.MethodPost, "/v1/coupons/redeem", "u1", domain.RoleUser, []byte(`{"code":"SAVE20"}`))
	serveAuthed(p, http.HandlerFunc(h.Redeem), rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_request")
}

func TestCouponCreate(t *testing.T) {
	svc := &mockCouponSvc{}
	svc.On("Create", mock.Anything, mock.Anything).Return(&domain.Coupon{Code: "SAVE20"}, nil)
	h := NewCouponHandler(svc)

	body := `{"code":"save20","discount_percentage":20,"start_date":"2026-01-01T00:00:00Z","expiry_date":"2026-12-31T00:00:00Z"}`
	rr := httptest.NewRecorder()
	h.Create(rr, jsonReq(http.MethodPost, "/v1/coupons", body))
	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestCouponCreate_RejectsBadCodeAndUnknownFields(t *testing.T) {
	h := NewCouponHandler(&mockCouponSvc{})

	rr := httptest.NewRecorder()
	h.Create(rr, jsonReq(http.MethodPost, "/v1/coupons", `{"code":"a!","discount_percentage":20,"start_date":"2026-01-01T00:00:00Z","expiry_date":"2026-12-31T00:00:00Z"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = httptest.NewRecorder()
	h.Create(rr, jsonReq(http.MethodPost, "/v1/coupons", `{"code":"SAVE20","usage_count":5}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCouponList_EmptyIsArray(t *testing.T) {
	svc := &mockCouponSvc{}
	svc.On("List", mock.Anything).Return(nil, nil)
	h := NewCouponHandler(svc)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/coupons", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCouponGet_NotFound(t *testing.T) {
	svc := &mockCouponSvc{}
	svc.On("Get", mock.Anything, "NOPE").Return(nil, domain.ErrNotFound)
	h := NewCouponHandler(svc)

	rr := httptest.NewRecorder()
	h.Get(rr, withChiParam(httptest.NewRequest(http.MethodGet, "/v1/coupons/NOPE", nil), "code", "NOPE"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCouponUpdate_UsageNotPatchable(t *testing.T) {
	h := NewCouponHandler(&mockCouponSvc{})
	rr := httptest.NewRecorder()
	r := withChiParam(jsonReq(http.MethodPut, "/v1/coupons/SAVE20", `{"used_by":[]}`), "code", "SAVE20")
	h.Update(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCouponUpdate_HappyPath(t *testing.T) {
	svc := &mockCouponSvc{}
	active := false
	svc.On("Update", mock.Anything, "SAVE20", domain.UpdateCouponRequest{IsActive: &active}).
		Return(&domain.Coupon{Code: "SAVE20", IsActive: false}, nil)
	h := NewCouponHandler(svc)

	rr := httptest.NewRecorder()
	r := withChiParam(jsonReq(http.MethodPut, "/v1/coupons/SAVE20", `{"is_active":false}`), "code", "SAVE20")
	h.Update(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
