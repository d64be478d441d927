package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-homeservices-api/internal/application/coupon"
	"github.com/go-homeservices-api/internal/domain"
	"github.com/go-homeservices-api/internal/transport/http/middleware"
)

// CouponHandler handles coupon quoting, redemption and administration.
type CouponHandler struct {
	svc coupon.Service
}

func NewCouponHandler(svc coupon.Service) *CouponHandler { return &CouponHandler{svc: svc} }

// callerID returns the authenticated user ID or "". The service rejects
// an empty ID with ErrUnauthenticated.
func callerID(r *http.Request) string {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		return claims.UserID
	}
	return ""
}

func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateCouponRequest
	if err := decodeJSON(r, &req, false); err != nil {
		httpError(w, err)
		return
	}
	quote, err := h.svc.Validate(r.Context(), callerID(r), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *CouponHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req domain.RedeemCouponRequest
	if err := decodeJSON(r, &req, false); err != nil {
		httpError(w, err)
		return
	}
	if err := h.svc.Redeem(r.Context(), callerID(r), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "coupon redeemed"})
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCouponRequest
	if err := decodeJSON(r, &req, true); err != nil {
		httpError(w, err)
		return
	}
	c, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if coupons == nil {
		coupons = []domain.Coupon{}
	}
	writeJSON(w, http.StatusOK, coupons)
}

func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCouponRequest
	if err := decodeJSON(r, &req, true); err != nil {
		httpError(w, err)
		return
	}
	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
