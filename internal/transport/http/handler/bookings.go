package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-homeservices-api/internal/application/booking"
	"github.com/go-homeservices-api/internal/domain"
)

// BookingHandler handles booking endpoints.
type BookingHandler struct {
	svc booking.Service
}

func NewBookingHandler(svc booking.Service) *BookingHandler { return &BookingHandler{svc: svc} }

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req domain.CreateBookingRequest
	if err := decodeJSON(r, &req, false); err != nil {
		httpError(w, err)
		return
	}
	b, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	bookings, err := h.svc.ListMine(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateBookingStatusRequest
	if err := decodeJSON(r, &req, true); err != nil {
		httpError(w, err)
		return
	}
	b, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
