package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-homeservices-api/internal/application/user"
	"github.com/go-homeservices-api/internal/domain"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

// Register creates an account from a signup OTP and returns a bearer token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decodeJSON(r, &req, false); err != nil {
		httpError(w, err)
		return
	}
	u, bearer, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Bearer: bearer, User: toSafeUser(u)})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(u))
}

// List pages through all users. Query: limit, cursor.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, next, err := h.svc.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}
	safe := make([]SafeUser, len(users))
	for i := range users {
		safe[i] = *toSafeUser(&users[i])
	}
	writeJSON(w, http.StatusOK, PaginatedUsersEnvelope{Data: safe, NextCursor: next})
}

type setEnabledRequest struct {
	Enable *bool `json:"enable"`
}

func (h *UserHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req setEnabledRequest
	if err := decodeJSON(r, &req, true); err != nil {
		httpError(w, err)
		return
	}
	if req.Enable == nil {
		httpError(w, fmt.Errorf("field 'enable' is required: %w", domain.ErrValidation))
		return
	}
	u, err := h.svc.SetEnabled(r.Context(), chi.URLParam(r, "id"), *req.Enable)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(u))
}
