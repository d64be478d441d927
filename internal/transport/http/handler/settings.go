package handler

import (
	"net/http"

	"github.com/go-homeservices-api/internal/application/settings"
	"github.com/go-homeservices-api/internal/domain"
)

// SettingsHandler serves the site settings document.
type SettingsHandler struct {
	svc settings.Service
}

func NewSettingsHandler(svc settings.Service) *SettingsHandler { return &SettingsHandler{svc: svc} }

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSettingsRequest
	if err := decodeJSON(r, &req, true); err != nil {
		httpError(w, err)
		return
	}
	s, err := h.svc.Update(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
