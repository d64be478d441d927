package handler

import (
	"net/http"

	"github.com/go-homeservices-api/internal/application/otp"
	"github.com/go-homeservices-api/internal/domain"
)

// OTPHandler exposes code issuance and verification.
type OTPHandler struct {
	svc otp.Service
}

func NewOTPHandler(svc otp.Service) *OTPHandler { return &OTPHandler{svc: svc} }

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueOTPRequest
	if err := decodeJSON(r, &req, false); err != nil {
		httpError(w, err)
		return
	}
	expiresIn, err := h.svc.Issue(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OTPSentEnvelope{Message: "OTP sent", ExpiresIn: expiresIn})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := decodeJSON(r, &req, false); err != nil {
		httpError(w, err)
		return
	}
	if err := h.svc.Verify(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP verified"})
}
