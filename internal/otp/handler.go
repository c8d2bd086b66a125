// internal/otp/handler.go
package otp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stokvelhub/internal/member"
	"stokvelhub/internal/phone"
)

type Handler struct {
	service Service
	members member.Service
}

func NewHandler(service Service, members member.Service) *Handler {
	return &Handler{service: service, members: members}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/password-reset/request", h.handleRequest)
	r.Post("/password-reset/confirm", h.handleConfirm)
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.service.Issue(r.Context(), req.Phone); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleConfirm verifies the code and, on success, swaps the member's
// password in one request.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone       string `json:"phone"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Verify(r.Context(), req.Phone, req.Code); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if err := h.members.ResetPassword(r.Context(), req.Phone, req.NewPassword); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, phone.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoCode), errors.Is(err, ErrExpired),
		errors.Is(err, ErrExhausted), errors.Is(err, ErrMismatch),
		errors.Is(err, ErrCodeUsed):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
