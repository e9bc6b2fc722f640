package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/telemetry/metric"
)

var (
	registrations = func(m *metric.Registry) *prometheus.CounterVec { return m.Registrations }
	logins        = func(m *metric.Registry) *prometheus.CounterVec { return m.Logins }
	verifications = func(m *metric.Registry) *prometheus.CounterVec { return m.Verifications }
)

// handleRegister handles POST /users.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.auth.Register(r.Context(), &service.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	h.countResult(registrations, err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, sessionToResponse(resp))
}

// handleLogin handles POST /sessions.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), &service.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	h.countResult(logins, err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, sessionToResponse(resp))
}

// handleVerify handles POST /sessions/verify.
//
// A token that does not verify is a normal outcome and is answered with 200
// and valid=false. Only storage failures produce an error response.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if r.ContentLength != 0 && !h.decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" && req.Token == "" {
		req.UserID, req.Token = Credentials(r)
	}

	_, err := h.auth.Authenticate(r.Context(), req.UserID, req.Token)
	h.countResult(verifications, err)

	var de *domain.DomainError
	switch {
	case err == nil:
		h.writeJSON(w, r, http.StatusOK, VerifyResponse{Valid: true})
	case errors.Is(err, domain.ErrSessionExpired):
		h.writeJSON(w, r, http.StatusOK, VerifyResponse{Reason: domain.ErrSessionExpired.Message})
	case errors.Is(err, domain.ErrUnauthorized) && errors.As(err, &de):
		reason := de.Details
		if reason == "" {
			reason = de.Message
		}
		h.writeJSON(w, r, http.StatusOK, VerifyResponse{Reason: reason})
	default:
		h.handleServiceError(w, r, err)
	}
}

func sessionToResponse(s *service.SessionResponse) SessionResponse {
	return SessionResponse{
		UserID:    s.UserID,
		Token:     s.Token,
		ExpiresAt: time.UnixMilli(s.ExpiresAt).UTC(),
	}
}
