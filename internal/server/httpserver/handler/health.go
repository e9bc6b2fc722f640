package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/internal/infra/buildinfo"
)

// readyTimeout bounds the storage ping of GET /ready.
const readyTimeout = 2 * time.Second

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: buildinfo.Get().Version,
	})
}

// handleReady handles GET /ready. While the storage backend cannot be
// reached it answers 503 with code PV-SYS-5030 and still carries the
// status document in data.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if h.storage == nil {
		h.writeJSON(w, r, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp.Backend = h.storage.Backend()
	if err := h.storage.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()

		unavailable := domain.ErrServiceUnavailable
		response := NewErrorResponse(getRequestID(r), unavailable.Code, unavailable.Message, nil)
		response.Data = resp
		w.Header().Set("X-Error-Code", unavailable.Code)
		h.writeResponse(w, http.StatusServiceUnavailable, response)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
