package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/telemetry/logger"
	"github.com/yndnr/postvote-go/internal/telemetry/metric"
)

// maxBodyBytes caps JSON request bodies. Post bodies are limited to
// domain.MaxBodyLength characters, which fits comfortably.
const maxBodyBytes = 1 << 20

// Credential headers accepted in addition to "Authorization: Bearer <user_id>:<token>".
const (
	HeaderUserID       = "X-User-ID"
	HeaderSessionToken = "X-Session-Token"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Backend() string
	Ping(ctx context.Context) error
}

// Config holds the dependencies of Handler.
type Config struct {
	Auth    *service.AuthService
	Posts   *service.PostService
	Storage Pinger           // optional, used by GET /ready
	Metrics *metric.Registry // optional
	Logger  *slog.Logger

	// Instrument wraps every route handler with its route pattern, e.g. for
	// per-route request metrics. Optional.
	Instrument func(route string, next http.Handler) http.Handler
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	auth       *service.AuthService
	posts      *service.PostService
	storage    Pinger
	metrics    *metric.Registry
	logger     *slog.Logger
	instrument func(route string, next http.Handler) http.Handler
	mux        *http.ServeMux
}

// New creates a new Handler with the given services.
func New(cfg *Config) *Handler {
	h := &Handler{
		auth:       cfg.Auth,
		posts:      cfg.Posts,
		storage:    cfg.Storage,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		instrument: cfg.Instrument,
		mux:        http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints
	h.handle("GET /health", h.handleHealth)
	h.handle("GET /ready", h.handleReady)

	// Accounts and sessions
	h.handle("POST /users", h.handleRegister)
	h.handle("POST /sessions", h.handleLogin)
	h.handle("POST /sessions/verify", h.handleVerify)

	// Posts
	h.handle("POST /posts", h.handleCreatePost)
	h.handle("GET /posts/{id}", h.handleGetPost)
	h.handle("POST /posts/{id}/votes", h.handleVote)

	if h.metrics != nil {
		h.route("GET /metrics", h.metrics.Handler())
	}
}

func (h *Handler) handle(pattern string, fn http.HandlerFunc) {
	h.route(pattern, fn)
}

func (h *Handler) route(pattern string, next http.Handler) {
	if h.instrument != nil {
		next = h.instrument(pattern, next)
	}
	h.mux.Handle(pattern, next)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.writeResponse(w, status, NewResponse(getRequestID(r), data))
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	w.Header().Set("X-Error-Code", code)
	h.writeResponse(w, status, NewErrorResponse(getRequestID(r), code, message, details))
}

func (h *Handler) writeResponse(w http.ResponseWriter, status int, response *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", response.RequestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "code", response.Code, "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := ErrorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
			h.writeError(w, r, status, de.Code, de.Message, nil)
			return
		}
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.writeError(w, r, status, de.Code, de.Message, details)
		return
	}

	// Generic internal error
	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// decodeJSON decodes the request body into v. An empty body is an error.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		details := "invalid request body"
		if errors.Is(err, io.EOF) {
			details = "request body is empty"
		}
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, domain.ErrBadRequest.Message, details)
		return false
	}
	return true
}

// ErrorCodeToHTTPStatus maps error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"), strings.HasSuffix(code, "-4012"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "PV-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Credentials extracts the caller's user id and session token.
//
// It supports two formats:
//  1. Authorization: Bearer <user_id>:<token>
//  2. X-User-ID + X-Session-Token headers
func Credentials(r *http.Request) (userID, token string) {
	authHeader := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		if id, tok, found := strings.Cut(strings.TrimSpace(rest), ":"); found {
			return id, tok
		}
	}
	return r.Header.Get(HeaderUserID), r.Header.Get(HeaderSessionToken)
}

// ClientIP extracts the client IP from the request.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// net.SplitHostPort handles IPv6 addresses like [::1]:8080
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getRequestID returns the id assigned by the RequestID middleware, or the
// incoming header when the handler is used without it.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// countResult increments a result-labelled counter when metrics are enabled.
func (h *Handler) countResult(pick func(*metric.Registry) *prometheus.CounterVec, err error) {
	if h.metrics == nil {
		return
	}
	pick(h.metrics).WithLabelValues(metric.Result(err)).Inc()
}
