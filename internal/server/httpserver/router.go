package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/server/httpserver/handler"
	"github.com/yndnr/postvote-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// AuthService handles registration, login and session verification.
	AuthService *service.AuthService

	// PostService handles posts and votes.
	PostService *service.PostService

	// Storage is pinged by GET /ready. Optional.
	Storage handler.Pinger

	// Metrics enables GET /metrics and per-route request metrics. Optional.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = CORS off).
	CORSAllowedOrigins []string

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:      slog.Default(),
		EnableAudit: true,
	}
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Order: RequestID -> Logger -> Recover -> CORS -> Audit -> route metrics -> Handler
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var instrument func(string, http.Handler) http.Handler
	if cfg.Metrics != nil {
		instrument = func(route string, next http.Handler) http.Handler {
			return Metrics(cfg.Metrics, route)(next)
		}
	}

	h := handler.New(&handler.Config{
		Auth:       cfg.AuthService,
		Posts:      cfg.PostService,
		Storage:    cfg.Storage,
		Metrics:    cfg.Metrics,
		Logger:     log,
		Instrument: instrument,
	})

	middlewares := []Middleware{
		RequestID(),
		WithLogger(log),
		Recover(log),
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		middlewares = append(middlewares, CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.EnableAudit {
		middlewares = append(middlewares, Audit(log))
	}

	return Chain(h, middlewares...)
}
