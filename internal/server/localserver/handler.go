package localserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/yndnr/postvote-go/internal/infra/buildinfo"
	"github.com/yndnr/postvote-go/internal/telemetry/logger"
)

// pingTimeout bounds the storage ping of the status command.
const pingTimeout = 2 * time.Second

// Pinger is the storage backend reported by status.
type Pinger interface {
	Backend() string
	Ping(ctx context.Context) error
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Storage is pinged by status. Optional.
	Storage Pinger

	// Shutdown is called by the shutdown command. Optional.
	Shutdown func(reason string)

	Logger *slog.Logger
}

// Handler handles local management commands.
type Handler struct {
	storage  Pinger
	shutdown func(string)
	log      *slog.Logger
	started  time.Time
}

// NewHandler creates a new Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		storage:  cfg.Storage,
		shutdown: cfg.Shutdown,
		log:      log,
		started:  time.Now(),
	}
}

// Status is the reply of the status command.
type Status struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Backend  string `json:"backend,omitempty"`
	Storage  string `json:"storage,omitempty"`
	Uptime   string `json:"uptime"`
	LogLevel string `json:"log_level"`
}

// Execute executes a local management command and writes its reply line.
func (h *Handler) Execute(ctx context.Context, w io.Writer, cmd string, args []string) error {
	switch cmd {
	case "status":
		return h.handleStatus(ctx, w)
	case "loglevel":
		return h.handleLogLevel(w, args)
	case "shutdown":
		return h.handleShutdown(w)
	default:
		return reply(w, "error: unknown command: %s", cmd)
	}
}

func (h *Handler) handleStatus(ctx context.Context, w io.Writer) error {
	info := buildinfo.Get()
	st := Status{
		Version:  info.Version,
		Commit:   info.Commit,
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		LogLevel: logger.GetLevel(),
	}
	if h.storage != nil {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		st.Backend = h.storage.Backend()
		st.Storage = "ok"
		if err := h.storage.Ping(ctx); err != nil {
			st.Storage = err.Error()
		}
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func (h *Handler) handleLogLevel(w io.Writer, args []string) error {
	if len(args) == 0 {
		return reply(w, "ok %s", logger.GetLevel())
	}
	if err := logger.SetLevel(args[0]); err != nil {
		return reply(w, "error: %v", err)
	}
	h.log.Info("log level changed", "level", logger.GetLevel(), "source", "local socket")
	return reply(w, "ok log level %s", logger.GetLevel())
}

func (h *Handler) handleShutdown(w io.Writer) error {
	if h.shutdown == nil {
		return reply(w, "error: shutdown not supported")
	}
	if err := reply(w, "ok shutting down"); err != nil {
		return err
	}
	h.log.Info("shutdown requested", "source", "local socket")
	h.shutdown("local shutdown command")
	return nil
}

func reply(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format+"\n", args...)
	return err
}
