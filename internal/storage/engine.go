package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/storage/dynamostore"
	"github.com/yndnr/postvote-go/internal/storage/memory"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendDynamoDB = "dynamodb"
)

// Config selects and configures a storage backend.
type Config struct {
	// Backend is one of BackendMemory, BackendBadger or BackendDynamoDB.
	Backend string

	// Badger configures the badger backend.
	Badger BadgerConfig

	// DynamoDB configures the dynamodb backend.
	DynamoDB dynamostore.Config

	// CreateTables provisions DynamoDB tables on open.
	CreateTables bool

	// Logger is the structured logger.
	Logger *slog.Logger

	// Registry receives backend metrics when set.
	Registry prometheus.Registerer
}

// Engine holds the repositories of the opened backend.
type Engine struct {
	Users service.UserRepository
	Posts service.PostRepository

	backend string
	ping    func(ctx context.Context) error
	close   func() error
}

// Open opens the configured backend.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "storage", "backend", cfg.Backend)

	switch cfg.Backend {
	case "", BackendMemory:
		return &Engine{
			Users:   memory.NewUserStore(),
			Posts:   memory.NewPostStore(),
			backend: BackendMemory,
			ping:    func(context.Context) error { return nil },
			close:   func() error { return nil },
		}, nil

	case BackendBadger:
		kv, err := NewBadgerEngine(cfg.Badger, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		if cfg.Registry != nil {
			if err := kv.RegisterMetrics(cfg.Registry); err != nil {
				kv.Close()
				return nil, fmt.Errorf("storage: %w", err)
			}
		}
		return &Engine{
			Users:   NewKVUserStore(kv),
			Posts:   NewKVPostStore(kv),
			backend: BackendBadger,
			ping: func(ctx context.Context) error {
				_, err := kv.Stats(ctx)
				return err
			},
			close: kv.Close,
		}, nil

	case BackendDynamoDB:
		client, err := dynamostore.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		if cfg.CreateTables {
			if err := dynamostore.CreateTables(ctx, client, cfg.DynamoDB, logger); err != nil {
				return nil, fmt.Errorf("storage: %w", err)
			}
		}
		logger.Info("dynamodb storage ready",
			"region", cfg.DynamoDB.Region,
			"users_table", cfg.DynamoDB.UsersTable,
			"posts_table", cfg.DynamoDB.PostsTable)
		return &Engine{
			Users:   dynamostore.NewUserStore(client, cfg.DynamoDB.UsersTable),
			Posts:   dynamostore.NewPostStore(client, cfg.DynamoDB.PostsTable),
			backend: BackendDynamoDB,
			ping: func(ctx context.Context) error {
				return dynamostore.Ping(ctx, client, cfg.DynamoDB)
			},
			close: func() error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
}

// Backend returns the name of the opened backend.
func (e *Engine) Backend() string {
	return e.backend
}

// Ping reports whether the backend is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.ping(ctx)
}

// Close releases backend resources.
func (e *Engine) Close() error {
	return e.close()
}
