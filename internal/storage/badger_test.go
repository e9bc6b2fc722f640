package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/storage/storagetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newMemEngine(t *testing.T) *BadgerEngine {
	t.Helper()
	engine, err := NewBadgerEngine(BadgerConfig{InMemory: true}, discard)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func put(key, value string) func(KVTxn) error {
	return func(txn KVTxn) error {
		return txn.Set([]byte(key), []byte(value))
	}
}

func TestBadgerEngine_BasicOperations(t *testing.T) {
	cfg := DefaultBadgerConfig(t.TempDir())
	cfg.GCInterval = 0
	cfg.SyncWrites = false

	engine, err := NewBadgerEngine(cfg, discard)
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()

	t.Run("Update and Get", func(t *testing.T) {
		require.NoError(t, engine.Update(ctx, put("k", "v")))
		got, err := engine.Get(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, "v", string(got))
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, err := engine.Get(ctx, []byte("missing"))
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("Delete inside Update", func(t *testing.T) {
		require.NoError(t, engine.Update(ctx, put("d", "v")))
		require.NoError(t, engine.Update(ctx, func(txn KVTxn) error {
			return txn.Delete([]byte("d"))
		}))
		_, err := engine.Get(ctx, []byte("d"))
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("Update reads its own writes", func(t *testing.T) {
		require.NoError(t, engine.Update(ctx, func(txn KVTxn) error {
			if err := txn.Set([]byte("own"), []byte("1")); err != nil {
				return err
			}
			got, err := txn.Get([]byte("own"))
			if err != nil {
				return err
			}
			assert.Equal(t, "1", string(got))
			return nil
		}))
	})

	t.Run("Update rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := engine.Update(ctx, func(txn KVTxn) error {
			if err := txn.Set([]byte("rolled-back"), []byte("v")); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = engine.Get(ctx, []byte("rolled-back"))
		assert.ErrorIs(t, err, ErrKeyNotFound, "write survived a failed transaction")
	})

	t.Run("GC and Stats", func(t *testing.T) {
		_, err := engine.GC(ctx)
		require.NoError(t, err)
		stats, err := engine.Stats(ctx)
		require.NoError(t, err)
		assert.NotZero(t, stats.LastGCTime, "LastGCTime not recorded")
	})
}

func TestBadgerEngine_Reopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultBadgerConfig(dir)
	cfg.GCInterval = 0

	engine, err := NewBadgerEngine(cfg, discard)
	require.NoError(t, err)
	users := NewKVUserStore(engine)
	u := domain.NewUser("persist@x.com")
	require.NoError(t, users.CreateUser(context.Background(), u))
	require.NoError(t, engine.Close())

	engine, err = NewBadgerEngine(cfg, discard)
	require.NoError(t, err)
	defer engine.Close()

	got, err := NewKVUserStore(engine).GetUserByID(context.Background(), u.ID)
	require.NoError(t, err, "GetUserByID after reopen")
	assert.Equal(t, "persist@x.com", got.Email)
}

func TestBadgerEngine_Closed(t *testing.T) {
	engine, err := NewBadgerEngine(BadgerConfig{InMemory: true}, discard)
	require.NoError(t, err)
	require.NoError(t, engine.Close())
	assert.NoError(t, engine.Close(), "second Close")

	_, err = engine.Get(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, engine.Update(context.Background(), put("k", "v")), ErrClosed)
}

func TestBadgerEngine_CanceledContext(t *testing.T) {
	engine := newMemEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, engine.Update(ctx, put("k", "v")), context.Canceled)
	_, err := engine.Get(ctx, []byte("k"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerEngine_RegisterMetrics(t *testing.T) {
	engine := newMemEngine(t)
	reg := prometheus.NewRegistry()

	require.NoError(t, engine.RegisterMetrics(reg))
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"postvote_badger_lsm_size_bytes",
		"postvote_badger_value_log_size_bytes",
		"postvote_badger_gc_rewrites_total",
	} {
		assert.True(t, names[want], "metric %s not registered", want)
	}

	assert.Error(t, engine.RegisterMetrics(reg), "duplicate registration should fail")
}

func TestKVUserStore(t *testing.T) {
	storagetest.RunUserRepository(t, func(t *testing.T) service.UserRepository {
		return NewKVUserStore(newMemEngine(t))
	})
}

func TestKVPostStore(t *testing.T) {
	storagetest.RunPostRepository(t, func(t *testing.T) service.PostRepository {
		return NewKVPostStore(newMemEngine(t))
	})
}
