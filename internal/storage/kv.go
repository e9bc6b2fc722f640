package storage

import (
	"context"
	"errors"
	"time"
)

// Common KV errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrTxnConflict = errors.New("kv transaction conflict")
)

// KVEngine is an embedded, durable key-value store.
//
// Implementations must be safe for concurrent use. Update runs fn in a
// read-write transaction: either every write made through the KVTxn is
// committed or none is. If another transaction committed a write to a key
// that fn read, Update returns ErrTxnConflict.
type KVEngine interface {
	// Get retrieves a value by key. Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Update runs fn inside a read-write transaction.
	Update(ctx context.Context, fn func(txn KVTxn) error) error

	// GC triggers value log garbage collection and returns the number of
	// completed rewrite cycles.
	GC(ctx context.Context) (int, error)

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close gracefully shuts down the engine.
	Close() error
}

// KVTxn is the view of the store inside KVEngine.Update.
type KVTxn interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is LSMSize plus ValueLogSize.
	TotalSize uint64

	// LSMSize is the LSM tree size in bytes.
	LSMSize uint64

	// ValueLogSize is the value log size in bytes.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCRewrites is the total number of value log files rewritten by GC.
	GCRewrites uint64
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory.
	Dir string

	// GCInterval is the interval between automatic GC runs.
	// Zero disables the background loop.
	GCInterval time.Duration

	// GCDiscardRatio is the fraction of stale data in a value log file
	// that makes it eligible for rewrite (0.0-1.0).
	GCDiscardRatio float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	NumMemtables int

	// SyncWrites fsyncs after each commit.
	SyncWrites bool

	// InMemory keeps everything in RAM; Dir is ignored. Intended for tests.
	InMemory bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
		CacheSize:        64 << 20, // 64MB
		ValueLogFileSize: 256 << 20,
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
