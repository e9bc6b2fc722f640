package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/storage"
	"github.com/yndnr/postvote-go/internal/storage/memory"
	"github.com/yndnr/postvote-go/internal/telemetry/logger"
	"github.com/yndnr/postvote-go/pkg/passhash"
)

// VoterCounts defines the voter set sizes for benchmarking.
var VoterCounts = []int{10, 100, 1000, 10000}

// SmallVoterCounts for quick benchmarks.
var SmallVoterCounts = []int{10, 1000}

// benchIterations keeps registration cheap; hashing cost is measured
// separately in BenchmarkPassHash.
const benchIterations = 1000

// backend is a pair of repositories under test.
type backend struct {
	name  string
	users service.UserRepository
	posts service.PostRepository
}

// backends returns the memory store and an in-memory badger store.
func backends(b *testing.B) []backend {
	b.Helper()

	kv, err := storage.NewBadgerEngine(storage.BadgerConfig{InMemory: true}, logger.Discard())
	if err != nil {
		b.Fatalf("NewBadgerEngine: %v", err)
	}
	b.Cleanup(func() { kv.Close() })

	return []backend{
		{"memory", memory.NewUserStore(), memory.NewPostStore()},
		{"badger", storage.NewKVUserStore(kv), storage.NewKVPostStore(kv)},
	}
}

// newServices builds the services over be with a fast hasher.
func newServices(b *testing.B, be backend) (*service.AuthService, *service.PostService) {
	b.Helper()

	hasher, err := passhash.New(passhash.PBKDF2SHA256, passhash.Options{PBKDF2Iterations: benchIterations})
	if err != nil {
		b.Fatal(err)
	}
	auth := service.NewAuthService(be.users, &service.AuthServiceConfig{Hasher: hasher})
	posts := service.NewPostService(be.posts, auth, &service.PostServiceConfig{
		AutoUpvoteAuthor: true,
		MaxVoteAttempts:  100,
	})
	return auth, posts
}

// registerUsers registers n accounts and returns their sessions.
func registerUsers(ctx context.Context, b *testing.B, auth *service.AuthService, n int) []*service.SessionResponse {
	b.Helper()

	sessions := make([]*service.SessionResponse, n)
	for i := range sessions {
		s, err := auth.Register(ctx, &service.RegisterRequest{
			Email:    fmt.Sprintf("bench-%d-%d@example.com", b.N, i),
			Password: "bench-password",
		})
		if err != nil {
			b.Fatalf("Register: %v", err)
		}
		sessions[i] = s
	}
	return sessions
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithVoterCounts runs a benchmark function with various voter set sizes.
func runWithVoterCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("voters_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
