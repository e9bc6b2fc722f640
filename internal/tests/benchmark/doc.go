// Package benchmark provides performance benchmarks for postvote.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare storage backends on the vote path:
//
//	go test -bench=BenchmarkCastVote -benchmem -benchtime=5s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
