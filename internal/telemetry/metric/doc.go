// Package metric provides Prometheus metrics for PostVote.
//
//   - prometheus.go: application registry, request and domain counters
//   - collector.go: storage health collector evaluated at scrape time
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
