// Package httpserver provides the HTTP/HTTPS server for PostVote.
//
// This package implements the external API using stdlib net/http:
//
//   - Accounts: POST /users, POST /sessions, POST /sessions/verify
//   - Posts: POST /posts, GET /posts/{id}, POST /posts/{id}/votes
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware chain: RequestID, Recover, CORS, Audit and per-route Prometheus
// metrics.
package httpserver
