// Package service provides domain services for PostVote.
//
// Domain services contain the business logic and orchestrate operations on
// domain models. Storage is reached only through the repository interfaces
// declared here, which every backend in internal/storage implements.
//
// This package contains:
//
//   - AuthService: registration, login and session token verification
//   - PostService: post creation, lookup and the vote toggle
//
// Services hold no per-request state and are safe for concurrent use.
// Read-modify-write sequences (login, vote) are guarded by the repositories'
// version checks instead of in-process locks.
package service
