// Package domain defines the core domain models for PostVote.
//
// Domain models are plain value objects without IO dependencies:
//
//   - User: account with its password hash and single session
//   - Post: titled entry with upvoter and downvoter sets
//   - Errors: coded domain errors shared by every layer
//
// Both entities carry a Version for optimistic locking.
package domain
