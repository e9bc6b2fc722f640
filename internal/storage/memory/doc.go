// Package memory provides in-memory repositories for PostVote.
//
// UserStore keeps a primary map keyed by email and a secondary index from
// user ID to email under one mutex, so both lookups stay consistent.
// PostStore uses a sharded concurrent map with version-based
// compare-and-swap updates.
//
// Stored entities are cloned on the way in and out; callers never share
// memory with the store.
package memory
