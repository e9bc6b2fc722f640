// Package cmap provides a concurrent map split into independently locked shards.
//
// Usage:
//
//	m := cmap.New[string, *domain.Post]()
//	m.SetIfAbsent(post.ID, post)
//	ok := cmap.CompareAndSwap(m, post.ID, expectedVersion, updated)
//
// All operations are safe for concurrent use. Reads take a shard read lock,
// writes take the shard write lock.
package cmap
