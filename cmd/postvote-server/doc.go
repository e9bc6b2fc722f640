// Package main provides the entry point for postvote-server.
//
// The server exposes the account, session, post and vote operations over
// HTTP or HTTPS, backed by the memory, badger or dynamodb storage backend.
//
// Usage:
//
//	postvote-server [flags]
//	postvote-server -config /path/to/config.yaml
//
// Every configuration key can also be set through a POSTVOTE_ environment
// variable, e.g. POSTVOTE_STORAGE_BACKEND=badger.
package main
