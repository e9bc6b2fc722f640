// Package connection provides the HTTP client postvote-cli uses to talk to
// postvote-server.
//
// The client attaches the session credentials as a Bearer header, speaks
// HTTPS with the system roots or a private CA, and unwraps the server's
// JSON envelope into typed results or *APIError values.
package connection
