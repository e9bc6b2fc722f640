// Package tlsroots provides TLS configuration for the server and the CLI.
//
// CertReloader serves the server certificate and swaps it when the PEM files
// change on disk. ClientConfig builds the client side configuration with an
// optional private CA bundle.
package tlsroots
