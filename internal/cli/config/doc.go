// Package config holds the postvote-cli settings file (~/.postvote/cli.yaml).
//
// The file stores the default server, output format and TLS options, plus
// the session saved by "session login --save". Flags and POSTVOTE_
// environment variables take precedence over it.
package config
