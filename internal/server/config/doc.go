// Package config defines the postvote-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: masking of secrets before logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file and
// POSTVOTE_* environment variables.
package config
