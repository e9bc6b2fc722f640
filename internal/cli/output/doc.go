// Package output renders postvote-cli results as tables, JSON or YAML.
//
// Values that implement Tabular choose their own table layout. Every other
// value falls back to indented JSON in table mode.
package output
