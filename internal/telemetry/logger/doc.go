// Package logger provides structured logging for PostVote.
//
// It builds log/slog loggers with:
//
//   - JSON (default) or text output
//   - a process-wide level that can be changed at runtime
//   - automatic redaction of session tokens, password hashes and
//     sensitively named fields
//   - request id propagation through context.Context
package logger
