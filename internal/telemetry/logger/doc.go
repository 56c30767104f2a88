// Package logger provides structured logging for dirmesh.
//
// It configures log/slog handlers:
//
//   - logger.go: handler construction, the process-wide level and default logger
//   - context.go: logger and request ID propagation through context.Context
//   - redact.go: masking of operator-supplied secrets
//
// The level is held in a shared slog.LevelVar so it can be changed at runtime
// when the configuration file is reloaded.
package logger
