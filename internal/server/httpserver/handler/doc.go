// Package handler provides the HTTP handlers of the dirmesh admin surface.
//
// The surface is read-only:
//
//   - health.go: liveness and readiness checks
//   - directory.go: active sessions and per-identity catalogs
//
// Every JSON response uses the envelope in types.go. /metrics is served
// in Prometheus text format and bypasses the envelope.
package handler
