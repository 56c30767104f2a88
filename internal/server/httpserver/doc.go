// Package httpserver provides the read-only admin HTTP server for dirmesh.
//
// Routes:
//
//   - /health, /ready: liveness and readiness
//   - /metrics: Prometheus exposition
//   - /v1/sessions: active sessions in opening order
//   - /v1/catalogs/{identity}: catalog of a connected identity
//
// Requests pass through Recover, RequestID, RateLimit and AccessLog in
// that order. The directory protocol itself is served by dirserver.
package httpserver
