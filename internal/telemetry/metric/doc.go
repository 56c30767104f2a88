// Package metric provides Prometheus metrics for dirmesh.
//
//   - prometheus.go: the Registry, request and connection metrics, /metrics handler
//   - collector.go: the directory collector reporting live session counts
//
// Metrics are exposed at /metrics on the admin HTTP server.
package metric
