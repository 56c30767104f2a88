package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every dirmesh metric.
const Namespace = "dirmesh"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ProtocolErrors  *prometheus.CounterVec

	// Connection metrics
	ConnectionsTotal    prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec
}

// NewRegistry creates a registry with the request metrics and the Go runtime
// and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Directory requests by operation and status kind",
		}, []string{"op", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent executing directory operations",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op"}),
		ProtocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections dropped on a protocol failure, by dispatcher state",
		}, []string{"state"}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_total",
			Help:      "Connections accepted by the directory listener",
		}),
		ConnectionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections closed before dispatch, by reason",
		}, []string{"reason"}),
	}
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Registerer exposes the underlying registry for components that register
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for scraping.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns the /metrics handler for r.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRequest records one executed operation.
func (r *Registry) ObserveRequest(op, status string, d time.Duration) {
	r.RequestsTotal.WithLabelValues(op, status).Inc()
	r.RequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ConnectionAccepted counts an accepted connection.
func (r *Registry) ConnectionAccepted() {
	r.ConnectionsTotal.Inc()
}

// ConnectionRejected counts a connection closed before dispatch.
func (r *Registry) ConnectionRejected(reason string) {
	r.ConnectionsRejected.WithLabelValues(reason).Inc()
}

// ProtocolError counts a connection dropped in the given dispatcher state.
func (r *Registry) ProtocolError(state string) {
	r.ProtocolErrors.WithLabelValues(state).Inc()
}

// Handler returns the /metrics handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}
