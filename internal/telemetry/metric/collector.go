package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// Collector reports directory state at scrape time.
type Collector struct {
	sessions SessionCounter
	timeout  time.Duration

	activeSessions *prometheus.Desc
}

// NewCollector creates a collector over sessions.
func NewCollector(sessions SessionCounter) *Collector {
	return &Collector{
		sessions: sessions,
		timeout:  5 * time.Second,
		activeSessions: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "", "active_sessions"),
			"Identities with an open session",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessions
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.sessions.CountActive(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.activeSessions, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, float64(n))
}
