// Package metrics defines the prometheus collectors shared by the catalog
// client and the live feed transports, plus an optional debug HTTP handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors for one client instance. All methods are
// nil-safe so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	UpdatesTotal   prometheus.Counter
	Reconnects     prometheus.Counter
	PollFailures   prometheus.Counter
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "i3x_requests_total",
				Help: "Catalog API requests by operation and outcome.",
			},
			[]string{"operation", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "i3x_request_duration_seconds",
				Help:    "Catalog API request latency by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		UpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "i3x_updates_total",
			Help: "Normalized live updates absorbed into the value store.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "i3x_stream_reconnects_total",
			Help: "Push-stream reconnection attempts.",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "i3x_poll_failures_total",
			Help: "Failed poll-sync calls (non-fatal to the poll loop).",
		}),
	}
	m.registry.MustRegister(
		m.Requests,
		m.RequestLatency,
		m.UpdatesTotal,
		m.Reconnects,
		m.PollFailures,
	)
	return m
}

// Handler exposes the registry for an optional debug listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one catalog request outcome.
func (m *Metrics) ObserveRequest(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, status).Inc()
	m.RequestLatency.WithLabelValues(operation).Observe(seconds)
}

// AddUpdates records absorbed live updates.
func (m *Metrics) AddUpdates(n int) {
	if m == nil {
		return
	}
	m.UpdatesTotal.Add(float64(n))
}

// IncReconnects records one push-stream reconnection attempt.
func (m *Metrics) IncReconnects() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

// IncPollFailures records one failed poll-sync call.
func (m *Metrics) IncPollFailures() {
	if m == nil {
		return
	}
	m.PollFailures.Inc()
}
