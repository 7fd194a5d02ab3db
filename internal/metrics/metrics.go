// Package metrics exposes Prometheus instrumentation for the data layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records client-side request and cache activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokenRefreshes  *prometheus.CounterVec
	rollbacksTotal  *prometheus.CounterVec
}

// New creates metrics registered against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "drivedocs",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "API requests by method and status code.",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "drivedocs",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "API request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		tokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "drivedocs",
				Subsystem: "client",
				Name:      "token_refreshes_total",
				Help:      "Session refresh attempts by outcome.",
			},
			[]string{"outcome"},
		),
		rollbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "drivedocs",
				Subsystem: "state",
				Name:      "optimistic_rollbacks_total",
				Help:      "Optimistic mutations rolled back after a failed request.",
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.requestDuration, m.tokenRefreshes, m.rollbacksTotal)
	}
	return m
}

// RecordRequest records one completed API round-trip.
func (m *Metrics) RecordRequest(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, status).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRefresh records a token refresh attempt. Outcome is one of
// "success", "expired", "error".
func (m *Metrics) RecordRefresh(outcome string) {
	if m == nil {
		return
	}
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// RecordRollback records an optimistic mutation rollback.
func (m *Metrics) RecordRollback(operation string) {
	if m == nil {
		return
	}
	m.rollbacksTotal.WithLabelValues(operation).Inc()
}
