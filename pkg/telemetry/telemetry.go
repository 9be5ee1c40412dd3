package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Channel outcomes recorded by ObserveChannel.
const (
	OutcomeExtracted = "extracted"
	OutcomeNotFound  = "not_found"
	OutcomeFailed    = "failed"
)

// Metrics holds the counters of one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	apiRequests *prometheus.CounterVec
	channels    *prometheus.CounterVec
	rowsWritten *prometheus.CounterVec
}

// New registers the run counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "channelmetrics",
			Name:      "api_requests_total",
			Help:      "Remote API requests issued, by endpoint.",
		}, []string{"endpoint"}),
		channels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "channelmetrics",
			Name:      "channels_total",
			Help:      "Channels processed, by outcome.",
		}, []string{"outcome"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "channelmetrics",
			Name:      "rows_written_total",
			Help:      "Rows written to the sink, by table.",
		}, []string{"table"}),
	}
	reg.MustRegister(m.apiRequests, m.channels, m.rowsWritten)
	return m
}

// Registry exposes the underlying registry, e.g. for tests or an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(endpoint string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) ObserveChannel(outcome string) {
	if m == nil {
		return
	}
	m.channels.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRows(table string, n int) {
	if m == nil {
		return
	}
	m.rowsWritten.WithLabelValues(table).Add(float64(n))
}

// RowsWritten returns the rows counter of table.
func (m *Metrics) RowsWritten(table string) prometheus.Counter {
	return m.rowsWritten.WithLabelValues(table)
}

// Push sends the run counters to a Prometheus Pushgateway. A blank url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
