// Package metrics exposes Prometheus collectors for generation and payment flows.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "logoforge"

// Metrics groups the application's collectors.
type Metrics struct {
	Jobs             *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	Payments         *prometheus.CounterVec
	Uploads          *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Generation and edit jobs by kind and final state.",
		}, []string{"kind", "state"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Latency of calls to external providers.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider", "operation"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_events_total",
			Help:      "Payment webhook events by outcome.",
		}, []string{"outcome"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Blob uploads by storage driver and result.",
		}, []string{"driver", "result"}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		m.Jobs,
		m.UpstreamDuration,
		m.Payments,
		m.Uploads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// RecordJob counts a job that reached a final state.
func (m *Metrics) RecordJob(kind, state string) {
	if m == nil {
		return
	}
	m.Jobs.WithLabelValues(kind, state).Inc()
}

// ObserveUpstream records how long a provider call took.
func (m *Metrics) ObserveUpstream(provider, operation string, started time.Time) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) RecordPayment(outcome string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordUpload(driver string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Uploads.WithLabelValues(driver, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
