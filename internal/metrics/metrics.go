// Package metrics exposes Prometheus collectors for the sync pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors recorded by the sync orchestrator and the
// statement upload service. All collectors are registered on a private
// registry so tests can construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	SyncRuns           *prometheus.CounterVec
	RecordsProcessed   *prometheus.CounterVec
	SyncDuration       prometheus.Histogram
	ExtractionDuration prometheus.Histogram
}

// New builds a Metrics with all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receipt_ledger",
			Name:      "sync_runs_total",
			Help:      "Completed sync runs partitioned by outcome.",
		}, []string{"outcome"}),
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receipt_ledger",
			Name:      "records_processed_total",
			Help:      "Emails handled during sync runs, partitioned by result.",
		}, []string{"result"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "receipt_ledger",
			Name:      "sync_duration_seconds",
			Help:      "Wall time of one full sync run.",
			Buckets:   prometheus.DefBuckets,
		}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "receipt_ledger",
			Name:      "extraction_duration_seconds",
			Help:      "Wall time spent decoding one stored PDF.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.SyncRuns, m.RecordsProcessed, m.SyncDuration, m.ExtractionDuration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
