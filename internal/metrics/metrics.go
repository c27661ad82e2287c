// Package metrics exposes Prometheus metrics for derivations, uploads and ingestion.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Derivation outcomes.
const (
	StatusSuccess     = "success"
	StatusNoData      = "no_data"
	StatusInvalidTime = "invalid_time"
	StatusRejected    = "rejected"
	StatusError       = "error"
)

// Metrics contains the service's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	derivationsTotal   *prometheus.CounterVec
	derivationDuration prometheus.Histogram
	recoveredRowsTotal *prometheus.CounterVec
	uploadsTotal       *prometheus.CounterVec
	datasetRows        *prometheus.GaugeVec
	ingestFetchesTotal *prometheus.CounterVec
}

// New creates the metrics and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.derivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_derivations_total",
			Help: "Total number of occupancy derivations",
		},
		[]string{"status"},
	)

	m.derivationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeline_derivation_duration_seconds",
			Help:    "Time taken to derive an occupancy model",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	m.recoveredRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_recovered_rows_total",
			Help: "Total number of source rows skipped or partially ignored during derivation",
		},
		[]string{"kind"}, // map_row, reservation_row, unknown_table, unrecognized_meal
	)

	m.uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_dataset_uploads_total",
			Help: "Total number of dataset uploads",
		},
		[]string{"role", "source", "status"},
	)

	m.datasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timeline_dataset_rows",
			Help: "Number of rows in the currently stored dataset",
		},
		[]string{"role"},
	)

	m.ingestFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_ingest_fetches_total",
			Help: "Total number of remote export fetches",
		},
		[]string{"role", "status"},
	)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.derivationsTotal.Describe(ch)
	m.derivationDuration.Describe(ch)
	m.recoveredRowsTotal.Describe(ch)
	m.uploadsTotal.Describe(ch)
	m.datasetRows.Describe(ch)
	m.ingestFetchesTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.derivationsTotal.Collect(ch)
	m.derivationDuration.Collect(ch)
	m.recoveredRowsTotal.Collect(ch)
	m.uploadsTotal.Collect(ch)
	m.datasetRows.Collect(ch)
	m.ingestFetchesTotal.Collect(ch)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDerivation records one derivation attempt.
func (m *Metrics) RecordDerivation(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.derivationsTotal.WithLabelValues(status).Inc()
	m.derivationDuration.Observe(elapsed.Seconds())
}

// RecordRecoveredRows adds row-level recoveries of one kind.
func (m *Metrics) RecordRecoveredRows(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recoveredRowsTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordUpload records a dataset upload and, on success, its row count.
func (m *Metrics) RecordUpload(role, source, status string, rows int) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(role, source, status).Inc()
	if status == StatusSuccess {
		m.datasetRows.WithLabelValues(role).Set(float64(rows))
	}
}

// RecordDatasetCleared resets the row gauge of a role.
func (m *Metrics) RecordDatasetCleared(role string) {
	if m == nil {
		return
	}
	m.datasetRows.WithLabelValues(role).Set(0)
}

// RecordIngestFetch records one remote fetch.
func (m *Metrics) RecordIngestFetch(role, status string) {
	if m == nil {
		return
	}
	m.ingestFetchesTotal.WithLabelValues(role, status).Inc()
}
