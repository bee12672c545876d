// Package metrics holds the catalog's store/write-level Prometheus
// collectors (spec-ambient observability, not a spec module itself).
// C5 (internal/read) wires its own request-shaped collectors inline
// (read.Metrics); this package hosts the ones that don't belong to a
// single service package — write-batch outcomes and validator failure
// counts — grounded on the teacher's HistoryMetrics
// (internal/infrastructure/repository/postgres_history.go).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WriteMetrics holds the collectors internal/write.Service reports to.
type WriteMetrics struct {
	BatchDuration      *prometheus.HistogramVec
	BatchErrors        *prometheus.CounterVec
	BatchSize          *prometheus.HistogramVec
	ValidationFailures *prometheus.CounterVec
}

// NewWriteMetrics registers a fresh set of collectors against the
// default Prometheus registry. Construct one per process.
func NewWriteMetrics() *WriteMetrics {
	return &WriteMetrics{
		BatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_write_batch_duration_seconds",
				Help:    "Duration of writeBatch calls",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"status"},
		),
		BatchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_write_batch_errors_total",
				Help: "Total number of writeBatch call failures, by error kind",
			},
			[]string{"kind"},
		),
		BatchSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_write_batch_ops_total",
				Help:    "Number of operations in a writeBatch call, by slot",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"slot"},
		),
		ValidationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_validation_failures_total",
				Help: "Total number of writeBatch requests rejected by validation, by error kind",
			},
			[]string{"kind"},
		),
	}
}
