package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// StoreOperationDurationSeconds tracks SQL store latency by operation.
	StoreOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dominator_storage_operation_duration_seconds",
			Help:    "Duration of SQL store operations",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"operation"},
	)

	// StoreErrorsTotal counts failed SQL store operations.
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_storage_errors_total",
			Help: "Total number of failed SQL store operations",
		},
		[]string{"operation"},
	)
)
