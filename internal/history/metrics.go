package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ImportedRecordsTotal tracks statistics rows written per region.
	ImportedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_history_imported_records_total",
			Help: "Total number of market statistics records imported",
		},
		[]string{"region"},
	)

	// RecordsSkippedTotal tracks response entries that were not imported.
	RecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_history_records_skipped_total",
			Help: "Total number of Mokaam records skipped during import",
		},
		[]string{"reason"},
	)

	// ImportFailuresTotal tracks failed region imports.
	ImportFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_history_import_failures_total",
		Help: "Total number of failed region imports",
	})

	// FetchFailuresTotal tracks failed Mokaam requests.
	FetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_history_fetch_failures_total",
		Help: "Total number of failed Mokaam requests",
	})

	// ImportDurationSeconds tracks region import latency.
	ImportDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dominator_history_import_duration_seconds",
		Help:    "Duration of one region statistics import",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
