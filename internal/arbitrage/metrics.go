package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ScansTotal tracks completed scans by window.
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_arbitrage_scans_total",
			Help: "Total number of completed arbitrage scans",
		},
		[]string{"window"},
	)

	// ScanDurationSeconds tracks scan latency.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dominator_arbitrage_scan_duration_seconds",
		Help:    "Duration of an arbitrage scan",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// CandidatesCount tracks the size of the last candidate set.
	CandidatesCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dominator_arbitrage_candidates",
		Help: "Number of candidate items in the last arbitrage scan",
	})

	// ResultsFoundTotal tracks arbitrage results found.
	ResultsFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_arbitrage_results_found_total",
		Help: "Total number of arbitrage results found",
	})

	// ItemsRejectedTotal tracks rejected items by reason.
	ItemsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_arbitrage_items_rejected_total",
			Help: "Total number of items rejected by the arbitrage scanner",
		},
		[]string{"reason"},
	)

	// BatchesFailedTotal tracks lost batches by reason.
	BatchesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_arbitrage_batches_failed_total",
			Help: "Total number of arbitrage batches that timed out or failed",
		},
		[]string{"reason"},
	)

	// BatchDurationSeconds tracks per-batch latency.
	BatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dominator_arbitrage_batch_duration_seconds",
		Help:    "Duration of one arbitrage batch",
		Buckets: prometheus.DefBuckets,
	})

	// PriceDifferencePercent tracks the gap of found results.
	PriceDifferencePercent = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dominator_arbitrage_price_difference_percent",
		Help:    "Price difference percent of arbitrage results",
		Buckets: []float64{5, 10, 20, 30, 50, 100, 200, 500, 1000},
	})
)
