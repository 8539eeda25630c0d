package domination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OpportunitiesFoundTotal tracks items with a winning buy-out scenario.
	OpportunitiesFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_domination_opportunities_found_total",
		Help: "Total number of domination opportunities found",
	})

	// OpportunitiesRejectedTotal tracks items without an opportunity by reason.
	OpportunitiesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_domination_opportunities_rejected_total",
			Help: "Total number of items rejected during domination analysis",
		},
		[]string{"reason"},
	)

	// OpportunityROIPercent tracks the ROI of found opportunities.
	OpportunityROIPercent = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dominator_domination_opportunity_roi_percent",
		Help:    "ROI percent of domination opportunities",
		Buckets: []float64{5, 10, 20, 30, 50, 75, 100, 200, 500},
	})

	// AnalysisDurationSeconds tracks the duration of one region analysis.
	AnalysisDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dominator_domination_analysis_duration_seconds",
		Help:    "Duration of a domination analysis run",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// ItemsAnalyzedTotal tracks items that entered per-item evaluation.
	ItemsAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_domination_items_analyzed_total",
		Help: "Total number of items evaluated by the domination analyzer",
	})

	// StatisticsErrorsTotal tracks statistics lookups that failed and were treated as missing.
	StatisticsErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_domination_statistics_errors_total",
		Help: "Total number of statistics lookups that failed during domination analysis",
	})

	// NameFallbacksTotal tracks opportunities published with the placeholder name.
	NameFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_domination_name_fallbacks_total",
		Help: "Total number of opportunities whose item name could not be resolved",
	})
)
