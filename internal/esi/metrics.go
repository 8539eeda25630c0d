package esi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RequestsTotal tracks ESI requests by status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_esi_requests_total",
			Help: "Total number of ESI requests by status",
		},
		[]string{"status"},
	)

	// FetchDurationSeconds tracks multi-page fetch latency.
	FetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dominator_esi_fetch_duration_seconds",
			Help:    "Duration of ESI fetches",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"operation"},
	)

	// RegionOrdersFetched tracks orders returned by region order fetches.
	RegionOrdersFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_esi_region_orders_fetched_total",
		Help: "Total number of market orders fetched from ESI",
	})

	// MalformedRecordsTotal tracks order records that could not be decoded.
	MalformedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_esi_malformed_records_total",
		Help: "Total number of ESI order records skipped as malformed",
	})
)
