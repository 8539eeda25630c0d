package names

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// LookupsTotal tracks name lookups by the tier that answered.
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_names_lookups_total",
			Help: "Total number of item name lookups by source",
		},
		[]string{"source"},
	)
)
