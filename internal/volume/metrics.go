package volume

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RejectionsTotal counts items failing a volume or market size threshold.
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dominator_volume_gate_rejections_total",
			Help: "Total number of items rejected by the volume gate",
		},
		[]string{"reason"},
	)

	// MissingStatisticsTotal counts items passed through because no statistics exist.
	MissingStatisticsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_volume_gate_missing_statistics_total",
		Help: "Total number of items admitted without historical statistics",
	})
)
