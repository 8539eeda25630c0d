package npc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OrdersFlaggedTotal counts orders scored as NPC orders.
	OrdersFlaggedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_npc_orders_flagged_total",
		Help: "Total number of orders flagged as NPC orders",
	})

	// ItemsRejectedTotal counts items skipped because their order book contained NPC orders.
	ItemsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dominator_npc_items_rejected_total",
		Help: "Total number of items rejected because of NPC orders",
	})
)
