package npc

import (
	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
)

// MaxPlayerOrderDays is the longest duration a player can give a market order.
const MaxPlayerOrderDays = 90

// Scorer rates how likely an order is to have been seeded by an NPC, from 0 to 1.
type Scorer interface {
	Score(order types.Order) float64
}

// DurationScorer flags orders that outlive anything a player could place.
type DurationScorer struct{}

// Score returns 1 when the order duration exceeds MaxPlayerOrderDays, 0 otherwise.
// Missing or unparseable durations score 0.
func (DurationScorer) Score(order types.Order) float64 {
	days, err := order.Duration.Days()
	if err != nil {
		return 0
	}

	if days > MaxPlayerOrderDays {
		return 1
	}

	return 0
}

// Filter removes NPC orders from an order set.
type Filter struct {
	scorer Scorer
	logger *zap.Logger
}

// NewFilter creates a filter. A nil scorer means DurationScorer.
func NewFilter(scorer Scorer, logger *zap.Logger) *Filter {
	if scorer == nil {
		scorer = DurationScorer{}
	}

	return &Filter{
		scorer: scorer,
		logger: logger,
	}
}

// Score delegates to the configured scorer.
func (f *Filter) Score(order types.Order) float64 {
	return f.scorer.Score(order)
}

// Apply returns the orders scoring below threshold and how many were removed.
// The input slice is not modified.
func (f *Filter) Apply(orders []types.Order, threshold float64) ([]types.Order, int) {
	kept := make([]types.Order, 0, len(orders))

	for _, order := range orders {
		score := f.scorer.Score(order)
		if score >= threshold {
			OrdersFlaggedTotal.Inc()
			f.logger.Debug("npc-order-flagged",
				zap.Int64("order-id", order.OrderID),
				zap.Int32("type-id", int32(order.TypeID)),
				zap.String("duration", string(order.Duration)),
				zap.Float64("score", score))
			continue
		}
		kept = append(kept, order)
	}

	return kept, len(orders) - len(kept)
}

// Rejects reports whether an item must be skipped because its order set contains
// at least one NPC order. A market with NPC supply cannot be bought out.
func (f *Filter) Rejects(orders []types.Order, threshold float64) bool {
	_, removed := f.Apply(orders, threshold)
	if removed > 0 {
		ItemsRejectedTotal.Inc()
		return true
	}
	return false
}
