package domination

import (
	"cmp"
	"math"
	"slices"

	"github.com/karnyvex/dominator/pkg/config"
	"github.com/karnyvex/dominator/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// priceTick is the amount a relisted order undercuts the next seller by.
//
//nolint:gochecknoglobals // constant decimal
var priceTick = decimal.New(1, -2)

// Params are the calculator inputs in ISK and fractions.
type Params struct {
	MaxInvestment    float64 // ISK
	TargetROIPercent float64
	TaxRate          float64 // 0.08 means 8%
}

// ParamsFromConfig converts configured millions and percentages.
func ParamsFromConfig(s config.DominationSettings) Params {
	return Params{
		MaxInvestment:    s.MaxInvestment(),
		TargetROIPercent: s.TargetROIPercent,
		TaxRate:          s.TaxRate(),
	}
}

// scenario is one candidate stopping point of the sweep.
type scenario struct {
	ordersCleared   int
	items           int64
	cost            float64
	targetSellPrice float64
	highestBuyPrice float64
	profit          float64
	roi             float64
}

// Calculator finds the best bounded-budget buy-out of an item's sell orders.
type Calculator struct {
	params Params
	logger *zap.Logger
}

// NewCalculator creates a calculator.
func NewCalculator(params Params, logger *zap.Logger) *Calculator {
	return &Calculator{
		params: params,
		logger: logger,
	}
}

// Evaluate walks the sell orders from cheapest up. Clearing orders 0..i targets a relist
// price one tick under order i+1. When the budget runs out, the affordable part of the
// current order is tried and the sweep stops. The scenario with the highest ROI wins.
// Orders must be sell orders at one venue; the slice is not modified.
func (c *Calculator) Evaluate(typeID types.TypeID, orders []types.Order) (*Opportunity, bool) {
	if len(orders) < 2 {
		OpportunitiesRejectedTotal.WithLabelValues("too_few_orders").Inc()
		return nil, false
	}

	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b types.Order) int {
		return cmp.Compare(a.Price, b.Price)
	})

	var (
		best         *scenario
		runningCost  float64
		runningItems int64
	)

	for i := 0; i < len(sorted)-1; i++ {
		current := sorted[i]
		targetSellPrice := undercut(sorted[i+1].Price)
		orderCost := current.Price * float64(current.VolumeRemain)

		if runningCost+orderCost > c.params.MaxInvestment {
			remainingBudget := c.params.MaxInvestment - runningCost
			partialItems := int64(math.Floor(remainingBudget / current.Price))
			if partialItems > 0 {
				s := c.evaluateScenario(
					i+1,
					runningItems+partialItems,
					runningCost+float64(partialItems)*current.Price,
					targetSellPrice,
					current.Price,
				)
				best = better(best, s)
			}
			break
		}

		runningCost += orderCost
		runningItems += current.VolumeRemain

		s := c.evaluateScenario(i+1, runningItems, runningCost, targetSellPrice, current.Price)
		best = better(best, s)
	}

	if best == nil {
		OpportunitiesRejectedTotal.WithLabelValues("below_target_roi").Inc()
		c.logger.Debug("no-scenario-meets-target-roi",
			zap.Int32("type-id", int32(typeID)),
			zap.Int("order-count", len(orders)))
		return nil, false
	}

	return newOpportunity(typeID, *best), true
}

// evaluateScenario returns nil when the relist price does not reach the ROI floor.
func (c *Calculator) evaluateScenario(ordersCleared int, items int64, cost float64, targetSellPrice float64, highestBuyPrice float64) *scenario {
	if items <= 0 || cost <= 0 {
		return nil
	}

	avgBuyPrice := cost / float64(items)
	minSellPriceForROI := avgBuyPrice * (1 + c.params.TargetROIPercent/100) / (1 - c.params.TaxRate)
	if targetSellPrice < minSellPriceForROI {
		return nil
	}

	grossRevenue := targetSellPrice * float64(items)
	netRevenue := grossRevenue * (1 - c.params.TaxRate)
	profit := netRevenue - cost

	return &scenario{
		ordersCleared:   ordersCleared,
		items:           items,
		cost:            cost,
		targetSellPrice: targetSellPrice,
		highestBuyPrice: highestBuyPrice,
		profit:          profit,
		roi:             profit / cost * 100,
	}
}

// better keeps the current best unless the candidate has a strictly higher ROI.
func better(best *scenario, candidate *scenario) *scenario {
	if candidate == nil {
		return best
	}
	if best == nil || candidate.roi > best.roi {
		return candidate
	}
	return best
}

// undercut returns price minus one tick, rounded to the tick.
func undercut(price float64) float64 {
	return decimal.NewFromFloat(price).Sub(priceTick).Round(2).InexactFloat64()
}
