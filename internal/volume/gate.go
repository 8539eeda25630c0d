package volume

import (
	"github.com/karnyvex/dominator/pkg/config"
	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
)

// Rejection and acceptance reasons reported by Evaluate.
const (
	ReasonQualified    = "qualified"
	ReasonNoStatistics = "no-statistics"
)

// gatedWindows are the windows checked against thresholds.
//
//nolint:gochecknoglobals // fixed list
var gatedWindows = []types.TimeWindow{types.Monthly, types.Quarterly, types.Yearly}

// Verdict is the outcome of a gate check.
type Verdict struct {
	Qualifies bool
	Reason    string
}

// Gate decides whether an item trades often enough to be worth analysing.
type Gate struct {
	thresholds config.VolumeThresholds
	logger     *zap.Logger
}

// NewGate creates a gate over global thresholds and per-region overrides.
func NewGate(thresholds config.VolumeThresholds, logger *zap.Logger) *Gate {
	regions := make(map[types.RegionID]config.ThresholdOverride, len(thresholds.Regions))
	for region, override := range thresholds.Regions {
		regions[region] = override
	}
	thresholds.Regions = regions

	return &Gate{
		thresholds: thresholds,
		logger:     logger,
	}
}

// Qualifies reports whether the item passes every threshold of its region.
func (g *Gate) Qualifies(typeID types.TypeID, regionID types.RegionID, stats *types.ItemStatistics) bool {
	return g.Evaluate(typeID, regionID, stats).Qualifies
}

// Evaluate checks monthly, quarterly and yearly volume and market size.
// An item without statistics qualifies.
func (g *Gate) Evaluate(typeID types.TypeID, regionID types.RegionID, stats *types.ItemStatistics) Verdict {
	if stats == nil {
		MissingStatisticsTotal.Inc()
		g.logger.Debug("volume-gate-no-statistics",
			zap.Int32("type-id", int32(typeID)),
			zap.Int32("region-id", int32(regionID)))
		return Verdict{Qualifies: true, Reason: ReasonNoStatistics}
	}

	thresholds := g.thresholds.For(regionID)

	for _, window := range gatedWindows {
		minVolume, minMarketSize := thresholds.ForWindow(window)
		ws := stats.Window(window)

		if ws.Volume != nil && *ws.Volume < minVolume {
			return g.reject(typeID, regionID, string(window)+"-volume", float64(*ws.Volume), float64(minVolume))
		}

		if size, ok := ws.MarketSize(); ok && size < minMarketSize {
			return g.reject(typeID, regionID, string(window)+"-market-size", size, minMarketSize)
		}
	}

	return Verdict{Qualifies: true, Reason: ReasonQualified}
}

func (g *Gate) reject(typeID types.TypeID, regionID types.RegionID, reason string, got float64, minimum float64) Verdict {
	RejectionsTotal.WithLabelValues(reason).Inc()
	g.logger.Debug("volume-gate-rejected",
		zap.Int32("type-id", int32(typeID)),
		zap.Int32("region-id", int32(regionID)),
		zap.String("reason", reason),
		zap.Float64("value", got),
		zap.Float64("minimum", minimum))

	return Verdict{Qualifies: false, Reason: reason}
}
