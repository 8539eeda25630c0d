package config

import "github.com/karnyvex/dominator/pkg/types"

// Thresholds are the minimum historical activity an item needs before it is analysed.
// Market sizes are in millions of ISK.
type Thresholds struct {
	MinVolumeMonth               int64   `validate:"gte=0"`
	MinVolumeQuarter             int64   `validate:"gte=0"`
	MinVolumeYear                int64   `validate:"gte=0"`
	MinMarketSizeMonthMillions   float64 `validate:"gte=0"`
	MinMarketSizeQuarterMillions float64 `validate:"gte=0"`
	MinMarketSizeYearMillions    float64 `validate:"gte=0"`
}

// ForWindow returns the minimum volume and the minimum market size in ISK for a window.
// Weekly has no thresholds.
func (t Thresholds) ForWindow(w types.TimeWindow) (minVolume int64, minMarketSizeISK float64) {
	switch w {
	case types.Monthly:
		return t.MinVolumeMonth, t.MinMarketSizeMonthMillions * 1_000_000
	case types.Quarterly:
		return t.MinVolumeQuarter, t.MinMarketSizeQuarterMillions * 1_000_000
	case types.Yearly:
		return t.MinVolumeYear, t.MinMarketSizeYearMillions * 1_000_000
	default:
		return 0, 0
	}
}

// ThresholdOverride replaces individual global thresholds for one region.
// Nil fields fall back to the global value.
type ThresholdOverride struct {
	MinVolumeMonth               *int64   `toml:"min_volume_month"`
	MinVolumeQuarter             *int64   `toml:"min_volume_quarter"`
	MinVolumeYear                *int64   `toml:"min_volume_year"`
	MinMarketSizeMonthMillions   *float64 `toml:"min_market_size_month_millions"`
	MinMarketSizeQuarterMillions *float64 `toml:"min_market_size_quarter_millions"`
	MinMarketSizeYearMillions    *float64 `toml:"min_market_size_year_millions"`
}

// VolumeThresholds holds the global thresholds and the per-region overrides.
type VolumeThresholds struct {
	Global  Thresholds
	Regions map[types.RegionID]ThresholdOverride
}

// For resolves the effective thresholds of a region, field by field.
func (v VolumeThresholds) For(region types.RegionID) Thresholds {
	override, ok := v.Regions[region]
	if !ok {
		return v.Global
	}
	return override.apply(v.Global)
}

func (override ThresholdOverride) apply(base Thresholds) Thresholds {
	resolved := base
	resolved.MinVolumeMonth = pick(override.MinVolumeMonth, resolved.MinVolumeMonth)
	resolved.MinVolumeQuarter = pick(override.MinVolumeQuarter, resolved.MinVolumeQuarter)
	resolved.MinVolumeYear = pick(override.MinVolumeYear, resolved.MinVolumeYear)
	resolved.MinMarketSizeMonthMillions = pick(override.MinMarketSizeMonthMillions, resolved.MinMarketSizeMonthMillions)
	resolved.MinMarketSizeQuarterMillions = pick(override.MinMarketSizeQuarterMillions, resolved.MinMarketSizeQuarterMillions)
	resolved.MinMarketSizeYearMillions = pick(override.MinMarketSizeYearMillions, resolved.MinMarketSizeYearMillions)

	return resolved
}

func pick[T any](override *T, fallback T) T {
	if override != nil {
		return *override
	}
	return fallback
}
