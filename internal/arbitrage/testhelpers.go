package arbitrage

import (
	"time"

	"github.com/karnyvex/dominator/pkg/types"
)

// CreateTestReport creates a weekly report with one Jita to Amarr result.
func CreateTestReport() *ScanReport {
	return &ScanReport{
		ID:     "test-scan",
		Window: types.Weekly,
		Results: []*Result{
			{
				TypeID:                 34,
				ItemName:               "Tritanium",
				LowRegion:              types.RegionTheForge,
				LowRegionName:          types.RegionName(types.RegionTheForge),
				LowPrice:               100,
				LowMarketSize:          50_000_000,
				HighRegion:             types.RegionDomain,
				HighRegionName:         types.RegionName(types.RegionDomain),
				HighPrice:              130,
				HighMarketSize:         1_300,
				PriceDifferencePercent: 30,
			},
		},
		TotalBatches: 1,
		Candidates:   1,
		StartedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
	}
}
