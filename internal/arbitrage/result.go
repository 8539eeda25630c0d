package arbitrage

import (
	"fmt"
	"time"

	"github.com/karnyvex/dominator/pkg/types"
)

// Result is a price gap for one item between its cheapest and most expensive region.
// HighPrice >= LowPrice always holds.
type Result struct {
	TypeID                 types.TypeID   `json:"type_id"`
	ItemName               string         `json:"item_name"`
	LowRegion              types.RegionID `json:"low_region"`
	LowRegionName          string         `json:"low_region_name"`
	LowPrice               float64        `json:"low_price"`
	LowMarketSize          float64        `json:"low_market_size"`
	HighRegion             types.RegionID `json:"high_region"`
	HighRegionName         string         `json:"high_region_name"`
	HighPrice              float64        `json:"high_price"`
	HighMarketSize         float64        `json:"high_market_size"`
	PriceDifferencePercent float64        `json:"price_difference_percent"`
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	return fmt.Sprintf("Arbitrage[%d %s] %s %.2f -> %s %.2f (%.2f%%)",
		r.TypeID,
		r.ItemName,
		r.LowRegionName,
		r.LowPrice,
		r.HighRegionName,
		r.HighPrice,
		r.PriceDifferencePercent,
	)
}

// ScanReport is the outcome of one scan. Results from failed batches are missing,
// so FailedBatches > 0 means the result list is partial.
type ScanReport struct {
	ID            string           `json:"id"`
	Window        types.TimeWindow `json:"window"`
	Results       []*Result        `json:"results"`
	FailedBatches int              `json:"failed_batches"`
	TotalBatches  int              `json:"total_batches"`
	Candidates    int              `json:"candidates"`
	StartedAt     time.Time        `json:"started_at"`
	Duration      time.Duration    `json:"duration"`
}

// Partial reports whether any batch was lost.
func (r *ScanReport) Partial() bool {
	return r.FailedBatches > 0
}
