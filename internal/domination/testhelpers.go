package domination

import (
	"time"

	"github.com/karnyvex/dominator/pkg/types"
)

// CreateTestOpportunity creates an opportunity for a Jita item with fixed numbers.
func CreateTestOpportunity(typeID types.TypeID, name string) *Opportunity {
	return &Opportunity{
		ID:                     "test-opp-" + name,
		TypeID:                 typeID,
		ItemName:               name,
		RegionID:               types.RegionTheForge,
		LocationID:             types.LocationID(60003760),
		OrdersCleared:          2,
		ItemsBought:            150,
		TotalInvestment:        1600,
		TargetSellPrice:        19.99,
		HighestBuyPriceCleared: 12,
		ProfitPerItem:          7.7241,
		TotalProfit:            1158.62,
		ROIPercent:             72.41,
		DetectedAt:             time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
