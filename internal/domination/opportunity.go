package domination

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/karnyvex/dominator/pkg/types"
)

// Opportunity is the best buy-out scenario found for one item at one venue.
// Every field except ItemName is fixed when the calculator builds it.
type Opportunity struct {
	ID                     string           `json:"id"`
	TypeID                 types.TypeID     `json:"type_id"`
	ItemName               string           `json:"item_name"`
	RegionID               types.RegionID   `json:"region_id"`
	LocationID             types.LocationID `json:"location_id"`
	OrdersCleared          int              `json:"orders_cleared"`
	ItemsBought            int64            `json:"items_bought"`
	TotalInvestment        float64          `json:"total_investment"`
	TargetSellPrice        float64          `json:"target_sell_price"`
	HighestBuyPriceCleared float64          `json:"highest_buy_price_cleared"`
	ProfitPerItem          float64          `json:"profit_per_item"`
	TotalProfit            float64          `json:"total_profit"`
	ROIPercent             float64          `json:"roi_percent"`
	DetectedAt             time.Time        `json:"detected_at"`
}

// newOpportunity creates an opportunity from a winning scenario.
// The name starts as the unknown-item placeholder and is filled in later.
func newOpportunity(typeID types.TypeID, s scenario) *Opportunity {
	return &Opportunity{
		ID:                     uuid.New().String(),
		TypeID:                 typeID,
		ItemName:               types.UnknownItemName,
		OrdersCleared:          s.ordersCleared,
		ItemsBought:            s.items,
		TotalInvestment:        s.cost,
		TargetSellPrice:        s.targetSellPrice,
		HighestBuyPriceCleared: s.highestBuyPrice,
		ProfitPerItem:          s.profit / float64(s.items),
		TotalProfit:            s.profit,
		ROIPercent:             s.roi,
		DetectedAt:             time.Now(),
	}
}

// String returns a human-readable representation of the opportunity.
func (o *Opportunity) String() string {
	return fmt.Sprintf(
		"Opportunity[%s] Item=%d (%s) Cleared=%d Items=%d Invest=%.2f Sell=%.2f Profit=%.2f ROI=%.2f%%",
		o.ID[:8],
		o.TypeID,
		o.ItemName,
		o.OrdersCleared,
		o.ItemsBought,
		o.TotalInvestment,
		o.TargetSellPrice,
		o.TotalProfit,
		o.ROIPercent,
	)
}
