package testutil

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/karnyvex/dominator/pkg/types"
)

// JitaStation is the Jita 4-4 trade hub.
const JitaStation = types.LocationID(60003760)

// CreateTestOrder creates a player sell order at location.
func CreateTestOrder(typeID types.TypeID, location types.LocationID, price float64, volume int64) types.Order {
	return types.Order{
		OrderID:      int64(typeID)*100_000 + int64(price*100),
		TypeID:       typeID,
		LocationID:   location,
		SystemID:     30000142,
		VolumeTotal:  volume,
		VolumeRemain: volume,
		MinVolume:    1,
		Price:        price,
		Duration:     "90",
		Issued:       time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Range:        "region",
	}
}

// CreateLadderOrders creates the 10/12/20 ISK sell ladder. With a 2000 ISK budget,
// 20% target ROI and 8% tax the best buy-out clears the first two orders.
func CreateLadderOrders(typeID types.TypeID, location types.LocationID) []types.Order {
	return []types.Order{
		CreateTestOrder(typeID, location, 10, 100),
		CreateTestOrder(typeID, location, 12, 50),
		CreateTestOrder(typeID, location, 20, 10),
	}
}

// CreateNPCOrder creates a long-lived seeded sell order.
func CreateNPCOrder(typeID types.TypeID, location types.LocationID, price float64) types.Order {
	order := CreateTestOrder(typeID, location, price, 1_000_000)
	order.Duration = "365"
	return order
}

// MokaamItem is the subset of a Mokaam record the fixtures fill in.
type MokaamItem struct {
	LastData    string
	VolumeWeek  int64
	VWAPWeek    float64
	VolumeMonth int64
	AvgMonth    float64
}

// CreateMokaamRegion encodes items the way /API/market/all returns them.
func CreateMokaamRegion(items map[types.TypeID]MokaamItem) []byte {
	root := make(map[string]map[string]any, len(items))
	for typeID, item := range items {
		root[strconv.Itoa(int(typeID))] = map[string]any{
			"typeid":          int32(typeID),
			"last_data":       item.LastData,
			"vol_week":        item.VolumeWeek,
			"vwap_week":       item.VWAPWeek,
			"avg_price_week":  item.VWAPWeek,
			"vol_month":       item.VolumeMonth,
			"avg_price_month": item.AvgMonth,
		}
	}

	data, err := json.Marshal(root)
	if err != nil {
		panic(err)
	}
	return data
}

// CreateMokaamTypeNames encodes names the way /API/market/type_ids returns them.
func CreateMokaamTypeNames(names map[types.TypeID]string) []byte {
	root := make(map[string]map[string]string, len(names))
	for typeID, name := range names {
		root[strconv.Itoa(int(typeID))] = map[string]string{"name": name}
	}

	data, err := json.Marshal(root)
	if err != nil {
		panic(err)
	}
	return data
}
