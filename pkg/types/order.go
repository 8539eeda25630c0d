package types

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TypeID identifies an item type.
type TypeID int32

// RegionID identifies a market region.
type RegionID int32

// LocationID identifies a station or structure.
type LocationID int64

// Order is one standing market order as returned by the ESI region order book.
type Order struct {
	OrderID      int64         `json:"order_id"`
	TypeID       TypeID        `json:"type_id"`
	LocationID   LocationID    `json:"location_id"`
	SystemID     int32         `json:"system_id"`
	VolumeTotal  int64         `json:"volume_total"`
	VolumeRemain int64         `json:"volume_remain"`
	MinVolume    int64         `json:"min_volume"`
	Price        float64       `json:"price"`
	IsBuyOrder   bool          `json:"is_buy_order"`
	Duration     OrderDuration `json:"duration"`
	Issued       time.Time     `json:"issued"`
	Range        string        `json:"range"`
}

// IsSell reports whether the order is a sell order.
func (o Order) IsSell() bool {
	return !o.IsBuyOrder
}

// OrderDuration is the stated lifetime of an order in days.
// It is kept raw because upstream feeds send it as a number or as a string.
type OrderDuration string

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (d *OrderDuration) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*d = ""
		return nil
	}

	*d = OrderDuration(strings.Trim(string(raw), `"`))
	return nil
}

// MarshalJSON writes numeric durations as numbers and anything else as a string.
func (d OrderDuration) MarshalJSON() ([]byte, error) {
	if days, err := d.Days(); err == nil {
		return []byte(strconv.Itoa(days)), nil
	}
	return []byte(strconv.Quote(string(d))), nil
}

// Days parses the duration. Empty or non-numeric values return an error.
func (d OrderDuration) Days() (int, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return 0, fmt.Errorf("empty order duration")
	}

	days, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse order duration %q: %w", s, err)
	}

	return days, nil
}

// DurationDays is a convenience constructor used by fixtures and decoders.
func DurationDays(days int) OrderDuration {
	return OrderDuration(strconv.Itoa(days))
}
