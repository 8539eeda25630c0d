package types

import (
	"fmt"
	"strings"
	"time"
)

// TimeWindow selects one of the historical aggregation windows.
type TimeWindow string

const (
	Weekly    TimeWindow = "weekly"
	Monthly   TimeWindow = "monthly"
	Quarterly TimeWindow = "quarterly"
	Yearly    TimeWindow = "yearly"
)

// TimeWindows lists every supported window, shortest first.
var TimeWindows = []TimeWindow{Weekly, Monthly, Quarterly, Yearly} //nolint:gochecknoglobals // fixed enum

// ParseTimeWindow parses a window name, case-insensitively.
func ParseTimeWindow(s string) (TimeWindow, error) {
	w := TimeWindow(strings.ToLower(strings.TrimSpace(s)))
	switch w {
	case Weekly, Monthly, Quarterly, Yearly:
		return w, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeWindow, s)
}

// WindowStats holds the aggregates for one historical window.
// Nil fields mean the upstream feed had no value.
type WindowStats struct {
	Volume     *int64   `json:"volume,omitempty"`
	AvgPrice   *float64 `json:"avg_price,omitempty"`
	OrderCount *int32   `json:"order_count,omitempty"`
	High       *float64 `json:"high,omitempty"`
	Low        *float64 `json:"low,omitempty"`
	Spread     *float64 `json:"spread,omitempty"`
	VWAP       *float64 `json:"vwap,omitempty"`
	StdDev     *float64 `json:"std_dev,omitempty"`
	Size       *float64 `json:"size,omitempty"`
}

// MarketSize is volume times average price, or false when either is missing.
func (w WindowStats) MarketSize() (float64, bool) {
	if w.Volume == nil || w.AvgPrice == nil {
		return 0, false
	}
	return float64(*w.Volume) * *w.AvgPrice, true
}

// DayStats holds the previous day's aggregates.
type DayStats struct {
	AvgPrice   *float64 `json:"avg_price,omitempty"`
	High       *float64 `json:"high,omitempty"`
	Low        *float64 `json:"low,omitempty"`
	Volume     *int64   `json:"volume,omitempty"`
	OrderCount *int32   `json:"order_count,omitempty"`
	Size       *float64 `json:"size,omitempty"`
}

// ItemStatistics is the historical aggregate for one item in one region on one date.
type ItemStatistics struct {
	TypeID     TypeID      `json:"type_id"`
	RegionID   RegionID    `json:"region_id"`
	Date       time.Time   `json:"date"`
	Yesterday  DayStats    `json:"yesterday"`
	Week       WindowStats `json:"week"`
	Month      WindowStats `json:"month"`
	Quarter    WindowStats `json:"quarter"`
	Year       WindowStats `json:"year"`
	High52Week *float64    `json:"high_52w,omitempty"`
	Low52Week  *float64    `json:"low_52w,omitempty"`
}

// Window returns the aggregates for w. Unknown windows yield the weekly figures.
func (s *ItemStatistics) Window(w TimeWindow) WindowStats {
	switch w {
	case Monthly:
		return s.Month
	case Quarterly:
		return s.Quarter
	case Yearly:
		return s.Year
	default:
		return s.Week
	}
}

// UnknownItemName is shown when an item's name cannot be resolved.
const UnknownItemName = "Unknown Item"

// ItemName maps a type ID to its display name.
type ItemName struct {
	TypeID TypeID `json:"type_id"`
	Name   string `json:"name"`
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Int32 returns a pointer to v.
func Int32(v int32) *int32 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
