package history

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/karnyvex/dominator/pkg/types"
)

const dateLayout = "2006-01-02"

// ParseSummary counts what happened to the records of one response.
type ParseSummary struct {
	Records        int `json:"records"`
	Parsed         int `json:"parsed"`
	SkippedNoData  int `json:"skipped_no_data"`
	SkippedInvalid int `json:"skipped_invalid"`
}

// record is one item entry; values are decoded lazily because Mokaam mixes
// numbers, numeric strings and nulls.
type record map[string]json.RawMessage

// ParseStatistics decodes a region response, an object keyed by type ID.
// Entries without usable data or with a bad date are skipped and counted.
// Results are ordered by type ID.
func ParseStatistics(data []byte, regionID types.RegionID) ([]types.ItemStatistics, ParseSummary, error) {
	var summary ParseSummary

	var root map[string]json.RawMessage
	err := json.Unmarshal(data, &root)
	if err != nil {
		return nil, summary, fmt.Errorf("unmarshal region statistics: %w", err)
	}

	stats := make([]types.ItemStatistics, 0, len(root))
	for key, raw := range root {
		summary.Records++

		var rec record
		err = json.Unmarshal(raw, &rec)
		if err != nil {
			summary.SkippedInvalid++
			continue
		}

		lastData := rec.textValue("last_data")
		if lastData == "" || lastData == "ERROR: 404" || lastData == "Null" {
			summary.SkippedNoData++
			continue
		}

		date, err := time.Parse(dateLayout, lastData)
		if err != nil {
			summary.SkippedInvalid++
			continue
		}

		typeID, ok := rec.typeID(key)
		if !ok {
			summary.SkippedInvalid++
			continue
		}

		stats = append(stats, types.ItemStatistics{
			TypeID:   typeID,
			RegionID: regionID,
			Date:     date,
			Yesterday: types.DayStats{
				AvgPrice:   rec.floatValue("avg_price_yesterday"),
				High:       rec.floatValue("high_yesterday"),
				Low:        rec.floatValue("low_yesterday"),
				Volume:     rec.int64Value("vol_yesterday"),
				OrderCount: rec.int32Value("order_count_yesterday"),
				Size:       rec.floatValue("size_yesterday"),
			},
			Week:       rec.window("week"),
			Month:      rec.window("month"),
			Quarter:    rec.window("quarter"),
			Year:       rec.window("year"),
			High52Week: rec.floatValue("_52w_high"),
			Low52Week:  rec.floatValue("_52w_low"),
		})
		summary.Parsed++
	}

	slices.SortFunc(stats, func(a, b types.ItemStatistics) int {
		return cmp.Compare(a.TypeID, b.TypeID)
	})

	return stats, summary, nil
}

// ParseTypeNames decodes the type ID table, {"<id>": {"name": "..."}}.
// Entries with a bad ID or no name are skipped.
func ParseTypeNames(data []byte) ([]types.ItemName, error) {
	var root map[string]struct {
		Name string `json:"name"`
	}
	err := json.Unmarshal(data, &root)
	if err != nil {
		return nil, fmt.Errorf("unmarshal type names: %w", err)
	}

	names := make([]types.ItemName, 0, len(root))
	for key, entry := range root {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 32)
		if err != nil || id <= 0 {
			continue
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		names = append(names, types.ItemName{TypeID: types.TypeID(id), Name: name})
	}

	slices.SortFunc(names, func(a, b types.ItemName) int {
		return cmp.Compare(a.TypeID, b.TypeID)
	})

	return names, nil
}

func (r record) window(suffix string) types.WindowStats {
	return types.WindowStats{
		Volume:     r.int64Value("vol_" + suffix),
		AvgPrice:   r.floatValue("avg_price_" + suffix),
		OrderCount: r.int32Value("order_count_" + suffix),
		High:       r.floatValue("high_" + suffix),
		Low:        r.floatValue("low_" + suffix),
		Spread:     r.floatValue("spread_" + suffix),
		VWAP:       r.floatValue("vwap_" + suffix),
		StdDev:     r.floatValue("std_dev_" + suffix),
		Size:       r.floatValue("size_" + suffix),
	}
}

// typeID reads the typeid field, falling back to the object key.
func (r record) typeID(key string) (types.TypeID, bool) {
	if v := r.int64Value("typeid"); v != nil && *v > 0 && *v <= math.MaxInt32 {
		return types.TypeID(*v), true
	}

	id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return types.TypeID(id), true
}

func (r record) textValue(name string) string {
	raw, ok := r[name]
	if !ok {
		return ""
	}

	var s string
	err := json.Unmarshal(raw, &s)
	if err != nil {
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(s)
}

// floatValue returns nil for missing, null, non-numeric and non-finite values.
func (r record) floatValue(name string) *float64 {
	raw, ok := r[name]
	if !ok {
		return nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	v, err := strconv.ParseFloat(strings.Trim(string(raw), `"`), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (r record) int64Value(name string) *int64 {
	f := r.floatValue(name)
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

func (r record) int32Value(name string) *int32 {
	f := r.floatValue(name)
	if f == nil || *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil
	}
	v := int32(*f)
	return &v
}
