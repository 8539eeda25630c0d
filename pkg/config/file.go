package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/karnyvex/dominator/pkg/types"
)

// fileConfig is the TOML overlay. Map keys are region IDs written as strings.
type fileConfig struct {
	Regions       []int32          `toml:"regions"`
	ImportRegions []int32          `toml:"import_regions"`
	Stations      map[string]int64 `toml:"stations"`
	Volume        struct {
		Global  ThresholdOverride            `toml:"global"`
		Regions map[string]ThresholdOverride `toml:"regions"`
	} `toml:"volume"`
}

// applyFile overlays the values present in a TOML file onto cfg.
func applyFile(cfg *Config, path string) error {
	var fc fileConfig

	_, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if len(fc.Regions) > 0 {
		cfg.Regions = toRegionIDs(fc.Regions)
	}

	if len(fc.ImportRegions) > 0 {
		cfg.ImportRegions = toRegionIDs(fc.ImportRegions)
	}

	for key, station := range fc.Stations {
		region, err := parseRegionID(key)
		if err != nil {
			return fmt.Errorf("stations: %w", err)
		}
		cfg.Stations[region] = types.LocationID(station)
	}

	// A global block in the file replaces the env-derived values it names.
	cfg.Volume.Global = fc.Volume.Global.apply(cfg.Volume.Global)

	for key, override := range fc.Volume.Regions {
		region, err := parseRegionID(key)
		if err != nil {
			return fmt.Errorf("volume regions: %w", err)
		}
		cfg.Volume.Regions[region] = override
	}

	return nil
}

func toRegionIDs(ids []int32) []types.RegionID {
	regions := make([]types.RegionID, len(ids))
	for i, id := range ids {
		regions[i] = types.RegionID(id)
	}
	return regions
}

// FormatRegions renders region IDs the way REGIONS and IMPORT_REGIONS expect them.
func FormatRegions(regions []types.RegionID) string {
	parts := make([]string, len(regions))
	for i, region := range regions {
		parts[i] = strconv.FormatInt(int64(region), 10)
	}
	return strings.Join(parts, ",")
}
