package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/karnyvex/dominator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "https://esi.evetech.net/latest", cfg.ESIBaseURL)
	assert.Equal(t, 100, cfg.ESIMaxPages)
	assert.Equal(t, []types.RegionID{types.RegionTheForge}, cfg.Regions)
	assert.Equal(t, types.TradeHubs(), cfg.ImportRegions)

	assert.InDelta(t, 1000.0, cfg.Domination.MaxInvestmentMillions, 1e-9)
	assert.InDelta(t, 1e9, cfg.Domination.MaxInvestment(), 1e-3)
	assert.InDelta(t, 0.08, cfg.Domination.TaxRate(), 1e-12)
	assert.True(t, cfg.Domination.NPCFilterEnabled)
	assert.Equal(t, 10, cfg.Domination.MaxConcurrency)

	assert.Equal(t, 30*time.Second, cfg.Arbitrage.BatchTimeout)
	assert.Equal(t, 5000, cfg.Arbitrage.CandidateLimit)
	assert.Equal(t, DefaultWorkerPoolSize(), cfg.Arbitrage.WorkerPoolSize)
	assert.GreaterOrEqual(t, cfg.Arbitrage.WorkerPoolSize, 4)

	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "console", cfg.ResultsMode)
	assert.Equal(t, "memory", cfg.CacheMode)

	station, ok := cfg.Station(types.RegionTheForge)
	assert.True(t, ok)
	assert.Equal(t, types.LocationID(60003760), station)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("REGIONS", "10000043, 10000032")
	t.Setenv("IMPORT_REGIONS", "10000002,10000043")
	t.Setenv("DOMINATION_MAX_INVESTMENT_MILLIONS", "250")
	t.Setenv("DOMINATION_TAX_PERCENT", "3.6")
	t.Setenv("DOMINATION_NPC_FILTER_ENABLED", "false")
	t.Setenv("VOLUME_MIN_MONTH", "1500")
	t.Setenv("ARBITRAGE_BATCH_TIMEOUT", "5s")
	t.Setenv("ARBITRAGE_WORKER_POOL_SIZE", "3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []types.RegionID{types.RegionDomain, types.RegionSinqLaison}, cfg.Regions)
	assert.Equal(t, []types.RegionID{types.RegionTheForge, types.RegionDomain}, cfg.ImportRegions)
	assert.InDelta(t, 250e6, cfg.Domination.MaxInvestment(), 1e-3)
	assert.InDelta(t, 0.036, cfg.Domination.TaxRate(), 1e-12)
	assert.False(t, cfg.Domination.NPCFilterEnabled)
	assert.Equal(t, int64(1500), cfg.Volume.Global.MinVolumeMonth)
	assert.Equal(t, 5*time.Second, cfg.Arbitrage.BatchTimeout)
	assert.Equal(t, 3, cfg.Arbitrage.WorkerPoolSize)
}

func TestLoadFromEnv_Stations(t *testing.T) {
	t.Setenv("REGIONS", "10000002")
	t.Setenv("STATIONS", "10000002:1035466617946")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	station, ok := cfg.Station(types.RegionTheForge)
	require.True(t, ok)
	assert.Equal(t, types.LocationID(1035466617946), station)
}

func TestLoadFromEnv_MissingStation(t *testing.T) {
	t.Setenv("REGIONS", "10000001")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no station configured for region 10000001")
}

func TestLoadFromEnv_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dominator.toml")
	content := `
regions = [10000043]
import_regions = [10000002, 10000043, 10000030]

[stations]
"10000043" = 60008494

[volume.global]
min_volume_month = 200
min_market_size_year_millions = 50.0

[volume.regions."10000043"]
min_volume_month = 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DOMINATOR_CONFIG_FILE", path)
	t.Setenv("VOLUME_MIN_QUARTER", "700")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []types.RegionID{types.RegionDomain}, cfg.Regions)
	assert.Len(t, cfg.ImportRegions, 3)

	assert.Equal(t, int64(200), cfg.Volume.Global.MinVolumeMonth)
	assert.Equal(t, int64(700), cfg.Volume.Global.MinVolumeQuarter, "env value kept when the file is silent")
	assert.InDelta(t, 50.0, cfg.Volume.Global.MinMarketSizeYearMillions, 1e-9)

	amarr := cfg.Volume.For(types.RegionDomain)
	assert.Equal(t, int64(20), amarr.MinVolumeMonth)
	assert.Equal(t, int64(700), amarr.MinVolumeQuarter)

	jita := cfg.Volume.For(types.RegionTheForge)
	assert.Equal(t, int64(200), jita.MinVolumeMonth)
}

func TestLoadFromEnv_ConfigFileMissing(t *testing.T) {
	t.Setenv("DOMINATOR_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply config file")
}

func TestVolumeThresholds_For(t *testing.T) {
	month := int64(10)
	size := 2.5

	thresholds := VolumeThresholds{
		Global: Thresholds{
			MinVolumeMonth:             100,
			MinVolumeQuarter:           300,
			MinVolumeYear:              1200,
			MinMarketSizeMonthMillions: 10,
		},
		Regions: map[types.RegionID]ThresholdOverride{
			types.RegionHeimatar: {MinVolumeMonth: &month, MinMarketSizeMonthMillions: &size},
		},
	}

	tests := []struct {
		name      string
		region    types.RegionID
		wantMonth int64
		wantYear  int64
		wantSize  float64
	}{
		{name: "override-wins", region: types.RegionHeimatar, wantMonth: 10, wantYear: 1200, wantSize: 2.5},
		{name: "no-override-falls-back", region: types.RegionTheForge, wantMonth: 100, wantYear: 1200, wantSize: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := thresholds.For(tt.region)
			assert.Equal(t, tt.wantMonth, got.MinVolumeMonth)
			assert.Equal(t, tt.wantYear, got.MinVolumeYear)
			assert.InDelta(t, tt.wantSize, got.MinMarketSizeMonthMillions, 1e-9)
		})
	}
}

func TestThresholds_ForWindow(t *testing.T) {
	th := Thresholds{
		MinVolumeMonth:               1,
		MinVolumeQuarter:             2,
		MinVolumeYear:                3,
		MinMarketSizeMonthMillions:   1.5,
		MinMarketSizeQuarterMillions: 2.5,
		MinMarketSizeYearMillions:    3.5,
	}

	vol, size := th.ForWindow(types.Monthly)
	assert.Equal(t, int64(1), vol)
	assert.InDelta(t, 1.5e6, size, 1e-6)

	vol, size = th.ForWindow(types.Quarterly)
	assert.Equal(t, int64(2), vol)
	assert.InDelta(t, 2.5e6, size, 1e-6)

	vol, size = th.ForWindow(types.Yearly)
	assert.Equal(t, int64(3), vol)
	assert.InDelta(t, 3.5e6, size, 1e-6)

	vol, size = th.ForWindow(types.Weekly)
	assert.Zero(t, vol)
	assert.Zero(t, size)
}

func TestGetOrDefaultHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_FLOAT", "1.25")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BAD_REGIONS", "10000002,jita")

	assert.Equal(t, 42, getIntOrDefault("TEST_INT", 1))
	assert.Equal(t, 1, getIntOrDefault("TEST_BAD_INT", 1))
	assert.Equal(t, int64(42), getInt64OrDefault("TEST_INT", 1))
	assert.InDelta(t, 1.25, getFloat64OrDefault("TEST_FLOAT", 0), 1e-12)
	assert.True(t, getBoolOrDefault("TEST_BOOL", false))
	assert.Equal(t, 90*time.Second, getDurationOrDefault("TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnvOrDefault("TEST_UNSET_KEY", "fallback"))

	fallback := []types.RegionID{types.RegionTheForge}
	assert.Equal(t, fallback, getRegionsOrDefault("TEST_BAD_REGIONS", fallback))
}

func TestFormatRegions(t *testing.T) {
	assert.Equal(t, "10000002,10000043", FormatRegions([]types.RegionID{types.RegionTheForge, types.RegionDomain}))
	assert.Equal(t, "", FormatRegions(nil))
}
