package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/karnyvex/dominator/pkg/types"
)

// Config holds all application configuration.
// It is built once by LoadFromEnv and treated as read-only afterwards.
type Config struct {
	// Application
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
	HTTPPort  string `validate:"required,numeric"`

	// ESI
	ESIBaseURL           string  `validate:"required,url"`
	ESIUserAgent         string  `validate:"required"`
	ESIRequestsPerSecond float64 `validate:"gt=0"`
	ESIMaxPages          int     `validate:"gte=1"`

	// Mokaam
	MokaamBaseURL   string        `validate:"required,url"`
	MokaamUserAgent string        `validate:"required"`
	MokaamTimeout   time.Duration `validate:"gt=0"`

	// Regions
	Regions       []types.RegionID `validate:"min=1"` // domination analysis targets
	ImportRegions []types.RegionID `validate:"min=1"` // statistics import and arbitrage scanning
	Stations      map[types.RegionID]types.LocationID

	// Analysis
	Domination DominationSettings
	Volume     VolumeThresholds
	Arbitrage  ArbitrageSettings

	// Storage
	StoreDriver  string `validate:"oneof=sqlite postgres"`
	SQLitePath   string
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
	ResultsMode  string `validate:"oneof=console database none"`

	// Cache
	CacheMode     string `validate:"oneof=memory redis"`
	RedisAddr     string
	RedisPassword string
	RedisDB       int           `validate:"gte=0"`
	NameCacheTTL  time.Duration `validate:"gt=0"`
}

// DominationSettings configures the order book buy-out calculator.
type DominationSettings struct {
	MaxInvestmentMillions  float64 `validate:"gt=0"`
	TargetROIPercent       float64 `validate:"gte=0"`
	TaxPercent             float64 `validate:"gte=0,lt=100"`
	NPCFilterEnabled       bool
	NPCConfidenceThreshold float64 `validate:"gt=0,lte=1"`
	MaxConcurrency         int     `validate:"gte=1"`
}

// MaxInvestment is the investment cap in ISK.
func (d DominationSettings) MaxInvestment() float64 {
	return d.MaxInvestmentMillions * 1_000_000
}

// TaxRate is the sell tax as a fraction.
func (d DominationSettings) TaxRate() float64 {
	return d.TaxPercent / 100
}

// ArbitrageSettings configures the cross-region scanner.
type ArbitrageSettings struct {
	MinPriceDifferencePercent float64       `validate:"gte=0"`
	MinMarketSizeMillions     float64       `validate:"gte=0"`
	WorkerPoolSize            int           `validate:"gte=1"`
	BatchTimeout              time.Duration `validate:"gt=0"`
	CandidateLimit            int           `validate:"gte=1"`
}

// LoadFromEnv loads configuration from environment variables with defaults.
// A .env file is read first when present, and DOMINATOR_CONFIG_FILE may point at a TOML
// file carrying region lists, stations and per-region volume overrides.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Application defaults
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		HTTPPort:  getEnvOrDefault("HTTP_PORT", "8080"),

		// ESI defaults
		ESIBaseURL:           getEnvOrDefault("ESI_BASE_URL", "https://esi.evetech.net/latest"),
		ESIUserAgent:         getEnvOrDefault("ESI_USER_AGENT", "dominator/1.0"),
		ESIRequestsPerSecond: getFloat64OrDefault("ESI_REQUESTS_PER_SECOND", 20),
		ESIMaxPages:          getIntOrDefault("ESI_MAX_PAGES", 100),

		// Mokaam defaults
		MokaamBaseURL:   getEnvOrDefault("MOKAAM_BASE_URL", "https://mokaam.dk"),
		MokaamUserAgent: getEnvOrDefault("MOKAAM_USER_AGENT", "dominator/1.0"),
		MokaamTimeout:   getDurationOrDefault("MOKAAM_TIMEOUT", 2*time.Minute),

		// Region defaults
		Regions:       getRegionsOrDefault("REGIONS", []types.RegionID{types.RegionTheForge}),
		ImportRegions: getRegionsOrDefault("IMPORT_REGIONS", types.TradeHubs()),
		Stations:      getStationsOrDefault("STATIONS", defaultStations()),

		Domination: DominationSettings{
			MaxInvestmentMillions:  getFloat64OrDefault("DOMINATION_MAX_INVESTMENT_MILLIONS", 1000),
			TargetROIPercent:       getFloat64OrDefault("DOMINATION_TARGET_ROI_PERCENT", 20),
			TaxPercent:             getFloat64OrDefault("DOMINATION_TAX_PERCENT", 8),
			NPCFilterEnabled:       getBoolOrDefault("DOMINATION_NPC_FILTER_ENABLED", true),
			NPCConfidenceThreshold: getFloat64OrDefault("DOMINATION_NPC_CONFIDENCE_THRESHOLD", 0.7),
			MaxConcurrency:         getIntOrDefault("DOMINATION_MAX_CONCURRENCY", 10),
		},

		Volume: VolumeThresholds{
			Global: Thresholds{
				MinVolumeMonth:               getInt64OrDefault("VOLUME_MIN_MONTH", 0),
				MinVolumeQuarter:             getInt64OrDefault("VOLUME_MIN_QUARTER", 0),
				MinVolumeYear:                getInt64OrDefault("VOLUME_MIN_YEAR", 0),
				MinMarketSizeMonthMillions:   getFloat64OrDefault("VOLUME_MIN_MARKET_SIZE_MONTH_MILLIONS", 0),
				MinMarketSizeQuarterMillions: getFloat64OrDefault("VOLUME_MIN_MARKET_SIZE_QUARTER_MILLIONS", 0),
				MinMarketSizeYearMillions:    getFloat64OrDefault("VOLUME_MIN_MARKET_SIZE_YEAR_MILLIONS", 0),
			},
			Regions: map[types.RegionID]ThresholdOverride{},
		},

		Arbitrage: ArbitrageSettings{
			MinPriceDifferencePercent: getFloat64OrDefault("ARBITRAGE_MIN_PRICE_DIFFERENCE_PERCENT", 10),
			MinMarketSizeMillions:     getFloat64OrDefault("ARBITRAGE_MIN_MARKET_SIZE_MILLIONS", 100),
			WorkerPoolSize:            getIntOrDefault("ARBITRAGE_WORKER_POOL_SIZE", DefaultWorkerPoolSize()),
			BatchTimeout:              getDurationOrDefault("ARBITRAGE_BATCH_TIMEOUT", 30*time.Second),
			CandidateLimit:            getIntOrDefault("ARBITRAGE_CANDIDATE_LIMIT", 5000),
		},

		// Storage defaults
		StoreDriver:  getEnvOrDefault("STORE_DRIVER", "sqlite"),
		SQLitePath:   getEnvOrDefault("SQLITE_PATH", "dominator.db"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "dominator"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "dominator"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "dominator"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		ResultsMode:  getEnvOrDefault("RESULTS_MODE", "console"),

		// Cache defaults
		CacheMode:     getEnvOrDefault("CACHE_MODE", "memory"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntOrDefault("REDIS_DB", 0),
		NameCacheTTL:  getDurationOrDefault("NAME_CACHE_TTL", 24*time.Hour),
	}

	if path := os.Getenv("DOMINATOR_CONFIG_FILE"); path != "" {
		err := applyFile(cfg, path)
		if err != nil {
			return nil, fmt.Errorf("apply config file: %w", err)
		}
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Station returns the configured trading venue of a region.
func (c *Config) Station(region types.RegionID) (types.LocationID, bool) {
	loc, ok := c.Stations[region]
	return loc, ok
}

// DefaultWorkerPoolSize is twice the available CPUs, never below four.
func DefaultWorkerPoolSize() int {
	return max(4, runtime.NumCPU()*2)
}

func defaultStations() map[types.RegionID]types.LocationID {
	stations := make(map[types.RegionID]types.LocationID)
	for _, region := range types.TradeHubs() {
		if loc, ok := types.HubStation(region); ok {
			stations[region] = loc
		}
	}
	return stations
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getRegionsOrDefault parses a comma separated list of region IDs.
func getRegionsOrDefault(key string, defaultValue []types.RegionID) []types.RegionID {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	regions, err := parseRegionList(value)
	if err != nil {
		return defaultValue
	}

	return regions
}

// getStationsOrDefault parses "region:station" pairs separated by commas.
func getStationsOrDefault(key string, defaultValue map[types.RegionID]types.LocationID) map[types.RegionID]types.LocationID {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	stations := make(map[types.RegionID]types.LocationID)
	for _, pair := range strings.Split(value, ",") {
		regionStr, stationStr, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return defaultValue
		}

		region, err := parseRegionID(regionStr)
		if err != nil {
			return defaultValue
		}

		station, err := strconv.ParseInt(strings.TrimSpace(stationStr), 10, 64)
		if err != nil {
			return defaultValue
		}

		stations[region] = types.LocationID(station)
	}

	return stations
}

func parseRegionList(value string) ([]types.RegionID, error) {
	parts := strings.Split(value, ",")
	regions := make([]types.RegionID, 0, len(parts))

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}

		region, err := parseRegionID(part)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}

	return regions, nil
}

func parseRegionID(s string) (types.RegionID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse region id %q: %w", s, err)
	}
	return types.RegionID(id), nil
}
