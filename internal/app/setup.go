package app

import (
	"context"
	"fmt"

	"github.com/karnyvex/dominator/internal/arbitrage"
	"github.com/karnyvex/dominator/internal/domination"
	"github.com/karnyvex/dominator/internal/esi"
	"github.com/karnyvex/dominator/internal/history"
	"github.com/karnyvex/dominator/internal/names"
	"github.com/karnyvex/dominator/internal/npc"
	"github.com/karnyvex/dominator/internal/storage"
	"github.com/karnyvex/dominator/internal/volume"
	"github.com/karnyvex/dominator/pkg/cache"
	"github.com/karnyvex/dominator/pkg/config"
	"github.com/karnyvex/dominator/pkg/healthprobe"
	"github.com/karnyvex/dominator/pkg/httpserver"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "dominator:"

// New creates a new application instance. The statistics store is opened and migrated,
// so one-shot commands can use the components without calling Run.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	store, err := setupStore(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup store: %w", err)
	}

	nameCache, err := setupCache(ctx, cfg, logger)
	if err != nil {
		cancel()
		_ = store.Close()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	results := setupResultSink(cfg, logger, store)
	esiClient := setupESIClient(cfg, logger)
	resolver := names.NewResolver(nameCache, store, esiClient, cfg.NameCacheTTL, logger)
	importer := setupImporter(cfg, logger, store)
	analyzer := setupAnalyzer(cfg, logger, esiClient, store, resolver, results)
	scanner := arbitrage.New(arbitrage.ConfigFromSettings(cfg.ImportRegions, cfg.Arbitrage, logger), store, resolver, results)

	healthChecker := setupHealthChecker(store, nameCache)
	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Domination:    analyzer,
		Arbitrage:     scanner,
		Imports:       importer,
		Items:         resolver,
		Statistics:    store,
		Regions:       cfg.ImportRegions,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		store:         store,
		results:       results,
		nameCache:     nameCache,
		esiClient:     esiClient,
		importer:      importer,
		resolver:      resolver,
		analyzer:      analyzer,
		scanner:       scanner,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.SQLStore, error) {
	var (
		store *storage.SQLStore
		err   error
	)

	if cfg.StoreDriver == "postgres" {
		store, err = storage.NewPostgresStore(ctx, &storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	} else {
		store, err = storage.NewSQLiteStore(ctx, &storage.SQLiteConfig{
			Path:   cfg.SQLitePath,
			Logger: logger,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.StoreDriver, err)
	}

	err = store.Migrate(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

func setupCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	if cfg.CacheMode == "redis" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cacheKeyPrefix,
			Logger:   logger,
		})
	}

	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1_000_000, // 10x the item catalogue
		MaxCost:     8 << 20,   // bytes of cached names
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupResultSink(cfg *config.Config, logger *zap.Logger, store *storage.SQLStore) storage.ResultSink {
	switch cfg.ResultsMode {
	case "database":
		return store
	case "none":
		return storage.NopSink{}
	default:
		return storage.NewConsoleStorage(logger)
	}
}

func setupESIClient(cfg *config.Config, logger *zap.Logger) *esi.Client {
	return esi.NewClient(esi.Config{
		BaseURL:           cfg.ESIBaseURL,
		UserAgent:         cfg.ESIUserAgent,
		RequestsPerSecond: cfg.ESIRequestsPerSecond,
		MaxPages:          cfg.ESIMaxPages,
		Logger:            logger,
	})
}

func setupImporter(cfg *config.Config, logger *zap.Logger, store *storage.SQLStore) *history.Importer {
	client := history.NewClient(history.Config{
		BaseURL:   cfg.MokaamBaseURL,
		UserAgent: cfg.MokaamUserAgent,
		Timeout:   cfg.MokaamTimeout,
		Logger:    logger,
	})

	return history.NewImporter(client, store, cfg.ImportRegions, logger)
}

func setupAnalyzer(
	cfg *config.Config,
	logger *zap.Logger,
	orders domination.OrderSource,
	store *storage.SQLStore,
	resolver *names.Resolver,
	results storage.ResultSink,
) *domination.Analyzer {
	return domination.New(
		domination.Config{
			Settings: cfg.Domination,
			Stations: cfg.Stations,
			Scorer:   npc.DurationScorer{},
			Logger:   logger,
		},
		orders,
		store,
		resolver,
		volume.NewGate(cfg.Volume, logger),
		results,
	)
}

func setupHealthChecker(store *storage.SQLStore, nameCache cache.Cache) *healthprobe.HealthChecker {
	hc := healthprobe.New()
	hc.AddCheck("statistics-store", store.Ping)

	if pinger, ok := nameCache.(interface{ Ping(context.Context) error }); ok {
		hc.AddCheck("name-cache", pinger.Ping)
	}

	return hc
}
