package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/karnyvex/dominator/internal/arbitrage"
	"github.com/karnyvex/dominator/internal/domination"
	"github.com/karnyvex/dominator/internal/esi"
	"github.com/karnyvex/dominator/internal/history"
	"github.com/karnyvex/dominator/internal/names"
	"github.com/karnyvex/dominator/internal/storage"
	"github.com/karnyvex/dominator/pkg/cache"
	"github.com/karnyvex/dominator/pkg/config"
	"github.com/karnyvex/dominator/pkg/healthprobe"
	"github.com/karnyvex/dominator/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	store         *storage.SQLStore
	results       storage.ResultSink
	nameCache     cache.Cache
	esiClient     *esi.Client
	importer      *history.Importer
	resolver      *names.Resolver
	analyzer      *domination.Analyzer
	scanner       *arbitrage.Scanner
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// Analyzer returns the domination analyzer.
func (a *App) Analyzer() *domination.Analyzer { return a.analyzer }

// Scanner returns the cross-region scanner.
func (a *App) Scanner() *arbitrage.Scanner { return a.scanner }

// Importer returns the Mokaam history importer.
func (a *App) Importer() *history.Importer { return a.importer }

// Names returns the item name resolver.
func (a *App) Names() *names.Resolver { return a.resolver }

// Store returns the statistics store.
func (a *App) Store() *storage.SQLStore { return a.store }

// Handler returns the HTTP handler of the API server.
func (a *App) Handler() http.Handler { return a.httpServer.Handler() }
