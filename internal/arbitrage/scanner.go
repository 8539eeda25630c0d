package arbitrage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/karnyvex/dominator/pkg/config"
	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchTimeout   = 30 * time.Second
	defaultCandidateLimit = 5000
	minBatchSize          = 10
	batchesPerWorker      = 4
)

// StatisticsSource reads historical statistics.
type StatisticsSource interface {
	GetLatest(ctx context.Context, typeID types.TypeID, regionID types.RegionID) (*types.ItemStatistics, error)
	DistinctTypeIDs(ctx context.Context, regionID types.RegionID, limit int) ([]types.TypeID, error)
}

// NameResolver turns type IDs into display names.
type NameResolver interface {
	Name(ctx context.Context, typeID types.TypeID) (string, error)
}

// Storage persists finished scans.
type Storage interface {
	StoreArbitrage(ctx context.Context, report *ScanReport) error
}

// Config holds scanner configuration.
type Config struct {
	Regions                   []types.RegionID // compared in this order; ties go to the earlier region
	MinPriceDifferencePercent float64
	MinMarketSizeMillions     float64
	WorkerPoolSize            int
	BatchTimeout              time.Duration
	CandidateLimit            int
	Parallelism               int // sizes batches; 0 means runtime.NumCPU()
	Logger                    *zap.Logger
}

// ConfigFromSettings builds a scanner config from the application settings.
func ConfigFromSettings(regions []types.RegionID, s config.ArbitrageSettings, logger *zap.Logger) Config {
	return Config{
		Regions:                   slices.Clone(regions),
		MinPriceDifferencePercent: s.MinPriceDifferencePercent,
		MinMarketSizeMillions:     s.MinMarketSizeMillions,
		WorkerPoolSize:            s.WorkerPoolSize,
		BatchTimeout:              s.BatchTimeout,
		CandidateLimit:            s.CandidateLimit,
		Logger:                    logger,
	}
}

// Scanner compares windowed VWAPs of the same item across regions.
type Scanner struct {
	config     Config
	logger     *zap.Logger
	statistics StatisticsSource
	names      NameResolver
	storage    Storage
}

// New creates a scanner. names and storage may be nil.
func New(cfg Config, statistics StatisticsSource, names NameResolver, storage Storage) *Scanner {
	if cfg.WorkerPoolSize < 1 {
		cfg.WorkerPoolSize = config.DefaultWorkerPoolSize()
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	if cfg.CandidateLimit < 1 {
		cfg.CandidateLimit = defaultCandidateLimit
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = runtime.NumCPU()
	}

	return &Scanner{
		config:     cfg,
		logger:     cfg.Logger,
		statistics: statistics,
		names:      names,
		storage:    storage,
	}
}

// Scan runs one scan over the configured regions for a time window.
// Batches that time out or fail are counted in the report; cancelling ctx aborts the scan.
func (s *Scanner) Scan(ctx context.Context, window types.TimeWindow) (*ScanReport, error) {
	window, err := types.ParseTimeWindow(string(window))
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	start := time.Now()

	candidates, err := s.collectCandidates(ctx)
	if err != nil {
		return nil, err
	}
	CandidatesCount.Set(float64(len(candidates)))

	batches := partition(candidates, s.batchSize(len(candidates)))

	s.logger.Info("arbitrage-scan-starting",
		zap.String("window", string(window)),
		zap.Int("region-count", len(s.config.Regions)),
		zap.Int("candidate-count", len(candidates)),
		zap.Int("batch-count", len(batches)),
		zap.Int("worker-count", s.config.WorkerPoolSize))

	results, failed, err := s.processBatches(ctx, window, batches)
	if err != nil {
		return nil, err
	}

	SortByDifference(results)

	report := &ScanReport{
		ID:            uuid.New().String(),
		Window:        window,
		Results:       results,
		FailedBatches: failed,
		TotalBatches:  len(batches),
		Candidates:    len(candidates),
		StartedAt:     start,
		Duration:      time.Since(start),
	}

	ScansTotal.WithLabelValues(string(window)).Inc()
	ScanDurationSeconds.Observe(report.Duration.Seconds())

	if report.Partial() {
		s.logger.Warn("arbitrage-scan-partial",
			zap.String("scan-id", report.ID),
			zap.Int("failed-batches", failed),
			zap.Int("total-batches", len(batches)))
	}

	s.logger.Info("arbitrage-scan-complete",
		zap.String("scan-id", report.ID),
		zap.String("window", string(window)),
		zap.Int("result-count", len(results)),
		zap.Duration("duration", report.Duration))

	if s.storage != nil {
		err = s.storage.StoreArbitrage(ctx, report)
		if err != nil {
			s.logger.Error("store-arbitrage-failed",
				zap.String("scan-id", report.ID),
				zap.Error(err))
		}
	}

	return report, nil
}

// collectCandidates unions the item IDs with statistics in any region, ascending.
func (s *Scanner) collectCandidates(ctx context.Context) ([]types.TypeID, error) {
	perRegion := make([][]types.TypeID, len(s.config.Regions))

	g, gctx := errgroup.WithContext(ctx)
	for i, region := range s.config.Regions {
		g.Go(func() error {
			ids, err := s.statistics.DistinctTypeIDs(gctx, region, s.config.CandidateLimit)
			if err != nil {
				return fmt.Errorf("list candidates for region %d: %w", region, err)
			}
			perRegion[i] = ids
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	seen := make(map[types.TypeID]struct{})
	for _, ids := range perRegion {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	candidates := make([]types.TypeID, 0, len(seen))
	for id := range seen {
		candidates = append(candidates, id)
	}
	slices.Sort(candidates)

	return candidates, nil
}

// batchSize aims for batchesPerWorker batches per unit of parallelism.
func (s *Scanner) batchSize(candidates int) int {
	return max(minBatchSize, candidates/(s.config.Parallelism*batchesPerWorker))
}

func partition(ids []types.TypeID, size int) [][]types.TypeID {
	batches := make([][]types.TypeID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

type batchOutcome struct {
	results []*Result
	err     error
}

// processBatches feeds batches to a fixed pool of workers and collects their results.
func (s *Scanner) processBatches(ctx context.Context, window types.TimeWindow, batches [][]types.TypeID) ([]*Result, int, error) {
	jobs := make(chan []types.TypeID)
	outcomes := make(chan batchOutcome, len(batches))

	var wg sync.WaitGroup
	workers := min(s.config.WorkerPoolSize, len(batches))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				results, err := s.runBatch(ctx, window, batch)
				outcomes <- batchOutcome{results: results, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, batch := range batches {
			select {
			case jobs <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var (
		results []*Result
		failed  int
	)
	for outcome := range outcomes {
		if outcome.err != nil {
			failed++
			continue
		}
		results = append(results, outcome.results...)
	}

	err := ctx.Err()
	if err != nil {
		return nil, 0, err
	}

	return results, failed, nil
}

// runBatch gives one batch BatchTimeout to finish. A timed out batch is abandoned
// and its partial results are dropped.
func (s *Scanner) runBatch(ctx context.Context, window types.TimeWindow, batch []types.TypeID) ([]*Result, error) {
	start := time.Now()
	defer func() {
		BatchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	batchCtx, cancel := context.WithTimeout(ctx, s.config.BatchTimeout)
	defer cancel()

	done := make(chan batchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- batchOutcome{err: fmt.Errorf("batch panic: %v", r)}
			}
		}()
		results, err := s.processBatch(batchCtx, window, batch)
		done <- batchOutcome{results: results, err: err}
	}()

	select {
	case outcome := <-done:
		if outcome.err != nil {
			s.batchFailed("error", batch, outcome.err)
			return nil, outcome.err
		}
		return outcome.results, nil
	case <-batchCtx.Done():
		err := batchCtx.Err()
		reason := "cancelled"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		s.batchFailed(reason, batch, err)
		return nil, err
	}
}

func (s *Scanner) batchFailed(reason string, batch []types.TypeID, err error) {
	BatchesFailedTotal.WithLabelValues(reason).Inc()
	s.logger.Warn("arbitrage-batch-failed",
		zap.String("reason", reason),
		zap.Int32("first-type-id", int32(batch[0])),
		zap.Int("batch-size", len(batch)),
		zap.Error(err))
}

func (s *Scanner) processBatch(ctx context.Context, window types.TimeWindow, batch []types.TypeID) ([]*Result, error) {
	var results []*Result
	for _, typeID := range batch {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}

		result, err := s.evaluateItem(ctx, window, typeID)
		if err != nil {
			return nil, err
		}
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}

// quote is one region's windowed price for an item.
type quote struct {
	region     types.RegionID
	vwap       float64
	marketSize float64
}

func quoteFor(stats *types.ItemStatistics, region types.RegionID, window types.TimeWindow) (quote, bool) {
	if stats == nil {
		return quote{}, false
	}

	ws := stats.Window(window)
	if ws.VWAP == nil || ws.Volume == nil || *ws.VWAP <= 0 || *ws.Volume <= 0 {
		return quote{}, false
	}

	return quote{
		region:     region,
		vwap:       *ws.VWAP,
		marketSize: *ws.VWAP * float64(*ws.Volume),
	}, true
}

// evaluateItem fetches the item's statistics region by region and compares the
// cheapest and most expensive VWAP. A region whose statistics cannot be read is left out
// of the comparison; only cancellation of ctx is returned as an error.
func (s *Scanner) evaluateItem(ctx context.Context, window types.TimeWindow, typeID types.TypeID) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("arbitrage-item-panic",
				zap.Int32("type-id", int32(typeID)),
				zap.Any("panic", r))
			ItemsRejectedTotal.WithLabelValues("panic").Inc()
			result, err = nil, nil
		}
	}()

	quotes := make([]quote, 0, len(s.config.Regions))
	for _, region := range s.config.Regions {
		stats, err := s.statistics.GetLatest(ctx, typeID, region)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("arbitrage-statistics-lookup-failed",
				zap.Int32("type-id", int32(typeID)),
				zap.Int32("region-id", int32(region)),
				zap.Error(err))
			ItemsRejectedTotal.WithLabelValues("statistics_error").Inc()
			continue
		}
		q, ok := quoteFor(stats, region, window)
		if ok {
			quotes = append(quotes, q)
		}
	}

	if len(quotes) < 2 {
		ItemsRejectedTotal.WithLabelValues("too_few_regions").Inc()
		return nil, nil
	}

	low, high := quotes[0], quotes[0]
	for _, q := range quotes[1:] {
		if q.vwap < low.vwap {
			low = q
		}
		if q.vwap > high.vwap {
			high = q
		}
	}

	difference := (high.vwap - low.vwap) / low.vwap * 100
	if difference < s.config.MinPriceDifferencePercent {
		ItemsRejectedTotal.WithLabelValues("price_difference").Inc()
		return nil, nil
	}

	minMarketSize := s.config.MinMarketSizeMillions * 1_000_000
	if low.marketSize < minMarketSize && high.marketSize < minMarketSize {
		ItemsRejectedTotal.WithLabelValues("market_size").Inc()
		return nil, nil
	}

	result = &Result{
		TypeID:                 typeID,
		ItemName:               s.resolveName(ctx, typeID),
		LowRegion:              low.region,
		LowRegionName:          types.RegionName(low.region),
		LowPrice:               low.vwap,
		LowMarketSize:          low.marketSize,
		HighRegion:             high.region,
		HighRegionName:         types.RegionName(high.region),
		HighPrice:              high.vwap,
		HighMarketSize:         high.marketSize,
		PriceDifferencePercent: difference,
	}

	ResultsFoundTotal.Inc()
	PriceDifferencePercent.Observe(difference)

	return result, nil
}

func (s *Scanner) resolveName(ctx context.Context, typeID types.TypeID) string {
	if s.names == nil {
		return types.UnknownItemName
	}

	name, err := s.names.Name(ctx, typeID)
	if err != nil || name == "" {
		s.logger.Debug("item-name-unresolved",
			zap.Int32("type-id", int32(typeID)),
			zap.Error(err))
		return types.UnknownItemName
	}
	return name
}

// SortByDifference orders results by price difference descending, then by type ID.
func SortByDifference(results []*Result) {
	slices.SortStableFunc(results, func(x, y *Result) int {
		if c := cmp.Compare(y.PriceDifferencePercent, x.PriceDifferencePercent); c != 0 {
			return c
		}
		return cmp.Compare(x.TypeID, y.TypeID)
	})
}
