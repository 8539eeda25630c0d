package domination

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/karnyvex/dominator/internal/npc"
	"github.com/karnyvex/dominator/internal/volume"
	"github.com/karnyvex/dominator/pkg/config"
	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 10

// ErrUnknownRegion is returned when no trading venue is configured for a region.
var ErrUnknownRegion = errors.New("unknown region")

// OrderSource fetches the live order snapshot of a region.
type OrderSource interface {
	RegionOrders(ctx context.Context, regionID types.RegionID) ([]types.Order, error)
}

// StatisticsSource returns the newest statistics row of an item, or nil when none exists.
type StatisticsSource interface {
	GetLatest(ctx context.Context, typeID types.TypeID, regionID types.RegionID) (*types.ItemStatistics, error)
}

// NameResolver turns type IDs into display names.
type NameResolver interface {
	Name(ctx context.Context, typeID types.TypeID) (string, error)
}

// Storage persists finished analysis results.
type Storage interface {
	StoreOpportunities(ctx context.Context, opps []*Opportunity) error
}

// Config holds analyzer configuration.
type Config struct {
	Settings config.DominationSettings
	Stations map[types.RegionID]types.LocationID
	Scorer   npc.Scorer // nil means duration scoring
	Logger   *zap.Logger
}

// Analyzer runs the domination pipeline over a region's order snapshot.
type Analyzer struct {
	config     Config
	logger     *zap.Logger
	orders     OrderSource
	statistics StatisticsSource
	names      NameResolver
	gate       *volume.Gate
	storage    Storage
	npcFilter  *npc.Filter
	calculator *Calculator
}

// New creates an analyzer. names and storage may be nil.
func New(cfg Config, orders OrderSource, statistics StatisticsSource, names NameResolver, gate *volume.Gate, storage Storage) *Analyzer {
	return &Analyzer{
		config:     cfg,
		logger:     cfg.Logger,
		orders:     orders,
		statistics: statistics,
		names:      names,
		gate:       gate,
		storage:    storage,
		npcFilter:  npc.NewFilter(cfg.Scorer, cfg.Logger),
		calculator: NewCalculator(ParamsFromConfig(cfg.Settings), cfg.Logger),
	}
}

// AnalyzeRegion fetches the region's orders, analyses them at the configured venue
// and stores the result. A storage failure is logged and does not fail the run.
func (a *Analyzer) AnalyzeRegion(ctx context.Context, regionID types.RegionID) ([]*Opportunity, error) {
	venueID, ok := a.config.Stations[regionID]
	if !ok {
		return nil, fmt.Errorf("analyze region %d: %w", regionID, ErrUnknownRegion)
	}

	orders, err := a.orders.RegionOrders(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("fetch orders for region %d: %w", regionID, err)
	}

	opps, err := a.Analyze(ctx, orders, regionID, venueID)
	if err != nil {
		return nil, err
	}

	if a.storage != nil && len(opps) > 0 {
		err = a.storage.StoreOpportunities(ctx, opps)
		if err != nil {
			a.logger.Error("store-opportunities-failed",
				zap.Int32("region-id", int32(regionID)),
				zap.Int("count", len(opps)),
				zap.Error(err))
		}
	}

	return opps, nil
}

// Analyze evaluates every item sold at venueID in the snapshot and returns the
// opportunities ordered by ROI, highest first. An unreadable statistics row is
// treated as missing history and passes the volume gate; only cancellation fails the whole run.
func (a *Analyzer) Analyze(ctx context.Context, snapshot []types.Order, regionID types.RegionID, venueID types.LocationID) ([]*Opportunity, error) {
	start := time.Now()
	defer func() {
		AnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	groups, typeIDs := groupSellOrders(snapshot, venueID)

	a.logger.Info("domination-analysis-starting",
		zap.Int32("region-id", int32(regionID)),
		zap.Int64("location-id", int64(venueID)),
		zap.Int("order-count", len(snapshot)),
		zap.Int("item-count", len(typeIDs)))

	results := make([]*Opportunity, len(typeIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency())

	for i, typeID := range typeIDs {
		g.Go(func() error {
			err := gctx.Err()
			if err != nil {
				return err
			}

			opp, err := a.evaluateItem(gctx, typeID, regionID, venueID, groups[typeID])
			if err != nil {
				return err
			}
			results[i] = opp
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("analyze region %d: %w", regionID, err)
	}

	opps := make([]*Opportunity, 0, len(results))
	for _, opp := range results {
		if opp != nil {
			opps = append(opps, opp)
		}
	}

	SortByROI(opps)

	a.logger.Info("domination-analysis-complete",
		zap.Int32("region-id", int32(regionID)),
		zap.Int("item-count", len(typeIDs)),
		zap.Int("opportunity-count", len(opps)),
		zap.Duration("duration", time.Since(start)))

	return opps, nil
}

// evaluateItem runs the per-item checks. The returned error is only ever a context error.
func (a *Analyzer) evaluateItem(
	ctx context.Context,
	typeID types.TypeID,
	regionID types.RegionID,
	venueID types.LocationID,
	orders []types.Order,
) (opp *Opportunity, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("item-evaluation-panic",
				zap.Int32("type-id", int32(typeID)),
				zap.Any("panic", r))
			OpportunitiesRejectedTotal.WithLabelValues("panic").Inc()
			opp, err = nil, nil
		}
	}()

	ItemsAnalyzedTotal.Inc()

	if a.config.Settings.NPCFilterEnabled && a.npcFilter.Rejects(orders, a.config.Settings.NPCConfidenceThreshold) {
		OpportunitiesRejectedTotal.WithLabelValues("npc_orders").Inc()
		return nil, nil
	}

	stats, err := a.statistics.GetLatest(ctx, typeID, regionID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("statistics-lookup-failed",
			zap.Int32("type-id", int32(typeID)),
			zap.Int32("region-id", int32(regionID)),
			zap.Error(err))
		StatisticsErrorsTotal.Inc()
		stats = nil
	}

	if !a.gate.Qualifies(typeID, regionID, stats) {
		OpportunitiesRejectedTotal.WithLabelValues("volume_gate").Inc()
		return nil, nil
	}

	opp, ok := a.calculator.Evaluate(typeID, orders)
	if !ok {
		return nil, nil
	}

	opp.RegionID = regionID
	opp.LocationID = venueID
	opp.ItemName = a.resolveName(ctx, typeID)

	OpportunitiesFoundTotal.Inc()
	OpportunityROIPercent.Observe(opp.ROIPercent)

	a.logger.Debug("domination-opportunity-found",
		zap.String("opportunity-id", opp.ID),
		zap.Int32("type-id", int32(typeID)),
		zap.String("item-name", opp.ItemName),
		zap.Int("orders-cleared", opp.OrdersCleared),
		zap.Float64("roi-percent", opp.ROIPercent))

	return opp, nil
}

// concurrency is the per-item fan-out limit.
func (a *Analyzer) concurrency() int {
	if a.config.Settings.MaxConcurrency < 1 {
		return defaultMaxConcurrency
	}
	return a.config.Settings.MaxConcurrency
}

func (a *Analyzer) resolveName(ctx context.Context, typeID types.TypeID) string {
	if a.names == nil {
		NameFallbacksTotal.Inc()
		return types.UnknownItemName
	}

	name, err := a.names.Name(ctx, typeID)
	if err != nil || name == "" {
		a.logger.Debug("item-name-unresolved",
			zap.Int32("type-id", int32(typeID)),
			zap.Error(err))
		NameFallbacksTotal.Inc()
		return types.UnknownItemName
	}
	return name
}

// groupSellOrders keeps sell orders at the venue, grouped by item.
// Type IDs are returned in ascending order.
func groupSellOrders(snapshot []types.Order, venueID types.LocationID) (map[types.TypeID][]types.Order, []types.TypeID) {
	groups := make(map[types.TypeID][]types.Order)
	for _, order := range snapshot {
		if !order.IsSell() || order.LocationID != venueID {
			continue
		}
		groups[order.TypeID] = append(groups[order.TypeID], order)
	}

	typeIDs := make([]types.TypeID, 0, len(groups))
	for typeID := range groups {
		typeIDs = append(typeIDs, typeID)
	}
	slices.Sort(typeIDs)

	return groups, typeIDs
}

// SortByROI orders opportunities by ROI descending, then by type ID.
func SortByROI(opps []*Opportunity) {
	slices.SortStableFunc(opps, func(x, y *Opportunity) int {
		if c := cmp.Compare(y.ROIPercent, x.ROIPercent); c != 0 {
			return c
		}
		return cmp.Compare(x.TypeID, y.TypeID)
	})
}
