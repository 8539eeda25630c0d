package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// regionImportLimit bounds concurrent region downloads; Mokaam responses are large.
const regionImportLimit = 2

// Source downloads raw Mokaam responses.
type Source interface {
	FetchRegion(ctx context.Context, regionID types.RegionID) ([]byte, error)
	FetchTypeNames(ctx context.Context) ([]byte, error)
}

// Store persists imported statistics and names.
type Store interface {
	ReplaceRegionStatistics(ctx context.Context, regionID types.RegionID, stats []types.ItemStatistics) error
	SaveItemNames(ctx context.Context, names []types.ItemName) error
}

// ImportResult describes the import of one region.
type ImportResult struct {
	RegionID   types.RegionID `json:"region_id"`
	RegionName string         `json:"region_name"`
	Summary    ParseSummary   `json:"summary"`
	Duration   time.Duration  `json:"duration"`
	Error      string         `json:"error,omitempty"`
}

// Importer loads Mokaam history into the statistics store.
type Importer struct {
	source  Source
	store   Store
	regions []types.RegionID
	logger  *zap.Logger
}

// NewImporter creates an importer for the given regions.
func NewImporter(source Source, store Store, regions []types.RegionID, logger *zap.Logger) *Importer {
	return &Importer{
		source:  source,
		store:   store,
		regions: regions,
		logger:  logger,
	}
}

// ImportRegion replaces a region's statistics with a fresh download.
// Nothing is written when the download or the parse fails.
func (i *Importer) ImportRegion(ctx context.Context, regionID types.RegionID) (ImportResult, error) {
	start := time.Now()
	result := ImportResult{
		RegionID:   regionID,
		RegionName: types.RegionName(regionID),
	}

	i.logger.Info("statistics-import-starting",
		zap.Int32("region-id", int32(regionID)),
		zap.String("region-name", result.RegionName))

	data, err := i.source.FetchRegion(ctx, regionID)
	if err != nil {
		return i.failed(result, start, err)
	}

	stats, summary, err := ParseStatistics(data, regionID)
	result.Summary = summary
	if err != nil {
		return i.failed(result, start, fmt.Errorf("parse region %d: %w", regionID, err))
	}

	RecordsSkippedTotal.WithLabelValues("no_data").Add(float64(summary.SkippedNoData))
	RecordsSkippedTotal.WithLabelValues("invalid").Add(float64(summary.SkippedInvalid))

	err = i.store.ReplaceRegionStatistics(ctx, regionID, stats)
	if err != nil {
		return i.failed(result, start, fmt.Errorf("store statistics for region %d: %w", regionID, err))
	}

	result.Duration = time.Since(start)
	ImportedRecordsTotal.WithLabelValues(result.RegionName).Add(float64(len(stats)))
	ImportDurationSeconds.Observe(result.Duration.Seconds())

	i.logger.Info("statistics-import-complete",
		zap.Int32("region-id", int32(regionID)),
		zap.Int("records", summary.Records),
		zap.Int("parsed", summary.Parsed),
		zap.Int("skipped-no-data", summary.SkippedNoData),
		zap.Int("skipped-invalid", summary.SkippedInvalid),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (i *Importer) failed(result ImportResult, start time.Time, err error) (ImportResult, error) {
	result.Duration = time.Since(start)
	result.Error = err.Error()
	ImportFailuresTotal.Inc()

	i.logger.Error("statistics-import-failed",
		zap.Int32("region-id", int32(result.RegionID)),
		zap.Error(err))

	return result, err
}

// ImportAll imports every configured region. A failed region does not stop the
// others; the failures are joined into the returned error.
func (i *Importer) ImportAll(ctx context.Context) ([]ImportResult, error) {
	results := make([]ImportResult, len(i.regions))

	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(regionImportLimit)

	for idx, regionID := range i.regions {
		g.Go(func() error {
			result, err := i.ImportRegion(ctx, regionID)
			results[idx] = result
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()

	return results, errors.Join(errs...)
}

// ImportNames refreshes the item name table and returns how many names were saved.
func (i *Importer) ImportNames(ctx context.Context) (int, error) {
	data, err := i.source.FetchTypeNames(ctx)
	if err != nil {
		return 0, err
	}

	names, err := ParseTypeNames(data)
	if err != nil {
		return 0, err
	}

	err = i.store.SaveItemNames(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("save item names: %w", err)
	}

	i.logger.Info("item-names-imported",
		zap.Int("count", len(names)))

	return len(names), nil
}
