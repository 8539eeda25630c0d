package arbitrage

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/karnyvex/dominator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStatistics struct {
	mu        sync.Mutex
	rows      map[types.RegionID]map[types.TypeID]*types.ItemStatistics
	listErr   error
	getErr    map[types.TypeID]error
	regionErr map[types.RegionID]map[types.TypeID]error
	block     map[types.TypeID]chan struct{}
	panics    map[types.TypeID]bool
	lastLimit int
}

func newFakeStatistics() *fakeStatistics {
	return &fakeStatistics{
		rows:   make(map[types.RegionID]map[types.TypeID]*types.ItemStatistics),
		getErr:    make(map[types.TypeID]error),
		regionErr: make(map[types.RegionID]map[types.TypeID]error),
		block:  make(map[types.TypeID]chan struct{}),
		panics: make(map[types.TypeID]bool),
	}
}

// set stores weekly VWAP and volume for an item in a region.
func (f *fakeStatistics) set(region types.RegionID, typeID types.TypeID, vwap float64, volume int64) {
	if f.rows[region] == nil {
		f.rows[region] = make(map[types.TypeID]*types.ItemStatistics)
	}
	f.rows[region][typeID] = &types.ItemStatistics{
		TypeID:   typeID,
		RegionID: region,
		Week:     types.WindowStats{VWAP: types.Float64(vwap), Volume: types.Int64(volume)},
		Month:    types.WindowStats{VWAP: types.Float64(vwap * 2), Volume: types.Int64(volume)},
	}
}

func (f *fakeStatistics) GetLatest(ctx context.Context, typeID types.TypeID, regionID types.RegionID) (*types.ItemStatistics, error) {
	f.mu.Lock()
	block := f.block[typeID]
	shouldPanic := f.panics[typeID]
	err := f.getErr[typeID]
	if regionErr := f.regionErr[regionID][typeID]; regionErr != nil {
		err = regionErr
	}
	row := f.rows[regionID][typeID]
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if shouldPanic {
		panic("corrupt row")
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (f *fakeStatistics) DistinctTypeIDs(ctx context.Context, regionID types.RegionID, limit int) ([]types.TypeID, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit

	ids := make([]types.TypeID, 0, len(f.rows[regionID]))
	for id := range f.rows[regionID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeNames map[types.TypeID]string

func (f fakeNames) Name(ctx context.Context, typeID types.TypeID) (string, error) {
	name, ok := f[typeID]
	if !ok {
		return "", errors.New("unknown type")
	}
	return name, nil
}

func testConfig(regions ...types.RegionID) Config {
	return Config{
		Regions:                   regions,
		MinPriceDifferencePercent: 20,
		MinMarketSizeMillions:     1,
		WorkerPoolSize:            4,
		BatchTimeout:              time.Second,
		Parallelism:               1,
		Logger:                    zap.NewNop(),
	}
}

func TestScanner_BothMarketsTooSmall(t *testing.T) {
	stats := newFakeStatistics()
	stats.set(types.RegionTheForge, 34, 100, 500)
	stats.set(types.RegionDomain, 34, 130, 10)

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)

	// 30% passes the price bar but 50,000 and 1,300 ISK are both under one million.
	assert.Empty(t, report.Results)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 0, report.FailedBatches)
}

func TestScanner_OneLargeMarketIsEnough(t *testing.T) {
	stats := newFakeStatistics()
	stats.set(types.RegionTheForge, 34, 100, 50_000)
	stats.set(types.RegionDomain, 34, 130, 10)

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, fakeNames{34: "Tritanium"}, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	assert.Equal(t, "Tritanium", r.ItemName)
	assert.Equal(t, types.RegionTheForge, r.LowRegion)
	assert.Equal(t, "The Forge (Jita)", r.LowRegionName)
	assert.Equal(t, types.RegionDomain, r.HighRegion)
	assert.Equal(t, "Domain (Amarr)", r.HighRegionName)
	assert.InDelta(t, 100, r.LowPrice, 1e-9)
	assert.InDelta(t, 130, r.HighPrice, 1e-9)
	assert.InDelta(t, 30, r.PriceDifferencePercent, 1e-9)
	assert.InDelta(t, 5_000_000, r.LowMarketSize, 1e-6)
	assert.InDelta(t, 1_300, r.HighMarketSize, 1e-6)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, types.Weekly, report.Window)
	assert.Equal(t, 5000, stats.lastLimit)
}

func TestScanner_ItemFilters(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(stats *fakeStatistics)
		wantOK bool
	}{
		{
			name: "below-price-difference",
			setup: func(stats *fakeStatistics) {
				stats.set(types.RegionTheForge, 34, 100, 1_000_000)
				stats.set(types.RegionDomain, 34, 115, 1_000_000)
			},
		},
		{
			name: "only-one-region-has-data",
			setup: func(stats *fakeStatistics) {
				stats.set(types.RegionTheForge, 34, 100, 1_000_000)
			},
		},
		{
			name: "zero-volume-region-ignored",
			setup: func(stats *fakeStatistics) {
				stats.set(types.RegionTheForge, 34, 100, 1_000_000)
				stats.set(types.RegionDomain, 34, 300, 0)
			},
		},
		{
			name: "zero-vwap-region-ignored",
			setup: func(stats *fakeStatistics) {
				stats.set(types.RegionTheForge, 34, 0, 1_000_000)
				stats.set(types.RegionDomain, 34, 300, 1_000_000)
			},
		},
		{
			name: "exactly-at-threshold",
			setup: func(stats *fakeStatistics) {
				stats.set(types.RegionTheForge, 34, 100, 1_000_000)
				stats.set(types.RegionDomain, 34, 120, 1_000_000)
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := newFakeStatistics()
			tt.setup(stats)

			scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, nil)

			report, err := scanner.Scan(context.Background(), types.Weekly)
			require.NoError(t, err)

			if tt.wantOK {
				assert.Len(t, report.Results, 1)
			} else {
				assert.Empty(t, report.Results)
			}
		})
	}
}

func TestScanner_UsesRequestedWindow(t *testing.T) {
	stats := newFakeStatistics()
	stats.set(types.RegionTheForge, 34, 100, 50_000)
	stats.set(types.RegionDomain, 34, 130, 50_000)

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, nil)

	report, err := scanner.Scan(context.Background(), types.Monthly)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.InDelta(t, 200, report.Results[0].LowPrice, 1e-9)

	report, err = scanner.Scan(context.Background(), types.Yearly)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestScanner_TiesGoToFirstRegion(t *testing.T) {
	stats := newFakeStatistics()
	stats.set(types.RegionHeimatar, 34, 100, 50_000)
	stats.set(types.RegionTheForge, 34, 100, 50_000)
	stats.set(types.RegionDomain, 34, 150, 50_000)
	stats.set(types.RegionMetropolis, 34, 150, 50_000)

	scanner := New(testConfig(
		types.RegionTheForge, types.RegionDomain, types.RegionHeimatar, types.RegionMetropolis,
	), stats, nil, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, types.RegionTheForge, report.Results[0].LowRegion)
	assert.Equal(t, types.RegionDomain, report.Results[0].HighRegion)
}

func TestScanner_SortsAndNamesResults(t *testing.T) {
	stats := newFakeStatistics()
	for typeID, high := range map[types.TypeID]float64{34: 150, 35: 300, 36: 150, 37: 200} {
		stats.set(types.RegionTheForge, typeID, 100, 50_000)
		stats.set(types.RegionDomain, typeID, high, 50_000)
	}

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, fakeNames{35: "Pyerite"}, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	got := make([]types.TypeID, len(report.Results))
	for i, r := range report.Results {
		got[i] = r.TypeID
		assert.GreaterOrEqual(t, r.HighPrice, r.LowPrice)
		assert.GreaterOrEqual(t, r.PriceDifferencePercent, 20.0)
	}
	assert.Equal(t, []types.TypeID{35, 37, 34, 36}, got)
	assert.Equal(t, "Pyerite", report.Results[0].ItemName)
	assert.Equal(t, types.UnknownItemName, report.Results[1].ItemName)
}

func TestScanner_TimedOutBatchIsCounted(t *testing.T) {
	stats := newFakeStatistics()
	for typeID := types.TypeID(1); typeID <= 20; typeID++ {
		stats.set(types.RegionTheForge, typeID, 100, 50_000)
		stats.set(types.RegionDomain, typeID, 150, 50_000)
	}

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stats.block[5] = release

	cfg := testConfig(types.RegionTheForge, types.RegionDomain)
	cfg.BatchTimeout = 50 * time.Millisecond
	scanner := New(cfg, stats, nil, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)

	// Twenty candidates make two batches of ten; the first never finishes.
	assert.Equal(t, 2, report.TotalBatches)
	assert.Equal(t, 1, report.FailedBatches)
	assert.True(t, report.Partial())
	require.Len(t, report.Results, 10)
	for _, r := range report.Results {
		assert.Greater(t, r.TypeID, types.TypeID(10))
	}
}

func TestScanner_StoreErrorSkipsOnlyThatRegion(t *testing.T) {
	stats := newFakeStatistics()
	for typeID := types.TypeID(1); typeID <= 10; typeID++ {
		stats.set(types.RegionTheForge, typeID, 100, 50_000)
		stats.set(types.RegionDomain, typeID, 150, 50_000)
	}
	stats.regionErr[types.RegionHeimatar] = map[types.TypeID]error{5: errors.New("connection reset")}

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain, types.RegionHeimatar), stats, nil, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FailedBatches)
	assert.Len(t, report.Results, 10)
}

func TestScanner_StoreErrorDropsOnlyThatItem(t *testing.T) {
	stats := newFakeStatistics()
	for typeID := types.TypeID(1); typeID <= 20; typeID++ {
		stats.set(types.RegionTheForge, typeID, 100, 50_000)
		stats.set(types.RegionDomain, typeID, 150, 50_000)
	}
	stats.getErr[15] = errors.New("connection reset")

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FailedBatches)
	assert.Len(t, report.Results, 19)
	for _, r := range report.Results {
		assert.NotEqual(t, types.TypeID(15), r.TypeID)
	}
}

func TestScanner_PanickingItemIsDropped(t *testing.T) {
	stats := newFakeStatistics()
	for typeID := types.TypeID(1); typeID <= 3; typeID++ {
		stats.set(types.RegionTheForge, typeID, 100, 50_000)
		stats.set(types.RegionDomain, typeID, 150, 50_000)
	}
	stats.panics[2] = true

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, nil)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FailedBatches)
	assert.Len(t, report.Results, 2)
}

func TestScanner_CandidateErrorFailsScan(t *testing.T) {
	stats := newFakeStatistics()
	stats.listErr = errors.New("database is locked")

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, nil)

	_, err := scanner.Scan(context.Background(), types.Weekly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestScanner_Cancelled(t *testing.T) {
	stats := newFakeStatistics()
	stats.set(types.RegionTheForge, 34, 100, 50_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, nil)

	_, err := scanner.Scan(ctx, types.Weekly)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_CancelledDuringBatches(t *testing.T) {
	stats := newFakeStatistics()
	for typeID := types.TypeID(1); typeID <= 20; typeID++ {
		stats.set(types.RegionTheForge, typeID, 100, 50_000)
		stats.set(types.RegionDomain, typeID, 150, 50_000)
	}
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stats.block[1] = release

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	cfg := testConfig(types.RegionTheForge, types.RegionDomain)
	cfg.BatchTimeout = time.Minute
	scanner := New(cfg, stats, nil, nil)

	_, err := scanner.Scan(ctx, types.Weekly)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_UnknownWindow(t *testing.T) {
	scanner := New(testConfig(types.RegionTheForge), newFakeStatistics(), nil, nil)

	_, err := scanner.Scan(context.Background(), types.TimeWindow("daily"))
	assert.ErrorIs(t, err, types.ErrUnknownTimeWindow)
}

func TestScanner_StoresReport(t *testing.T) {
	stats := newFakeStatistics()
	stats.set(types.RegionTheForge, 34, 100, 50_000)
	stats.set(types.RegionDomain, 34, 130, 50_000)

	storage := NewMockStorage()
	scanner := New(testConfig(types.RegionTheForge, types.RegionDomain), stats, nil, storage)

	report, err := scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
	require.Len(t, storage.GetReports(), 1)
	assert.Equal(t, report.ID, storage.GetReports()[0].ID)

	storage.Err = errors.New("disk full")
	_, err = scanner.Scan(context.Background(), types.Weekly)
	require.NoError(t, err)
}

func TestScanner_Defaults(t *testing.T) {
	scanner := New(Config{Logger: zap.NewNop()}, newFakeStatistics(), nil, nil)

	assert.Equal(t, 30*time.Second, scanner.config.BatchTimeout)
	assert.Equal(t, 5000, scanner.config.CandidateLimit)
	assert.GreaterOrEqual(t, scanner.config.WorkerPoolSize, 4)
	assert.Positive(t, scanner.config.Parallelism)
}

func TestPartition(t *testing.T) {
	ids := make([]types.TypeID, 95)
	for i := range ids {
		ids[i] = types.TypeID(i + 1)
	}

	batches := partition(ids, 10)
	require.Len(t, batches, 10)
	assert.Len(t, batches[9], 5)
	assert.Equal(t, types.TypeID(91), batches[9][0])

	assert.Empty(t, partition(nil, 10))
}

func TestScanner_BatchSize(t *testing.T) {
	tests := []struct {
		parallelism int
		candidates  int
		want        int
	}{
		{parallelism: 1, candidates: 5, want: 10},
		{parallelism: 1, candidates: 100, want: 25},
		{parallelism: 8, candidates: 5000, want: 156},
		{parallelism: 8, candidates: 100, want: 10},
	}

	for _, tt := range tests {
		scanner := New(Config{Parallelism: tt.parallelism, Logger: zap.NewNop()}, newFakeStatistics(), nil, nil)
		assert.Equal(t, tt.want, scanner.batchSize(tt.candidates))
	}
}

func TestResult_String(t *testing.T) {
	report := CreateTestReport()
	s := report.Results[0].String()

	assert.Contains(t, s, "Tritanium")
	assert.Contains(t, s, "The Forge (Jita)")
	assert.Contains(t, s, "30.00%")
	assert.False(t, report.Partial())
}
