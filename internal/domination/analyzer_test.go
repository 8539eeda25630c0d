package domination

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/karnyvex/dominator/internal/volume"
	"github.com/karnyvex/dominator/pkg/config"
	"github.com/karnyvex/dominator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrders struct {
	orders []types.Order
	err    error
}

func (f *fakeOrders) RegionOrders(ctx context.Context, regionID types.RegionID) ([]types.Order, error) {
	return f.orders, f.err
}

type fakeStatistics struct {
	rows     map[types.TypeID]*types.ItemStatistics
	failing  map[types.TypeID]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeStatistics) GetLatest(ctx context.Context, typeID types.TypeID, regionID types.RegionID) (*types.ItemStatistics, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if f.failing[typeID] {
		return nil, errors.New("statistics unavailable")
	}
	return f.rows[typeID], nil
}

type fakeNames struct {
	mu    sync.Mutex
	names map[types.TypeID]string
	calls int
}

func (f *fakeNames) Name(ctx context.Context, typeID types.TypeID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	name, ok := f.names[typeID]
	if !ok {
		return "", errors.New("name service down")
	}
	return name, nil
}

func testSettings() config.DominationSettings {
	return config.DominationSettings{
		MaxInvestmentMillions:  0.002,
		TargetROIPercent:       20,
		TaxPercent:             8,
		NPCFilterEnabled:       true,
		NPCConfidenceThreshold: 0.7,
		MaxConcurrency:         10,
	}
}

func newTestAnalyzer(t *testing.T, orders OrderSource, stats StatisticsSource, names NameResolver, storage Storage) *Analyzer {
	t.Helper()

	gate := volume.NewGate(config.VolumeThresholds{
		Global: config.Thresholds{MinVolumeMonth: 100},
	}, zap.NewNop())

	return New(Config{
		Settings: testSettings(),
		Stations: map[types.RegionID]types.LocationID{types.RegionTheForge: jita},
		Logger:   zap.NewNop(),
	}, orders, stats, names, gate, storage)
}

func TestAnalyzer_Analyze(t *testing.T) {
	npcLadder := ladder(35)
	npcLadder[2].Duration = "365"

	buyLadder := ladder(36)
	for i := range buyLadder {
		buyLadder[i].IsBuyOrder = true
	}

	elsewhere := ladder(37)
	for i := range elsewhere {
		elsewhere[i].LocationID = 60008494
	}

	var snapshot []types.Order
	snapshot = append(snapshot, ladder(34)...)
	snapshot = append(snapshot, npcLadder...)
	snapshot = append(snapshot, buyLadder...)
	snapshot = append(snapshot, elsewhere...)
	snapshot = append(snapshot, ladder(38)...)
	snapshot = append(snapshot, ladder(39)...)
	snapshot = append(snapshot, ladder(40)...)

	stats := &fakeStatistics{
		rows: map[types.TypeID]*types.ItemStatistics{
			34: {TypeID: 34, Month: types.WindowStats{Volume: types.Int64(5000), AvgPrice: types.Float64(11)}},
			38: {TypeID: 38, Month: types.WindowStats{Volume: types.Int64(5), AvgPrice: types.Float64(11)}},
		},
		failing: map[types.TypeID]bool{39: true},
	}
	names := &fakeNames{names: map[types.TypeID]string{34: "Tritanium"}}

	analyzer := newTestAnalyzer(t, nil, stats, names, nil)

	opps, err := analyzer.Analyze(context.Background(), snapshot, types.RegionTheForge, jita)
	require.NoError(t, err)

	// 35 has an NPC order, 36 only buys, 37 is at another station and
	// 38 fails the volume gate. 39 cannot read its statistics and 40 has
	// no statistics row; both pass the gate.
	require.Len(t, opps, 3)

	assert.Equal(t, types.TypeID(34), opps[0].TypeID)
	assert.Equal(t, "Tritanium", opps[0].ItemName)
	assert.Equal(t, types.RegionTheForge, opps[0].RegionID)
	assert.Equal(t, jita, opps[0].LocationID)
	assert.Equal(t, 2, opps[0].OrdersCleared)

	assert.Equal(t, types.TypeID(39), opps[1].TypeID)
	assert.Equal(t, types.TypeID(40), opps[2].TypeID)
	assert.Equal(t, types.UnknownItemName, opps[2].ItemName)
}

func TestAnalyzer_StatisticsErrorPassesGate(t *testing.T) {
	tests := []struct {
		name  string
		stats *fakeStatistics
	}{
		{
			name:  "statistics error",
			stats: &fakeStatistics{failing: map[types.TypeID]bool{34: true}},
		},
		{
			name:  "no statistics row",
			stats: &fakeStatistics{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The test gate requires a monthly volume of 100, which no statistics can show.
			analyzer := newTestAnalyzer(t, nil, tt.stats, nil, nil)

			opps, err := analyzer.Analyze(context.Background(), ladder(34), types.RegionTheForge, jita)
			require.NoError(t, err)
			require.Len(t, opps, 1)
			assert.Equal(t, types.TypeID(34), opps[0].TypeID)
		})
	}
}

func TestAnalyzer_SortsByROI(t *testing.T) {
	var snapshot []types.Order
	snapshot = append(snapshot, ladder(34)...)
	snapshot = append(snapshot,
		sellOrder(41, 10, 100),
		sellOrder(41, 30, 10),
	)
	snapshot = append(snapshot, ladder(33)...)

	analyzer := newTestAnalyzer(t, nil, &fakeStatistics{}, nil, nil)

	opps, err := analyzer.Analyze(context.Background(), snapshot, types.RegionTheForge, jita)
	require.NoError(t, err)
	require.Len(t, opps, 3)

	// 41 relists at 29.99 after one order. 33 and 34 tie and fall back to type ID.
	assert.Equal(t, types.TypeID(41), opps[0].TypeID)
	assert.Equal(t, types.TypeID(33), opps[1].TypeID)
	assert.Equal(t, types.TypeID(34), opps[2].TypeID)

	for i := 1; i < len(opps); i++ {
		assert.GreaterOrEqual(t, opps[i-1].ROIPercent, opps[i].ROIPercent)
	}
}

func TestAnalyzer_NPCFilterDisabled(t *testing.T) {
	npcLadder := ladder(35)
	npcLadder[0].Duration = "365"

	analyzer := newTestAnalyzer(t, nil, &fakeStatistics{}, nil, nil)
	analyzer.config.Settings.NPCFilterEnabled = false

	opps, err := analyzer.Analyze(context.Background(), npcLadder, types.RegionTheForge, jita)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, types.TypeID(35), opps[0].TypeID)
}

func TestAnalyzer_BoundedConcurrency(t *testing.T) {
	var snapshot []types.Order
	for typeID := types.TypeID(1000); typeID < 1060; typeID++ {
		snapshot = append(snapshot, ladder(typeID)...)
	}

	stats := &fakeStatistics{delay: 5 * time.Millisecond}
	analyzer := newTestAnalyzer(t, nil, stats, nil, nil)

	opps, err := analyzer.Analyze(context.Background(), snapshot, types.RegionTheForge, jita)
	require.NoError(t, err)
	assert.Len(t, opps, 60)
	assert.LessOrEqual(t, stats.peak.Load(), int32(10))
	assert.Positive(t, stats.peak.Load())
}

func TestAnalyzer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := newTestAnalyzer(t, nil, &fakeStatistics{}, nil, nil)

	_, err := analyzer.Analyze(ctx, ladder(34), types.RegionTheForge, jita)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzer_EmptySnapshot(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil, &fakeStatistics{}, nil, nil)

	opps, err := analyzer.Analyze(context.Background(), nil, types.RegionTheForge, jita)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestAnalyzer_AnalyzeRegion(t *testing.T) {
	t.Run("stores-results", func(t *testing.T) {
		storage := NewMockStorage()
		analyzer := newTestAnalyzer(t, &fakeOrders{orders: ladder(34)}, &fakeStatistics{}, nil, storage)

		opps, err := analyzer.AnalyzeRegion(context.Background(), types.RegionTheForge)
		require.NoError(t, err)
		require.Len(t, opps, 1)
		assert.Len(t, storage.GetOpportunities(), 1)
	})

	t.Run("storage-failure-keeps-results", func(t *testing.T) {
		storage := NewMockStorage()
		storage.Err = errors.New("disk full")
		analyzer := newTestAnalyzer(t, &fakeOrders{orders: ladder(34)}, &fakeStatistics{}, nil, storage)

		opps, err := analyzer.AnalyzeRegion(context.Background(), types.RegionTheForge)
		require.NoError(t, err)
		assert.Len(t, opps, 1)
	})

	t.Run("unknown-region", func(t *testing.T) {
		analyzer := newTestAnalyzer(t, &fakeOrders{}, &fakeStatistics{}, nil, nil)

		_, err := analyzer.AnalyzeRegion(context.Background(), types.RegionDomain)
		assert.ErrorIs(t, err, ErrUnknownRegion)
	})

	t.Run("order-fetch-failure", func(t *testing.T) {
		upstream := errors.New("esi unavailable")
		analyzer := newTestAnalyzer(t, &fakeOrders{err: upstream}, &fakeStatistics{}, nil, nil)

		_, err := analyzer.AnalyzeRegion(context.Background(), types.RegionTheForge)
		assert.ErrorIs(t, err, upstream)
	})
}

func TestOpportunity_String(t *testing.T) {
	opp := CreateTestOpportunity(34, "Tritanium")
	s := opp.String()

	assert.Contains(t, s, "Tritanium")
	assert.Contains(t, s, "ROI=72.41%")
}
