package arbitrage

import (
	"context"
	"sync"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	Reports []*ScanReport
	Err     error
	mu      sync.Mutex
}

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Reports: make([]*ScanReport, 0),
	}
}

// StoreArbitrage records the report unless Err is set.
func (m *MockStorage) StoreArbitrage(ctx context.Context, report *ScanReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.Reports = append(m.Reports, report)
	return nil
}

// GetReports returns a copy of everything stored.
func (m *MockStorage) GetReports() []*ScanReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*ScanReport, len(m.Reports))
	copy(result, m.Reports)
	return result
}
