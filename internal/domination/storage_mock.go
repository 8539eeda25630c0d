package domination

import (
	"context"
	"sync"
)

// MockStorage is an in-memory Storage for tests.
// It lives here so storage and app tests can use it without import cycles.
type MockStorage struct {
	Opportunities []*Opportunity
	Err           error
	mu            sync.Mutex
}

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Opportunities: make([]*Opportunity, 0),
	}
}

// StoreOpportunities appends the batch unless Err is set.
func (m *MockStorage) StoreOpportunities(ctx context.Context, opps []*Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.Opportunities = append(m.Opportunities, opps...)
	return nil
}

// GetOpportunities returns a copy of everything stored.
func (m *MockStorage) GetOpportunities() []*Opportunity {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*Opportunity, len(m.Opportunities))
	copy(result, m.Opportunities)
	return result
}
