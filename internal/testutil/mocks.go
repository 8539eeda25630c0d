package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/karnyvex/dominator/pkg/types"
)

// MockESI is a mock HTTP server that simulates the public ESI market endpoints.
// Orders are served as a single page.
type MockESI struct {
	*httptest.Server
	Orders   map[types.RegionID][]types.Order
	Names    map[types.TypeID]string
	Requests atomic.Int64
	mu       sync.RWMutex
}

// NewMockESI creates a new mock ESI server.
func NewMockESI(orders map[types.RegionID][]types.Order, names map[types.TypeID]string) *MockESI {
	mock := &MockESI{
		Orders: orders,
		Names:  names,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.Requests.Add(1)
		mock.mu.RLock()
		defer mock.mu.RUnlock()

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		// /markets/{region}/orders/
		if len(parts) == 3 && parts[0] == "markets" && parts[2] == "orders" {
			region, err := strconv.ParseInt(parts[1], 10, 32)
			if err != nil {
				http.Error(w, `{"error":"bad region"}`, http.StatusBadRequest)
				return
			}

			page := r.URL.Query().Get("page")
			orders := mock.Orders[types.RegionID(region)]
			if page != "" && page != "1" {
				orders = nil
			}
			if orders == nil {
				orders = []types.Order{}
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Pages", "1")
			_ = json.NewEncoder(w).Encode(orders)
			return
		}

		// /universe/types/{id}/
		if len(parts) == 3 && parts[0] == "universe" && parts[1] == "types" {
			id, err := strconv.ParseInt(parts[2], 10, 32)
			name, ok := mock.Names[types.TypeID(id)]
			if err != nil || !ok {
				http.Error(w, `{"error":"Type not found!"}`, http.StatusNotFound)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"type_id": id, "name": name})
			return
		}

		http.NotFound(w, r)
	})

	mock.Server = httptest.NewServer(handler)
	return mock
}

// SetOrders replaces the order book of a region.
func (m *MockESI) SetOrders(region types.RegionID, orders []types.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders[region] = orders
}

// MockMokaam is a mock HTTP server that simulates the Mokaam bulk history API.
type MockMokaam struct {
	*httptest.Server
	Regions   map[types.RegionID][]byte
	TypeNames []byte
	Failing   map[types.RegionID]bool
	mu        sync.RWMutex
}

// NewMockMokaam creates a new mock Mokaam server.
func NewMockMokaam(regions map[types.RegionID][]byte, typeNames []byte) *MockMokaam {
	mock := &MockMokaam{
		Regions:   regions,
		TypeNames: typeNames,
		Failing:   make(map[types.RegionID]bool),
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.RLock()
		defer mock.mu.RUnlock()

		switch r.URL.Path {
		case "/API/market/all":
			id, err := strconv.ParseInt(r.URL.Query().Get("regionid"), 10, 32)
			region := types.RegionID(id)
			if err != nil || mock.Failing[region] {
				http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
				return
			}

			data, ok := mock.Regions[region]
			if !ok {
				data = []byte("{}")
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(data)

		case "/API/market/type_ids":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(mock.TypeNames)

		default:
			http.NotFound(w, r)
		}
	})

	mock.Server = httptest.NewServer(handler)
	return mock
}

// SetFailing makes imports of a region fail with 503.
func (m *MockMokaam) SetFailing(region types.RegionID, failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failing[region] = failing
}
