package esi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/karnyvex/dominator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:   server.URL,
		UserAgent: "dominator-test",
		MaxPages:  10,
		Logger:    zap.NewNop(),
	})
}

func orderJSON(id int64, typeID int32, price float64) string {
	return fmt.Sprintf(`{"order_id":%d,"type_id":%d,"location_id":60003760,"system_id":30000142,`+
		`"volume_total":100,"volume_remain":50,"min_volume":1,"price":%g,"is_buy_order":false,`+
		`"duration":90,"issued":"2026-01-02T03:04:05Z","range":"region"}`, id, typeID, price)
}

func TestClient_RegionOrders_XPages(t *testing.T) {
	var requests atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/markets/10000002/orders/", r.URL.Path)
		assert.Equal(t, "tranquility", r.URL.Query().Get("datasource"))
		assert.Equal(t, "all", r.URL.Query().Get("order_type"))
		assert.Equal(t, "dominator-test", r.Header.Get("User-Agent"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("X-Pages", "3")
		fmt.Fprintf(w, "[%s,%s]", orderJSON(int64(page*10), 34, 5.5), orderJSON(int64(page*10+1), 35, 7))
	})

	orders, err := client.RegionOrders(context.Background(), types.RegionTheForge)
	require.NoError(t, err)

	assert.Len(t, orders, 6)
	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, int64(10), orders[0].OrderID)
	assert.Equal(t, int64(31), orders[5].OrderID)
	assert.Equal(t, types.OrderDuration("90"), orders[0].Duration)
	assert.True(t, orders[0].IsSell())
}

func TestClient_RegionOrders_NoHeaderStopsAtEmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, "[%s]", orderJSON(1, 34, 5))
		case "2":
			fmt.Fprintf(w, "[%s]", orderJSON(2, 34, 6))
		default:
			fmt.Fprint(w, "[]")
		}
	})

	orders, err := client.RegionOrders(context.Background(), types.RegionTheForge)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestClient_RegionOrders_PageCap(t *testing.T) {
	var requests atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("X-Pages", "50")
		fmt.Fprintf(w, "[%s]", orderJSON(1, 34, 5))
	})

	orders, err := client.RegionOrders(context.Background(), types.RegionTheForge)
	require.NoError(t, err)
	assert.Len(t, orders, 10)
	assert.Equal(t, int32(10), requests.Load())
}

func TestClient_RegionOrders_SkipsMalformedRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pages", "1")
		fmt.Fprintf(w, `[%s,{"order_id":"nope","price":"cheap"},%s]`, orderJSON(1, 34, 5), orderJSON(2, 34, 6))
	})

	orders, err := client.RegionOrders(context.Background(), types.RegionTheForge)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestClient_RegionOrders_PageFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pages", "3")
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "upstream timeout", http.StatusGatewayTimeout)
			return
		}
		fmt.Fprintf(w, "[%s]", orderJSON(1, 34, 5))
	})

	_, err := client.RegionOrders(context.Background(), types.RegionTheForge)
	require.Error(t, err)

	var upstream *types.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusGatewayTimeout, upstream.StatusCode)
	assert.Equal(t, "esi", upstream.Source)
}

func TestClient_RegionOrders_Cancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.RegionOrders(ctx, types.RegionTheForge)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_TypeName_DeadlineKeepsCause(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.TypeName(ctx, 34)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var upstream *types.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Zero(t, upstream.StatusCode)
}

func TestClient_TypeName(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantName string
		wantErr  bool
	}{
		{name: "found", status: http.StatusOK, body: `{"type_id":34,"name":"Tritanium"}`, wantName: "Tritanium"},
		{name: "not-found", status: http.StatusNotFound, body: `{"error":"Type not found"}`, wantErr: true},
		{name: "no-name", status: http.StatusOK, body: `{"type_id":34}`, wantErr: true},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/universe/types/34/", r.URL.Path)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			name, err := client.TypeName(context.Background(), 34)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{Logger: zap.NewNop()})

	assert.Equal(t, defaultMaxPages, client.config.MaxPages)
	assert.NotNil(t, client.rateLimiter)
}
