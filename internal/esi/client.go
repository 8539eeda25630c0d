package esi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	datasource         = "tranquility"
	defaultMaxPages    = 100
	pageFetchLimit     = 4
	defaultHTTPTimeout = 30 * time.Second
)

// Config holds ESI client configuration.
type Config struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	MaxPages          int
	Logger            *zap.Logger
}

// Client is a rate-limited client for the public ESI market endpoints.
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new ESI client.
func NewClient(cfg Config) *Client {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = defaultMaxPages
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      cfg.Logger,
	}
}

// RegionOrders fetches every buy and sell order of a region.
// Pages come from X-Pages when ESI sends it; otherwise paging stops at the first empty page.
// Malformed records are skipped. Any failed page fails the whole fetch.
func (c *Client) RegionOrders(ctx context.Context, regionID types.RegionID) ([]types.Order, error) {
	start := time.Now()

	first, totalPages, err := c.fetchOrderPage(ctx, regionID, 1)
	if err != nil {
		return nil, err
	}

	pages := [][]types.Order{first}

	switch {
	case totalPages > 1:
		if totalPages > c.config.MaxPages {
			c.logger.Warn("esi-page-count-capped",
				zap.Int32("region-id", int32(regionID)),
				zap.Int("pages", totalPages),
				zap.Int("max-pages", c.config.MaxPages))
			totalPages = c.config.MaxPages
		}

		rest := make([][]types.Order, totalPages-1)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pageFetchLimit)
		for page := 2; page <= totalPages; page++ {
			g.Go(func() error {
				orders, _, err := c.fetchOrderPage(gctx, regionID, page)
				if err != nil {
					return err
				}
				rest[page-2] = orders
				return nil
			})
		}

		err = g.Wait()
		if err != nil {
			return nil, err
		}
		pages = append(pages, rest...)

	case totalPages == 0 && len(first) > 0:
		for page := 2; page <= c.config.MaxPages; page++ {
			orders, _, err := c.fetchOrderPage(ctx, regionID, page)
			if err != nil {
				return nil, err
			}
			if len(orders) == 0 {
				break
			}
			pages = append(pages, orders)
		}
	}

	var all []types.Order
	for _, page := range pages {
		all = append(all, page...)
	}

	RegionOrdersFetched.Add(float64(len(all)))
	FetchDurationSeconds.WithLabelValues("region_orders").Observe(time.Since(start).Seconds())

	c.logger.Info("esi-region-orders-fetched",
		zap.Int32("region-id", int32(regionID)),
		zap.Int("pages", len(pages)),
		zap.Int("order-count", len(all)),
		zap.Duration("duration", time.Since(start)))

	return all, nil
}

// fetchOrderPage returns the page's orders and the X-Pages value, 0 when absent.
func (c *Client) fetchOrderPage(ctx context.Context, regionID types.RegionID, page int) ([]types.Order, int, error) {
	requestURL := fmt.Sprintf("%s/markets/%d/orders/?datasource=%s&order_type=all&page=%d",
		c.config.BaseURL, regionID, datasource, page)

	body, header, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch orders page %d for region %d: %w", page, regionID, err)
	}

	totalPages := 0
	if p := header.Get("X-Pages"); p != "" {
		totalPages, err = strconv.Atoi(p)
		if err != nil {
			return nil, 0, fmt.Errorf("parse X-Pages %q: %w", p, err)
		}
	}

	var records []json.RawMessage
	err = json.Unmarshal(body, &records)
	if err != nil {
		return nil, 0, fmt.Errorf("unmarshal orders page %d for region %d: %w", page, regionID, err)
	}

	orders := make([]types.Order, 0, len(records))
	for _, record := range records {
		var order types.Order
		err = json.Unmarshal(record, &order)
		if err != nil {
			MalformedRecordsTotal.Inc()
			c.logger.Debug("esi-order-skipped",
				zap.Int32("region-id", int32(regionID)),
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		orders = append(orders, order)
	}

	c.logger.Debug("esi-orders-page-fetched",
		zap.Int32("region-id", int32(regionID)),
		zap.Int("page", page),
		zap.Int("order-count", len(orders)))

	return orders, totalPages, nil
}

// TypeName looks up an item's display name.
func (c *Client) TypeName(ctx context.Context, typeID types.TypeID) (string, error) {
	requestURL := fmt.Sprintf("%s/universe/types/%d/?datasource=%s", c.config.BaseURL, typeID, datasource)

	body, _, err := c.get(ctx, requestURL)
	if err != nil {
		return "", fmt.Errorf("fetch type %d: %w", typeID, err)
	}

	var info struct {
		Name string `json:"name"`
	}
	err = json.Unmarshal(body, &info)
	if err != nil {
		return "", fmt.Errorf("unmarshal type %d: %w", typeID, err)
	}
	if info.Name == "" {
		return "", fmt.Errorf("type %d has no name", typeID)
	}

	return info.Name, nil
}

// get performs one throttled GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, http.Header, error) {
	err := c.rateLimiter.Wait(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		RequestsTotal.WithLabelValues("error").Inc()
		return nil, nil, &types.UpstreamError{Source: "esi", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	RequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &types.UpstreamError{Source: "esi", StatusCode: resp.StatusCode, Message: string(body)}
	}

	return body, resp.Header, nil
}
