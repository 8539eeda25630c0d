package history

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
)

const defaultTimeout = 2 * time.Minute

// Config holds Mokaam client configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Client downloads bulk market history from the Mokaam API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Mokaam client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: cfg.Logger,
	}
}

// FetchRegion downloads the statistics of every item traded in a region.
func (c *Client) FetchRegion(ctx context.Context, regionID types.RegionID) ([]byte, error) {
	params := url.Values{}
	params.Add("regionid", strconv.FormatInt(int64(regionID), 10))

	body, err := c.get(ctx, fmt.Sprintf("%s/API/market/all?%s", c.config.BaseURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("fetch statistics for region %d: %w", regionID, err)
	}
	return body, nil
}

// FetchTypeNames downloads the type ID to name table.
func (c *Client) FetchTypeNames(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, c.config.BaseURL+"/API/market/type_ids")
	if err != nil {
		return nil, fmt.Errorf("fetch type names: %w", err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug("mokaam-request",
		zap.String("url", requestURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		FetchFailuresTotal.Inc()
		return nil, &types.UpstreamError{Source: "mokaam", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		FetchFailuresTotal.Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		FetchFailuresTotal.Inc()
		return nil, &types.UpstreamError{Source: "mokaam", StatusCode: resp.StatusCode, Message: string(body)}
	}

	c.logger.Debug("mokaam-response",
		zap.String("url", requestURL),
		zap.Int("bytes", len(body)))

	return body, nil
}
