package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public BitMEX REST API.
	DefaultBaseURL = "https://www.bitmex.com/api/v1"
	// DefaultPageSize matches the page size of the historical download scripts.
	DefaultPageSize = 500
	// MaxPageSize is the largest count the API accepts.
	MaxPageSize = 1000
	// DefaultRequestsPerMinute is the unauthenticated request budget.
	DefaultRequestsPerMinute = 30

	bitmexTimeLayout = "2006-01-02T15:04:05.000Z"
)

// BitmexConfig configures a BitmexClient.
type BitmexConfig struct {
	BaseURL             string
	PageSize            int
	RequestsPerMinute   int
	RateLimitBackoff    time.Duration
	MaxRateLimitRetries int
	HTTPTimeout         time.Duration
}


// BitmexClient pages through the BitMEX bucketed trade, quote and trade endpoints.
type BitmexClient struct {
	baseURL   string
	pageSize  int
	transport *transport
}

// NewBitmexClient creates a client. Zero config values fall back to the defaults.
func NewBitmexClient(cfg BitmexConfig, logger *zap.Logger, opts ...Option) (*BitmexClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, archiveErrors.Wrapf(archiveErrors.ErrCodeInvalidConfiguration, err, "invalid base url %q", cfg.BaseURL)
	}

	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}

	if cfg.PageSize < 0 || cfg.PageSize > MaxPageSize {
		return nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidConfiguration, "page size must be between 1 and %d, got %d", MaxPageSize, cfg.PageSize)
	}

	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	c := &BitmexClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
		transport: &transport{
			client:  &http.Client{Timeout: cfg.HTTPTimeout},
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
			backoff: NewBackoff(cfg.RateLimitBackoff, cfg.MaxRateLimitRetries, nil),
			logger:  logger,
			now:     time.Now,
		},
	}

	for _, opt := range opts {
		opt(c.transport)
	}

	return c, nil
}

func (c *BitmexClient) Name() string {
	return "bitmex-api"
}

// Supports reports true for every channel.
func (c *BitmexClient) Supports(channel types.Channel) bool {
	return channel.Valid()
}

// Backoff exposes the client's rate-limit state.
func (c *BitmexClient) Backoff() *Backoff {
	return c.transport.backoff
}

// PageSize returns the number of records requested per page.
func (c *BitmexClient) PageSize() int {
	return c.pageSize
}

// Paginate pages through the window using the row offset as cursor. A page shorter
// than the page size ends the sequence.
func (c *BitmexClient) Paginate(ctx context.Context, window types.Window) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		endpoint, query, err := c.windowQuery(window)
		if err != nil {
			yield(nil, err)

			return
		}

		offset := 0
		for {
			page, err := c.fetchPage(ctx, endpoint, query, offset)
			if err != nil {
				yield(nil, archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataFetchFailed, err, "%s at offset %d", window, offset))

				return
			}

			c.transport.logger.Debug("Fetched page",
				zap.String("window", window.String()),
				zap.Int("offset", offset),
				zap.Int("records", len(page)),
			)

			for _, record := range page {
				if !yield(record, nil) {
					return
				}
			}

			if len(page) < c.pageSize {
				return
			}

			offset += len(page)
		}
	}
}

// ListSymbols returns every instrument symbol the exchange lists or has listed.
func (c *BitmexClient) ListSymbols(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("columns", "symbol")
	query.Set("reverse", "false")

	var symbols []string

	offset := 0
	for {
		page, err := c.fetchPage(ctx, "/instrument", query, offset)
		if err != nil {
			return nil, err
		}

		for _, record := range page {
			if s, ok := record["symbol"].(string); ok {
				symbols = append(symbols, s)
			}
		}

		if len(page) < c.pageSize {
			return symbols, nil
		}

		offset += len(page)
	}
}

// windowQuery returns the endpoint and fixed query parameters of a window.
// BitMEX treats endTime as inclusive, so the last millisecond of the window is sent.
func (c *BitmexClient) windowQuery(window types.Window) (string, url.Values, error) {
	if window.Symbol == "" {
		return "", nil, archiveErrors.New(archiveErrors.ErrCodeMissingParameter, "window has no symbol")
	}

	if !window.End.After(window.Start) {
		return "", nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidDateRange, "empty window %s", window)
	}

	query := url.Values{}
	query.Set("symbol", window.Symbol)
	query.Set("reverse", "false")
	query.Set("startTime", window.Start.UTC().Format(bitmexTimeLayout))
	query.Set("endTime", window.End.Add(-time.Millisecond).UTC().Format(bitmexTimeLayout))

	switch window.Channel {
	case types.ChannelBars:
		if window.Interval.IsNone() {
			return "", nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidInterval, "bars window %s has no interval", window)
		}

		query.Set("binSize", string(window.Interval.Unwrap()))
		query.Set("partial", "false")

		return "/trade/bucketed", query, nil
	case types.ChannelQuotes:
		return "/quote", query, nil
	case types.ChannelTrades:
		return "/trade", query, nil
	default:
		return "", nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidConfiguration, "unsupported channel %q", window.Channel)
	}
}

// fetchPage requests one page starting at offset.
func (c *BitmexClient) fetchPage(ctx context.Context, endpoint string, query url.Values, offset int) ([]types.Record, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}

	q.Set("count", strconv.Itoa(c.pageSize))
	q.Set("start", strconv.Itoa(offset))

	resp, err := c.transport.get(ctx, c.baseURL+endpoint+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var page []types.Record
	if err := decoder.Decode(&page); err != nil {
		return nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataParseFailed, fmt.Sprintf("failed to decode %s response", endpoint), err)
	}

	return page, nil
}
