package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultDumpURL hosts one gzipped CSV per channel and day with every symbol in it.
const DefaultDumpURL = "https://s3-eu-west-1.amazonaws.com/public.bitmex.com/data"

// DumpConfig configures a DumpSource.
type DumpConfig struct {
	BaseURL             string
	RateLimitBackoff    time.Duration
	MaxRateLimitRetries int
	HTTPTimeout         time.Duration
}

// DumpSource reads quotes and trades from the public daily dumps, keeping
// the rows of the window's symbol. A dump holds every symbol, so each day is
// downloaded once per requested symbol.
type DumpSource struct {
	baseURL   string
	transport *transport
}

// NewDumpSource creates a DumpSource.
func NewDumpSource(cfg DumpConfig, logger *zap.Logger, opts ...Option) *DumpSource {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDumpURL
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Minute
	}

	t := &transport{
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		backoff: NewBackoff(cfg.RateLimitBackoff, cfg.MaxRateLimitRetries, nil),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	return &DumpSource{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		transport: t,
	}
}

func (d *DumpSource) Name() string {
	return "bitmex-dump"
}

func (d *DumpSource) Supports(channel types.Channel) bool {
	return channel == types.ChannelQuotes || channel == types.ChannelTrades
}

// Backoff exposes the source's rate-limit state.
func (d *DumpSource) Backoff() *Backoff {
	return d.transport.backoff
}

// Paginate downloads one dump per day of the window; each day is one page.
func (d *DumpSource) Paginate(ctx context.Context, window types.Window) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		if !d.Supports(window.Channel) {
			yield(nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSource, "%s does not serve channel %s", d.Name(), window.Channel))

			return
		}

		for _, day := range window.Days() {
			if !d.streamDay(ctx, window, day, yield) {
				return
			}
		}
	}
}

// streamDay yields the rows of one dump. It returns false when iteration must stop.
func (d *DumpSource) streamDay(ctx context.Context, window types.Window, day time.Time, yield func(types.Record, error) bool) bool {
	// quotes -> quote, trades -> trade
	name := strings.TrimSuffix(string(window.Channel), "s")
	reqURL := d.baseURL + "/" + name + "/" + day.Format("20060102") + ".csv.gz"

	resp, err := d.transport.get(ctx, reqURL)
	if err != nil {
		yield(nil, archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataFetchFailed, err, "%s dump for %s", window.Channel, day.Format(time.DateOnly)))

		return false
	}
	defer resp.Body.Close()

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		yield(nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataParseFailed, "invalid gzip stream", err))

		return false
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		yield(nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataParseFailed, "failed to read dump header", err))

		return false
	}

	header = append([]string(nil), header...)
	symbolCol := indexOf(header, "symbol")
	timestampCol := indexOf(header, types.TimestampField)

	if symbolCol < 0 || timestampCol < 0 {
		yield(nil, archiveErrors.Newf(archiveErrors.ErrCodeMarketDataParseFailed, "dump header %v lacks symbol or timestamp", header))

		return false
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return true
		}

		if err != nil {
			yield(nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataFetchFailed, "failed to read dump row", err))

			return false
		}

		if len(row) != len(header) || row[symbolCol] != window.Symbol {
			continue
		}

		record := make(types.Record, len(header))
		for i, name := range header {
			record[name] = row[i]
		}

		// 2019-01-01D00:00:00.123456789 -> 2019-01-01T00:00:00.123456789
		record[types.TimestampField] = strings.Replace(row[timestampCol], "D", "T", 1)

		if !yield(record, nil) {
			return false
		}
	}
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}

	return -1
}
