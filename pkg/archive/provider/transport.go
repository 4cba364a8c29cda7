package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "argo-archiver/1.0"

// transport issues throttled GET requests and absorbs rate-limit responses.
type transport struct {
	client  *http.Client
	limiter *rate.Limiter
	backoff *Backoff
	logger  *zap.Logger
	now     func() time.Time
}

// Option customizes the HTTP plumbing of a source.
type Option func(*transport)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *transport) {
		t.client = client
	}
}

// WithSleep replaces the function used to wait out rate-limit backoffs.
func WithSleep(sleep SleepFunc) Option {
	return func(t *transport) {
		t.backoff.sleep = sleep
	}
}

// WithLimiter replaces the request throttle.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(t *transport) {
		t.limiter = limiter
	}
}

// WithClock replaces the clock used to interpret X-RateLimit-Reset.
func WithClock(now func() time.Time) Option {
	return func(t *transport) {
		t.now = now
	}
}

// get returns the first response that is not rate limited. The caller closes the body.
func (t *transport) get(ctx context.Context, reqURL string) (*http.Response, error) {
	for {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataFetchFailed, "rate limiter wait failed", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataFetchFailed, "failed to build request", err)
		}

		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataFetchFailed, err, "GET %s", redactQuery(reqURL))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimitErr := t.rateLimitError(resp)
			t.logger.Warn("Rate limited, backing off",
				zap.String("url", redactQuery(reqURL)),
				zap.Duration("delay", t.backoff.Delay(rateLimitErr)),
			)

			if err := t.backoff.Wait(ctx, rateLimitErr); err != nil {
				return nil, err
			}

			continue
		}

		t.backoff.Reset()

		if resp.StatusCode != http.StatusOK {
			message := readErrorMessage(resp.Body)
			resp.Body.Close()

			return nil, archiveErrors.Newf(archiveErrors.ErrCodeMarketDataFetchFailed, "GET %s: HTTP %d: %s", redactQuery(reqURL), resp.StatusCode, message)
		}

		return resp, nil
	}
}

func (t *transport) rateLimitError(resp *http.Response) *archiveErrors.RateLimitError {
	message := readErrorMessage(resp.Body)
	resp.Body.Close()

	return archiveErrors.NewRateLimitError(resp.StatusCode, retryAfter(resp.Header, t.now()), message)
}

// retryAfter reads the server hint: Retry-After (seconds or HTTP date), then
// the epoch second in X-RateLimit-Reset. Zero means no usable hint.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}

		if at, err := http.ParseTime(v); err == nil {
			if d := at.Sub(now); d > 0 {
				return d
			}
		}
	}

	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset")); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Unix(epoch, 0).Sub(now); d > 0 {
				return d
			}
		}
	}

	return 0
}

// readErrorMessage extracts {"error":{"message":...}} from a BitMEX error body,
// falling back to the raw (truncated) body.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return err.Error()
	}

	var payload struct {
		Error struct {
			Message string `json:"message"`
			Name    string `json:"name"`
		} `json:"error"`
	}

	if json.Unmarshal(raw, &payload) == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}

	return strings.TrimSpace(string(raw))
}

func redactQuery(reqURL string) string {
	if i := strings.IndexByte(reqURL, '?'); i >= 0 {
		return reqURL[:i]
	}

	return reqURL
}
