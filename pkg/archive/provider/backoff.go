package provider

import (
	"context"
	"time"

	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// DefaultRateLimitBackoff is used when a rate-limited response carries no hint.
const DefaultRateLimitBackoff = 60 * time.Second

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Backoff is the rate-limit state of one client: how long to suspend after a
// rate-limit signal and how many times in a row it may happen for one request.
// It is owned by a single client and is not safe for concurrent use.
type Backoff struct {
	fixed      time.Duration
	maxDelay   time.Duration
	maxRetries int
	sleep      SleepFunc

	consecutive int
	total       int
	waited      time.Duration
}

// NewBackoff creates a Backoff. maxRetries of 0 retries forever.
func NewBackoff(fixed time.Duration, maxRetries int, sleep SleepFunc) *Backoff {
	if fixed <= 0 {
		fixed = DefaultRateLimitBackoff
	}

	if sleep == nil {
		sleep = sleepContext
	}

	return &Backoff{
		fixed:      fixed,
		maxDelay:   15 * time.Minute,
		maxRetries: maxRetries,
		sleep:      sleep,
	}
}

// Delay returns how long to wait after err.
func (b *Backoff) Delay(err error) time.Duration {
	delay := b.fixed
	if hint, ok := archiveErrors.GetRetryAfter(err); ok && hint > 0 {
		delay = hint
	}

	if delay > b.maxDelay {
		delay = b.maxDelay
	}

	return delay
}

// Wait suspends after the rate-limit error err. It fails with a FetchError
// once the request has been rate limited more than maxRetries times in a row.
func (b *Backoff) Wait(ctx context.Context, err error) error {
	b.consecutive++
	if b.maxRetries > 0 && b.consecutive > b.maxRetries {
		return archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataFetchFailed, err, "still rate limited after %d retries", b.maxRetries)
	}

	delay := b.Delay(err)
	b.total++
	b.waited += delay

	if sleepErr := b.sleep(ctx, delay); sleepErr != nil {
		return archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataFetchFailed, "interrupted while backing off", sleepErr)
	}

	return nil
}

// Reset clears the consecutive counter after a request went through.
func (b *Backoff) Reset() {
	b.consecutive = 0
}

// Count returns how many backoff delays were taken so far.
func (b *Backoff) Count() int {
	return b.total
}

// Waited returns the accumulated backoff delay.
func (b *Backoff) Waited() time.Duration {
	return b.waited
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
