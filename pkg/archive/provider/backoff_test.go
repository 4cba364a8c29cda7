package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BackoffTestSuite struct {
	suite.Suite
	slept []time.Duration
}

func TestBackoffSuite(t *testing.T) {
	suite.Run(t, new(BackoffTestSuite))
}

func (suite *BackoffTestSuite) SetupTest() {
	suite.slept = nil
}

func (suite *BackoffTestSuite) recordSleep(_ context.Context, d time.Duration) error {
	suite.slept = append(suite.slept, d)

	return nil
}

func (suite *BackoffTestSuite) TestDefaults() {
	b := NewBackoff(0, 0, nil)
	suite.Equal(DefaultRateLimitBackoff, b.Delay(nil))
	suite.Equal(0, b.Count())
	suite.Equal(time.Duration(0), b.Waited())
}

func (suite *BackoffTestSuite) TestDelay() {
	b := NewBackoff(10*time.Second, 0, suite.recordSleep)

	testCases := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{name: "no hint", err: archiveErrors.NewRateLimitError(http.StatusTooManyRequests, 0, "slow down"), expected: 10 * time.Second},
		{name: "hint", err: archiveErrors.NewRateLimitError(http.StatusTooManyRequests, 3*time.Second, "slow down"), expected: 3 * time.Second},
		{name: "hint above cap", err: archiveErrors.NewRateLimitError(http.StatusTooManyRequests, 2*time.Hour, "slow down"), expected: 15 * time.Minute},
		{name: "not a rate limit error", err: errors.New("boom"), expected: 10 * time.Second},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, b.Delay(tc.err))
		})
	}
}

func (suite *BackoffTestSuite) TestWaitAccumulates() {
	b := NewBackoff(5*time.Second, 0, suite.recordSleep)

	suite.NoError(b.Wait(context.Background(), archiveErrors.NewRateLimitError(429, 0, "")))
	suite.NoError(b.Wait(context.Background(), archiveErrors.NewRateLimitError(429, time.Second, "")))

	suite.Equal([]time.Duration{5 * time.Second, time.Second}, suite.slept)
	suite.Equal(2, b.Count())
	suite.Equal(6*time.Second, b.Waited())
}

func (suite *BackoffTestSuite) TestMaxRetries() {
	b := NewBackoff(time.Second, 2, suite.recordSleep)
	rateLimitErr := archiveErrors.NewRateLimitError(429, 0, "")

	suite.NoError(b.Wait(context.Background(), rateLimitErr))
	suite.NoError(b.Wait(context.Background(), rateLimitErr))

	err := b.Wait(context.Background(), rateLimitErr)
	suite.Error(err)
	suite.True(archiveErrors.IsFetchError(err))
	suite.True(archiveErrors.IsRateLimitError(err))
	suite.Len(suite.slept, 2)

	b.Reset()
	suite.NoError(b.Wait(context.Background(), rateLimitErr))
	suite.Equal(3, b.Count())
}

func (suite *BackoffTestSuite) TestUnlimitedRetries() {
	b := NewBackoff(time.Second, 0, suite.recordSleep)
	for i := 0; i < 100; i++ {
		suite.Require().NoError(b.Wait(context.Background(), archiveErrors.NewRateLimitError(429, 0, "")))
	}

	suite.Equal(100, b.Count())
}

func (suite *BackoffTestSuite) TestCancelledSleep() {
	b := NewBackoff(time.Hour, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Wait(ctx, archiveErrors.NewRateLimitError(429, 0, ""))
	suite.Error(err)
	suite.True(archiveErrors.IsFetchError(err))
	suite.ErrorIs(err, context.Canceled)
}
