package archive

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// MinDate is the first day BitMEX has data for.
var MinDate = time.Date(2014, 11, 22, 0, 0, 0, 0, time.UTC)

// Params is the request of one archive run.
type Params struct {
	Symbols   []string
	Channels  []types.Channel
	Intervals []types.Interval
	// Start and End are inclusive UTC days.
	Start time.Time
	End   time.Time
	// Root is the archive root directory. It must exist.
	Root string
}

// Normalize validates p and returns a copy with duplicates removed, dates
// truncated to UTC days and End clamped to the last complete day before now.
// Every failure is a configuration error.
func (p Params) Normalize(now time.Time) (Params, error) {
	out := Params{
		Symbols:   dedupe(p.Symbols),
		Channels:  dedupe(p.Channels),
		Intervals: dedupe(p.Intervals),
		Start:     types.TruncateDay(p.Start),
		End:       types.TruncateDay(p.End),
		Root:      p.Root,
	}

	if len(out.Symbols) == 0 {
		return Params{}, archiveErrors.New(archiveErrors.ErrCodeMissingParameter, "at least one symbol is required")
	}

	for _, symbol := range out.Symbols {
		if strings.TrimSpace(symbol) == "" || strings.ContainsAny(symbol, `/\`) {
			return Params{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSymbol, "invalid symbol %q", symbol)
		}
	}

	if len(out.Channels) == 0 {
		return Params{}, archiveErrors.New(archiveErrors.ErrCodeMissingParameter, "at least one channel is required")
	}

	for _, channel := range out.Channels {
		if !channel.Valid() {
			return Params{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidParameter, "invalid channel %q (options: bars, quotes, trades)", channel)
		}
	}

	for _, interval := range out.Intervals {
		if !interval.Valid() {
			return Params{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidInterval, "invalid bar interval %q (options: 1m, 5m, 1h, 1d)", interval)
		}
	}

	hasBars := slices.Contains(out.Channels, types.ChannelBars)
	if hasBars && len(out.Intervals) == 0 {
		return Params{}, archiveErrors.New(archiveErrors.ErrCodeInvalidInterval, "channel bars requires at least one bar interval")
	}

	if !hasBars && len(out.Intervals) > 0 {
		return Params{}, archiveErrors.New(archiveErrors.ErrCodeInvalidInterval, "bar intervals given but channel bars is not enabled")
	}

	if out.Start.IsZero() || out.End.IsZero() {
		return Params{}, archiveErrors.New(archiveErrors.ErrCodeMissingParameter, "start and end dates are required")
	}

	if out.Start.Before(MinDate) {
		return Params{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidDateRange, "start date %s is before the first day of data %s",
			out.Start.Format(time.DateOnly), MinDate.Format(time.DateOnly))
	}

	if out.End.Before(out.Start) {
		return Params{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidDateRange, "end date %s is before start date %s",
			out.End.Format(time.DateOnly), out.Start.Format(time.DateOnly))
	}

	// today is still being written upstream
	if lastComplete := types.TruncateDay(now).AddDate(0, 0, -1); out.End.After(lastComplete) {
		out.End = lastComplete
	}

	if out.End.Before(out.Start) {
		return Params{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidDateRange, "no complete day between %s and now",
			out.Start.Format(time.DateOnly))
	}

	if out.Root == "" {
		return Params{}, archiveErrors.New(archiveErrors.ErrCodeInvalidConfiguration, "archive root is empty")
	}

	info, err := os.Stat(out.Root)
	if err != nil {
		return Params{}, archiveErrors.Wrapf(archiveErrors.ErrCodeInvalidConfiguration, err, "archive root %s is not accessible", out.Root)
	}

	if !info.IsDir() {
		return Params{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidConfiguration, "archive root %s is not a directory", out.Root)
	}

	return out, nil
}

// Days lists every day of the (normalized) range.
func (p Params) Days() []time.Time {
	return types.DaysBetween(p.Start, p.End.AddDate(0, 0, 1))
}

func dedupe[T comparable](values []T) []T {
	seen := make(map[T]bool, len(values))
	out := make([]T, 0, len(values))

	for _, v := range values {
		if seen[v] {
			continue
		}

		seen[v] = true
		out = append(out, v)
	}

	return out
}
