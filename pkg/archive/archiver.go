// Package archive downloads historical market data into a day-partitioned CSV archive.
package archive

import (
	"context"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-archiver/internal/types"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/layout"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/provider"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/writer"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"go.uber.org/zap"
)

// OnProgress is called each time a day reaches a final status.
type OnProgress func(current int, total int, message string)

// SymbolLister lists the symbols the exchange knows.
type SymbolLister interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// Archiver maps the symbol × channel × interval × day space of a request onto
// request windows and persists their records, one file per day.
type Archiver struct {
	config     Config
	source     provider.Source
	symbols    SymbolLister
	dayWriter  writer.DayWriter
	logger     *zap.Logger
	onProgress OnProgress
	now        func() time.Time
}

// ArchiverOption customizes an Archiver.
type ArchiverOption func(*Archiver)

// WithSymbolLister validates requested symbols against lister before any download.
func WithSymbolLister(lister SymbolLister) ArchiverOption {
	return func(a *Archiver) {
		a.symbols = lister
	}
}

// WithProgress registers a progress callback.
func WithProgress(onProgress OnProgress) ArchiverOption {
	return func(a *Archiver) {
		a.onProgress = onProgress
	}
}

// WithDayWriter replaces the CSV day writer.
func WithDayWriter(dayWriter writer.DayWriter) ArchiverOption {
	return func(a *Archiver) {
		a.dayWriter = dayWriter
	}
}

// WithNow replaces the clock used to clamp the end date.
func WithNow(now func() time.Time) ArchiverOption {
	return func(a *Archiver) {
		a.now = now
	}
}

// NewArchiver creates an Archiver reading from source.
func NewArchiver(config Config, source provider.Source, logger *zap.Logger, opts ...ArchiverOption) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Archiver{
		config:     config,
		source:     source,
		dayWriter:  writer.NewCSVWriter(),
		logger:     logger,
		onProgress: func(int, int, string) {},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// combinationPlan holds the days of one combination that have no file yet.
type combinationPlan struct {
	combination Combination
	missing     []time.Time
}

// Run archives every day of params. Days whose file exists are skipped without
// a network call; the missing days of each combination are fetched in
// contiguous windows of at most Config.MaxWindowDays days.
//
// A configuration error aborts the run before any download and is returned
// with a nil report. Fetch and persistence failures are recorded in the report
// and the run continues; callers check Report.HasFailures. A cancelled ctx
// marks the remaining days FAILED and is returned together with the report.
func (a *Archiver) Run(ctx context.Context, params Params) (*Report, error) {
	params, err := params.Normalize(a.now())
	if err != nil {
		return nil, err
	}

	if a.config.MaxWindowDays <= 0 {
		return nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidConfiguration, "max window days must be positive, got %d", a.config.MaxWindowDays)
	}

	for _, channel := range params.Channels {
		if !a.source.Supports(channel) {
			return nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSource, "source %s does not serve channel %s", a.source.Name(), channel)
		}
	}

	if err := a.checkSymbols(ctx, params.Symbols); err != nil {
		return nil, err
	}

	report := newReport()
	report.StartedAt = a.now()

	plans, err := a.plan(params, report)
	if err != nil {
		return nil, err
	}

	total := len(report.entries)
	done := report.Count(StatusSkipped)

	a.logger.Info("Starting archive run",
		zap.Strings("symbols", params.Symbols),
		zap.Int("combinations", len(plans)),
		zap.Int("days", total),
		zap.Int("skipped", done),
		zap.String("start", params.Start.Format(time.DateOnly)),
		zap.String("end", params.End.Format(time.DateOnly)),
	)
	a.onProgress(done, total, "skipped existing days")

	partitioner := writer.NewDayPartitioner(params.Root, a.config.Exchange, a.dayWriter, a.logger)

	for _, p := range plans {
		for _, days := range contiguousRuns(p.missing, a.config.MaxWindowDays) {
			if ctx.Err() != nil {
				a.failRemaining(report, ctx.Err())
				report.FinishedAt = a.now()

				return report, ctx.Err()
			}

			done += a.fetchWindow(ctx, partitioner, report, p.combination, days)
			a.onProgress(done, total, p.combination.String()+" "+days[len(days)-1].Format(time.DateOnly))
		}
	}

	report.FinishedAt = a.now()

	a.logger.Info("Archive run finished",
		zap.Int("skipped", report.Count(StatusSkipped)),
		zap.Int("written", report.Count(StatusWritten)),
		zap.Int("failed", report.Count(StatusFailed)),
	)

	return report, nil
}

// plan registers every day of every combination and marks existing files SKIPPED.
func (a *Archiver) plan(params Params, report *Report) ([]combinationPlan, error) {
	var plans []combinationPlan

	days := params.Days()

	for _, symbol := range params.Symbols {
		for _, channel := range params.Channels {
			intervals := []types.Interval{""}
			if channel.HasIntervals() {
				intervals = params.Intervals
			}

			for _, interval := range intervals {
				p := combinationPlan{combination: Combination{Symbol: symbol, Channel: channel, Interval: interval}}

				for _, day := range days {
					path, err := layout.BuildPath(params.Root, a.config.Exchange, symbol, channel, interval, day)
					if err != nil {
						return nil, err
					}

					entry := report.add(p.combination, day, path)

					exists, err := layout.Exists(path)
					if err != nil {
						return nil, err
					}

					if exists {
						entry.Status = StatusSkipped

						continue
					}

					p.missing = append(p.missing, day)
				}

				plans = append(plans, p)
			}
		}
	}

	return plans, nil
}

// fetchWindow fetches and writes one window of consecutive days and returns
// the number of days that reached a final status.
func (a *Archiver) fetchWindow(ctx context.Context, partitioner *writer.DayPartitioner, report *Report, combination Combination, days []time.Time) int {
	interval := optional.None[types.Interval]()
	if combination.Interval != "" {
		interval = optional.Some(combination.Interval)
	}

	window := types.NewWindow(combination.Symbol, combination.Channel, interval, days[0], days[len(days)-1].AddDate(0, 0, 1))

	for _, day := range days {
		report.get(combination, day).Status = StatusFetching
	}

	a.logger.Info("Fetching window", zap.String("window", window.String()), zap.String("source", a.source.Name()))

	written, err := partitioner.PartitionAndWrite(a.source.Paginate(ctx, window), window)

	for _, day := range written {
		if entry := report.get(combination, day); entry != nil {
			entry.Status = StatusWritten
		}
	}

	if err == nil {
		return len(days)
	}

	var failed []string

	for _, day := range days {
		entry := report.get(combination, day)
		if entry.Status != StatusFetching {
			continue
		}

		entry.Status = StatusFailed
		entry.Err = err
		failed = append(failed, day.Format(time.DateOnly))
	}

	a.logger.Error("Failed to archive window",
		zap.String("symbol", combination.Symbol),
		zap.String("channel", string(combination.Channel)),
		zap.String("interval", string(combination.Interval)),
		zap.Strings("days", failed),
		zap.Int("written", len(written)),
		zap.Error(err),
	)

	return len(days)
}

func (a *Archiver) failRemaining(report *Report, err error) {
	for _, e := range report.entries {
		if e.Status == StatusPending || e.Status == StatusFetching {
			e.Status = StatusFailed
			e.Err = err
		}
	}
}

// checkSymbols rejects symbols the exchange never listed.
func (a *Archiver) checkSymbols(ctx context.Context, symbols []string) error {
	if a.symbols == nil || a.config.SkipSymbolCheck {
		return nil
	}

	known, err := a.symbols.ListSymbols(ctx)
	if err != nil {
		return archiveErrors.Wrap(archiveErrors.ErrCodeMarketDataFetchFailed, "failed to list instruments", err)
	}

	valid := make(map[string]bool, len(known))
	for _, s := range known {
		valid[s] = true
	}

	var unknown []string

	for _, s := range symbols {
		if !valid[s] {
			unknown = append(unknown, s)
		}
	}

	if len(unknown) > 0 {
		return archiveErrors.Newf(archiveErrors.ErrCodeInvalidSymbol, "unknown symbol(s): %s", strings.Join(unknown, ", "))
	}

	return nil
}

// contiguousRuns splits sorted days into runs of consecutive days of at most maxLen days.
func contiguousRuns(days []time.Time, maxLen int) [][]time.Time {
	var runs [][]time.Time

	var current []time.Time

	for _, day := range days {
		if len(current) > 0 && (!day.Equal(current[len(current)-1].AddDate(0, 0, 1)) || len(current) >= maxLen) {
			runs = append(runs, current)
			current = nil
		}

		current = append(current, day)
	}

	if len(current) > 0 {
		runs = append(runs, current)
	}

	return runs
}
