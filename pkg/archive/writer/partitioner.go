package writer

import (
	"iter"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/layout"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"go.uber.org/zap"
)

// DayPartitioner splits a time-ordered record stream into one file per UTC day.
type DayPartitioner struct {
	root     string
	exchange string
	writer   DayWriter
	logger   *zap.Logger
}

// NewDayPartitioner creates a DayPartitioner writing below root.
func NewDayPartitioner(root, exchange string, writer DayWriter, logger *zap.Logger) *DayPartitioner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DayPartitioner{
		root:     root,
		exchange: exchange,
		writer:   writer,
		logger:   logger,
	}
}

// partition holds the partitioning state of one window.
type partition struct {
	p       *DayPartitioner
	window  types.Window
	header  []string
	written []time.Time

	// next is the first day that has neither been written nor buffered.
	next   time.Time
	day    time.Time
	buffer []types.Record
	last   time.Time
}

// PartitionAndWrite consumes records in order and writes every day of window.
// A day is written once a record of a later day arrives or the stream ends.
// Days without records get a header-only file, provided the stream ended
// cleanly or a later record proved them empty. Records outside the window are
// dropped.
//
// On error the days written so far are returned together with the error; the
// day being buffered is discarded. A source failure, an unparseable timestamp
// or a timestamp going backwards is a FetchError, a write failure a
// PersistenceError.
func (p *DayPartitioner) PartitionAndWrite(records iter.Seq2[types.Record, error], window types.Window) ([]time.Time, error) {
	st := &partition{
		p:      p,
		window: window,
		header: window.Channel.Header(),
		next:   window.Start,
	}

	if st.header == nil {
		return nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidConfiguration, "invalid channel %q", window.Channel)
	}

	for record, err := range records {
		if err != nil {
			return st.abort(archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s", window))
		}

		ts, err := record.Time()
		if err != nil {
			return st.abort(archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataParseFailed, err, "bad record in %s", window))
		}

		if ts.Before(st.last) {
			return st.abort(archiveErrors.Newf(archiveErrors.ErrCodeMarketDataParseFailed,
				"records of %s out of order: %s after %s", window, ts.Format(time.RFC3339Nano), st.last.Format(time.RFC3339Nano)))
		}

		st.last = ts

		if !window.Contains(ts) {
			p.logger.Debug("Dropping record outside window",
				zap.String("window", window.String()),
				zap.Time("timestamp", ts),
			)

			continue
		}

		day := types.TruncateDay(ts)
		if len(st.buffer) > 0 && !day.Equal(st.day) {
			if err := st.flush(); err != nil {
				return st.written, err
			}
		}

		if len(st.buffer) == 0 {
			// every day before the first record of day is known to be empty
			if err := st.fillUntil(day); err != nil {
				return st.written, err
			}

			st.day = day
		}

		st.buffer = append(st.buffer, record)
	}

	if len(st.buffer) > 0 {
		if err := st.flush(); err != nil {
			return st.written, err
		}
	}

	if err := st.fillUntil(window.End); err != nil {
		return st.written, err
	}

	return st.written, nil
}

// abort returns the days written so far with err, discarding the buffered day.
func (st *partition) abort(err error) ([]time.Time, error) {
	st.buffer = nil

	return st.written, err
}

func (st *partition) flush() error {
	if err := st.write(st.day, st.buffer); err != nil {
		return err
	}

	st.buffer = nil
	st.next = st.day.AddDate(0, 0, 1)

	return nil
}

// fillUntil writes header-only files for every day in [next, until).
func (st *partition) fillUntil(until time.Time) error {
	for ; st.next.Before(until); st.next = st.next.AddDate(0, 0, 1) {
		if err := st.write(st.next, nil); err != nil {
			return err
		}
	}

	return nil
}

func (st *partition) write(day time.Time, records []types.Record) error {
	path, err := layout.BuildPath(st.p.root, st.p.exchange, st.window.Symbol, st.window.Channel, st.window.IntervalOrEmpty(), day)
	if err != nil {
		return err
	}

	if err := st.p.writer.WriteDay(path, st.header, records); err != nil {
		return err
	}

	st.written = append(st.written, day)
	st.p.logger.Debug("Wrote day file",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)

	return nil
}
