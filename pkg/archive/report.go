package archive

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
)

// Status is the state of one (symbol, channel, interval, day) during a run.
//
//	PENDING -> SKIPPED
//	PENDING -> FETCHING -> WRITTEN | FAILED
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSkipped  Status = "SKIPPED"
	StatusFetching Status = "FETCHING"
	StatusWritten  Status = "WRITTEN"
	StatusFailed   Status = "FAILED"
)

// Combination identifies one symbol/channel/interval of a run.
type Combination struct {
	Symbol   string
	Channel  types.Channel
	Interval types.Interval
}

func (c Combination) String() string {
	if c.Interval == "" {
		return fmt.Sprintf("%s/%s", c.Symbol, c.Channel)
	}

	return fmt.Sprintf("%s/%s/%s", c.Symbol, c.Channel, c.Interval)
}

// Entry is the status of one day of one combination.
type Entry struct {
	Combination
	Day    time.Time
	Path   string
	Status Status
	Err    error
}

type entryKey struct {
	combination Combination
	day         time.Time
}

// Report is the status table of a run. It is only touched by the run's goroutine.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time

	entries []*Entry
	index   map[entryKey]*Entry
}

func newReport() *Report {
	return &Report{index: make(map[entryKey]*Entry)}
}

func (r *Report) add(combination Combination, day time.Time, path string) *Entry {
	e := &Entry{Combination: combination, Day: day, Path: path, Status: StatusPending}
	r.entries = append(r.entries, e)
	r.index[entryKey{combination: combination, day: day}] = e

	return e
}

func (r *Report) get(combination Combination, day time.Time) *Entry {
	return r.index[entryKey{combination: combination, day: day}]
}

// Entries returns a copy of every entry in planning order.
func (r *Report) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}

	return out
}

// Count returns the number of days in status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, e := range r.entries {
		if e.Status == s {
			n++
		}
	}

	return n
}

// Failed returns the failed days.
func (r *Report) Failed() []Entry {
	var out []Entry
	for _, e := range r.entries {
		if e.Status == StatusFailed {
			out = append(out, *e)
		}
	}

	return out
}

// HasFailures reports whether any day failed.
func (r *Report) HasFailures() bool {
	for _, e := range r.entries {
		if e.Status == StatusFailed {
			return true
		}
	}

	return false
}

// Combinations returns the status of each combination: FAILED if any of its
// days failed, WRITTEN if any was written, otherwise SKIPPED.
func (r *Report) Combinations() map[Combination]Status {
	out := make(map[Combination]Status)
	for _, e := range r.entries {
		current, ok := out[e.Combination]

		switch {
		case !ok, e.Status == StatusFailed:
			out[e.Combination] = e.Status
		case current == StatusFailed:
		case e.Status == StatusWritten:
			out[e.Combination] = StatusWritten
		}
	}

	return out
}

// Summary renders the end-of-run summary.
func (r *Report) Summary() string {
	var b strings.Builder

	combinations := r.Combinations()
	perStatus := make(map[Status]int)
	for _, s := range combinations {
		perStatus[s]++
	}

	fmt.Fprintf(&b, "Combinations: %d skipped, %d written, %d failed\n",
		perStatus[StatusSkipped], perStatus[StatusWritten], perStatus[StatusFailed])
	fmt.Fprintf(&b, "Days: %d skipped, %d written, %d failed\n",
		r.Count(StatusSkipped), r.Count(StatusWritten), r.Count(StatusFailed))

	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Elapsed: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}

	failed := r.Failed()
	if len(failed) == 0 {
		return b.String()
	}

	sort.SliceStable(failed, func(i, j int) bool {
		return failed[i].Combination.String() < failed[j].Combination.String()
	})

	b.WriteString("Failed:\n")

	for _, e := range failed {
		fmt.Fprintf(&b, "  %s %s: %v\n", e.Combination, e.Day.Format(time.DateOnly), e.Err)
	}

	return b.String()
}
