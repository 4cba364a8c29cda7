package types

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

// Day is the length of one partition.
const Day = 24 * time.Hour

// Window is one unit of fetch work: one symbol, channel and optional bar
// interval over the half-open UTC range [Start, End).
type Window struct {
	Symbol   string
	Channel  Channel
	Interval optional.Option[Interval]
	Start    time.Time
	End      time.Time
}

// NewWindow creates a window covering the whole UTC days from start through end - 1ns.
// Both bounds are truncated to midnight UTC.
func NewWindow(symbol string, channel Channel, interval optional.Option[Interval], start, end time.Time) Window {
	return Window{
		Symbol:   symbol,
		Channel:  channel,
		Interval: interval,
		Start:    TruncateDay(start),
		End:      TruncateDay(end),
	}
}

// IntervalOrEmpty returns the interval name, or "" when the window has none.
func (w Window) IntervalOrEmpty() Interval {
	if w.Interval.IsNone() {
		return ""
	}

	return w.Interval.Unwrap()
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days returns the first instant of every UTC day in the window.
func (w Window) Days() []time.Time {
	return DaysBetween(w.Start, w.End)
}

func (w Window) String() string {
	name := fmt.Sprintf("%s/%s", w.Symbol, w.Channel)
	if w.Interval.IsSome() {
		name += "/" + string(w.Interval.Unwrap())
	}

	return fmt.Sprintf("%s [%s, %s)", name, w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
}

// TruncateDay returns midnight UTC of the day containing t.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween lists midnight UTC of every day in [start, end).
func DaysBetween(start, end time.Time) []time.Time {
	var days []time.Time
	for d := TruncateDay(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	return days
}
