package types

import (
	"fmt"
	"strings"
	"time"
)

// Channel is a category of market data with its own schema.
type Channel string

const (
	ChannelBars   Channel = "bars"
	ChannelQuotes Channel = "quotes"
	ChannelTrades Channel = "trades"
)

// Channels lists every supported channel in download order.
var Channels = []Channel{ChannelBars, ChannelQuotes, ChannelTrades}

var (
	barsHeader = []string{
		"timestamp",
		"symbol",
		"open",
		"high",
		"low",
		"close",
		"trades",
		"volume",
		"vwap",
		"lastSize",
		"turnover",
		"homeNotional",
		"foreignNotional",
	}
	quotesHeader = []string{"timestamp", "symbol", "bidSize", "bidPrice", "askPrice", "askSize"}
	tradesHeader = []string{
		"timestamp",
		"symbol",
		"side",
		"size",
		"price",
		"tickDirection",
		"trdMatchID",
		"grossValue",
		"homeNotional",
		"foreignNotional",
	}
)

// ParseChannel converts a channel name into a Channel.
func ParseChannel(name string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", fmt.Errorf("unsupported channel: %q (options: bars, quotes, trades)", name)
	}

	return c, nil
}

// Valid reports whether c is a supported channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelBars, ChannelQuotes, ChannelTrades:
		return true
	default:
		return false
	}
}

// HasIntervals reports whether the channel is subdivided by bar interval.
func (c Channel) HasIntervals() bool {
	return c == ChannelBars
}

// Header returns the CSV header for the channel, matching the upstream field names.
// The returned slice is a copy.
func (c Channel) Header() []string {
	var h []string

	switch c {
	case ChannelBars:
		h = barsHeader
	case ChannelQuotes:
		h = quotesHeader
	case ChannelTrades:
		h = tradesHeader
	default:
		return nil
	}

	return append([]string(nil), h...)
}

func (c Channel) String() string {
	return string(c)
}

// Interval is the bucket width of the bars channel.
type Interval string

const (
	IntervalOneMinute   Interval = "1m"
	IntervalFiveMinutes Interval = "5m"
	IntervalOneHour     Interval = "1h"
	IntervalOneDay      Interval = "1d"
)

// Intervals lists every supported bar interval.
var Intervals = []Interval{IntervalOneMinute, IntervalFiveMinutes, IntervalOneHour, IntervalOneDay}

// ParseInterval converts an interval name into an Interval.
func ParseInterval(name string) (Interval, error) {
	i := Interval(strings.TrimSpace(name))
	if !i.Valid() {
		return "", fmt.Errorf("unsupported bar interval: %q (options: 1m, 5m, 1h, 1d)", name)
	}

	return i, nil
}

// Valid reports whether i is a supported interval.
func (i Interval) Valid() bool {
	return i.Duration() > 0
}

// Duration returns the bucket width, or zero for unknown intervals.
func (i Interval) Duration() time.Duration {
	switch i {
	case IntervalOneMinute:
		return time.Minute
	case IntervalFiveMinutes:
		return 5 * time.Minute
	case IntervalOneHour:
		return time.Hour
	case IntervalOneDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (i Interval) String() string {
	return string(i)
}
