// Package layout maps (symbol, channel, interval, day) onto the archive directory convention:
//
//	<root>/<EXCHANGE>/<SYMBOL>/<channel>/[<interval>/]<YYYY>/<M>/<YYYY-MM-DD>.csv
//
// The month directory is not zero padded; the file name is.
package layout

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// Extension of every output file.
const Extension = ".csv"

// BuildPath returns the output file path for one day of data.
// interval must be empty for channels without intervals and set for bars.
func BuildPath(root, exchange, symbol string, channel types.Channel, interval types.Interval, date time.Time) (string, error) {
	dir, err := DayDir(root, exchange, symbol, channel, interval, date)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, date.UTC().Format(time.DateOnly)+Extension), nil
}

// DayDir returns the directory holding the output file for date.
func DayDir(root, exchange, symbol string, channel types.Channel, interval types.Interval, date time.Time) (string, error) {
	base, err := ChannelDir(root, exchange, symbol, channel, interval)
	if err != nil {
		return "", err
	}

	date = date.UTC()

	return filepath.Join(base, strconv.Itoa(date.Year()), strconv.Itoa(int(date.Month()))), nil
}

// ChannelDir returns the directory holding every year of one symbol/channel/interval.
func ChannelDir(root, exchange, symbol string, channel types.Channel, interval types.Interval) (string, error) {
	if root == "" {
		return "", archiveErrors.New(archiveErrors.ErrCodeInvalidConfiguration, "archive root is empty")
	}

	if err := checkSegment("exchange", exchange); err != nil {
		return "", err
	}

	if err := checkSegment("symbol", symbol); err != nil {
		return "", err
	}

	if !channel.Valid() {
		return "", archiveErrors.Newf(archiveErrors.ErrCodeInvalidConfiguration, "invalid channel %q", channel)
	}

	parts := []string{root, exchange, symbol, string(channel)}

	switch {
	case channel.HasIntervals() && interval == "":
		return "", archiveErrors.Newf(archiveErrors.ErrCodeInvalidInterval, "channel %s requires a bar interval", channel)
	case channel.HasIntervals():
		if !interval.Valid() {
			return "", archiveErrors.Newf(archiveErrors.ErrCodeInvalidInterval, "invalid bar interval %q", interval)
		}

		parts = append(parts, string(interval))
	case interval != "":
		return "", archiveErrors.Newf(archiveErrors.ErrCodeInvalidInterval, "channel %s does not take an interval, got %q", channel, interval)
	}

	return filepath.Join(parts...), nil
}

// Exists reports whether a completed output file is present at path.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info.Mode().IsRegular(), nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, archiveErrors.Wrapf(archiveErrors.ErrCodeMarketDataWriteFailed, err, "failed to stat %s", path)
}

func checkSegment(kind, value string) error {
	if strings.TrimSpace(value) == "" {
		return archiveErrors.Newf(archiveErrors.ErrCodeMissingParameter, "%s is empty", kind)
	}

	if value == "." || value == ".." || strings.ContainsAny(value, `/\`) {
		return archiveErrors.Newf(archiveErrors.ErrCodeInvalidParameter, "%s %q is not a valid path segment", kind, value)
	}

	return nil
}
