package main

import (
	"strings"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// splitValues accepts both repeated flags and comma separated lists.
func splitValues(values []string) []string {
	var out []string

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

func parseChannels(values []string) ([]types.Channel, error) {
	var channels []types.Channel

	for _, v := range splitValues(values) {
		channel, err := types.ParseChannel(v)
		if err != nil {
			return nil, archiveErrors.Wrap(archiveErrors.ErrCodeInvalidParameter, "invalid --channels", err)
		}

		channels = append(channels, channel)
	}

	return channels, nil
}

func parseIntervals(values []string) ([]types.Interval, error) {
	var intervals []types.Interval

	for _, v := range splitValues(values) {
		interval, err := types.ParseInterval(v)
		if err != nil {
			return nil, archiveErrors.Wrap(archiveErrors.ErrCodeInvalidInterval, "invalid --bars", err)
		}

		intervals = append(intervals, interval)
	}

	return intervals, nil
}
