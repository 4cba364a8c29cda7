package provider

import (
	"sort"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// SourceInfo contains metadata about a remote data source.
type SourceInfo struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName"`
	Description string          `json:"description"`
	Channels    []types.Channel `json:"channels"`
}

var sourceRegistry = map[SourceType]SourceInfo{
	SourceAPI: {
		Name:        string(SourceAPI),
		DisplayName: "BitMEX REST API",
		Description: "Paginated /trade/bucketed, /quote and /trade endpoints, throttled to the public request budget",
		Channels:    []types.Channel{types.ChannelBars, types.ChannelQuotes, types.ChannelTrades},
	},
	SourceDump: {
		Name:        string(SourceDump),
		DisplayName: "BitMEX public dumps",
		Description: "One gzipped CSV per day holding every symbol; bars still come from the REST API",
		Channels:    []types.Channel{types.ChannelQuotes, types.ChannelTrades},
	},
}

// GetSupportedSources returns the names of all supported sources, sorted.
func GetSupportedSources() []string {
	sources := make([]string, 0, len(sourceRegistry))
	for sourceType := range sourceRegistry {
		sources = append(sources, string(sourceType))
	}

	sort.Strings(sources)

	return sources
}

// GetSourceInfo returns metadata for a specific source.
func GetSourceInfo(name string) (SourceInfo, error) {
	info, exists := sourceRegistry[SourceType(name)]
	if !exists {
		return SourceInfo{}, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSource, "unsupported source: %s", name)
	}

	return info, nil
}
