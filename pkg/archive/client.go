package archive

import (
	"github.com/rxtech-lab/argo-archiver/internal/types"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/provider"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"go.uber.org/zap"
)

// NewClient validates config and creates an Archiver backed by the configured
// source. Bars always come from the REST API, which also validates symbols.
func NewClient(config Config, logger *zap.Logger, opts ...ArchiverOption) (*Archiver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	api, err := provider.NewBitmexClient(provider.BitmexConfig{
		BaseURL:             config.BaseURL,
		PageSize:            config.PageSize,
		RequestsPerMinute:   config.RequestsPerMinute,
		RateLimitBackoff:    config.RateLimitBackoff,
		MaxRateLimitRetries: config.MaxRateLimitRetries,
		HTTPTimeout:         config.HTTPTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	var source provider.Source

	switch config.Source {
	case provider.SourceAPI:
		source = api
	case provider.SourceDump:
		dump := provider.NewDumpSource(provider.DumpConfig{
			BaseURL:             config.DumpURL,
			RateLimitBackoff:    config.RateLimitBackoff,
			MaxRateLimitRetries: config.MaxRateLimitRetries,
		}, logger)

		source, err = provider.NewRouter(map[types.Channel]provider.Source{
			types.ChannelBars:   api,
			types.ChannelQuotes: dump,
			types.ChannelTrades: dump,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSource, "unsupported source type: %s", config.Source)
	}

	opts = append([]ArchiverOption{WithSymbolLister(api)}, opts...)

	return NewArchiver(config, source, logger, opts...), nil
}
