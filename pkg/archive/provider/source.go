package provider

import (
	"context"
	"iter"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
)

// SourceType names a remote data source.
type SourceType string

const (
	// SourceAPI pages through the REST endpoints. Serves every channel.
	SourceAPI SourceType = "api"
	// SourceDump reads the public daily dumps. Serves quotes and trades only.
	SourceDump SourceType = "dump"
)

// Source produces the records of one request window.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Supports reports whether the source can serve the channel.
	Supports(channel types.Channel) bool
	// Paginate returns a lazy, finite sequence of the window's records in
	// nondecreasing timestamp order. Each call starts from the beginning of the
	// window; a sequence cannot be resumed once it stopped. A failure is yielded
	// as the last element with a nil record.
	// example:
	// for record, err := range source.Paginate(ctx, window) { ... }
	Paginate(ctx context.Context, window types.Window) iter.Seq2[types.Record, error]
}

// Router dispatches each window to the source registered for its channel.
type Router struct {
	routes map[types.Channel]Source
}

// NewRouter creates a Router. Every route must support its channel.
func NewRouter(routes map[types.Channel]Source) (*Router, error) {
	for channel, source := range routes {
		if source == nil {
			return nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSource, "no source for channel %s", channel)
		}

		if !source.Supports(channel) {
			return nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSource, "source %s does not serve channel %s", source.Name(), channel)
		}
	}

	return &Router{routes: routes}, nil
}

func (r *Router) Name() string {
	return "router"
}

func (r *Router) Supports(channel types.Channel) bool {
	_, ok := r.routes[channel]

	return ok
}

// SourceFor returns the source registered for channel.
func (r *Router) SourceFor(channel types.Channel) (Source, bool) {
	s, ok := r.routes[channel]

	return s, ok
}

func (r *Router) Paginate(ctx context.Context, window types.Window) iter.Seq2[types.Record, error] {
	source, ok := r.routes[window.Channel]
	if !ok {
		return func(yield func(types.Record, error) bool) {
			yield(nil, archiveErrors.Newf(archiveErrors.ErrCodeInvalidSource, "no source for channel %s", window.Channel))
		}
	}

	return source.Paginate(ctx, window)
}
