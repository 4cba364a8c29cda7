package provider

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RouterTestSuite struct {
	suite.Suite
	api  *BitmexClient
	dump *DumpSource
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupTest() {
	var err error
	suite.api, err = NewBitmexClient(BitmexConfig{}, nil)
	suite.Require().NoError(err)
	suite.dump = NewDumpSource(DumpConfig{}, nil)
}

func (suite *RouterTestSuite) TestRoutes() {
	router, err := NewRouter(map[types.Channel]Source{
		types.ChannelBars:   suite.api,
		types.ChannelTrades: suite.dump,
	})
	suite.Require().NoError(err)

	source, ok := router.SourceFor(types.ChannelTrades)
	suite.True(ok)
	suite.Equal("bitmex-dump", source.Name())

	source, ok = router.SourceFor(types.ChannelBars)
	suite.True(ok)
	suite.Equal("bitmex-api", source.Name())

	suite.True(router.Supports(types.ChannelBars))
	suite.False(router.Supports(types.ChannelQuotes))
}

func (suite *RouterTestSuite) TestRejectsUnsupportedRoute() {
	_, err := NewRouter(map[types.Channel]Source{types.ChannelBars: suite.dump})
	suite.Error(err)
	suite.True(archiveErrors.HasCode(err, archiveErrors.ErrCodeInvalidSource))
	suite.True(archiveErrors.IsConfigurationError(err))

	_, err = NewRouter(map[types.Channel]Source{types.ChannelBars: nil})
	suite.Error(err)
}

func (suite *RouterTestSuite) TestMissingRoute() {
	router, err := NewRouter(map[types.Channel]Source{types.ChannelBars: suite.api})
	suite.Require().NoError(err)

	window := types.NewWindow("XBTUSD", types.ChannelQuotes, optional.None[types.Interval](),
		time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC))

	_, err = collect(router.Paginate(context.Background(), window))
	suite.True(archiveErrors.HasCode(err, archiveErrors.ErrCodeInvalidSource))
}
