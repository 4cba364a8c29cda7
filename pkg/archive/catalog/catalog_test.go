package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-archiver/internal/types"
	"github.com/rxtech-lab/argo-archiver/pkg/archive/writer"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CatalogTestSuite struct {
	suite.Suite
	root    string
	catalog *Catalog
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}

func (suite *CatalogTestSuite) SetupTest() {
	suite.root = suite.T().TempDir()

	var err error
	suite.catalog, err = Open(suite.root, "BITMEX")
	suite.Require().NoError(err)
}

func (suite *CatalogTestSuite) TearDownTest() {
	suite.catalog.Close()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (suite *CatalogTestSuite) archive(window types.Window, records ...types.Record) {
	partitioner := writer.NewDayPartitioner(suite.root, "BITMEX", writer.NewCSVWriter(), nil)

	_, err := partitioner.PartitionAndWrite(func(yield func(types.Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}, window)
	suite.Require().NoError(err)
}

func quoteRecord(ts string) types.Record {
	return types.Record{"timestamp": ts, "symbol": "XBTUSD", "bidSize": "10", "bidPrice": "3700", "askPrice": "3700.5", "askSize": "20"}
}

func (suite *CatalogTestSuite) TestStats() {
	none := optional.None[types.Interval]()

	suite.archive(types.NewWindow("XBTUSD", types.ChannelQuotes, none, day(2018, 12, 31), day(2019, 1, 3)),
		quoteRecord("2018-12-31T23:59:59.000Z"),
		quoteRecord("2019-01-01T00:00:01.000Z"),
		quoteRecord("2019-01-01T10:00:00.000Z"),
	)
	suite.archive(types.NewWindow("XBTUSD", types.ChannelQuotes, none, day(2019, 1, 5), day(2019, 1, 6)),
		quoteRecord("2019-01-05T08:00:00.000Z"),
	)

	stats, err := suite.catalog.Stats(context.Background(), "XBTUSD", types.ChannelQuotes, "")
	suite.Require().NoError(err)

	suite.Equal(4, stats.Files)
	suite.Equal(day(2018, 12, 31), stats.FirstDay)
	suite.Equal(day(2019, 1, 5), stats.LastDay)
	suite.Equal([]time.Time{day(2019, 1, 3), day(2019, 1, 4)}, stats.MissingDays)
	suite.Equal([]time.Time{day(2019, 1, 2)}, stats.EmptyDays)
	suite.Equal(int64(4), stats.Rows)
	suite.Equal("2018-12-31T23:59:59.000Z", stats.FirstTimestamp)
	suite.Equal("2019-01-05T08:00:00.000Z", stats.LastTimestamp)
}

func (suite *CatalogTestSuite) TestStatsWithoutFiles() {
	stats, err := suite.catalog.Stats(context.Background(), "ETHUSD", types.ChannelBars, types.IntervalOneMinute)
	suite.NoError(err)
	suite.Equal(0, stats.Files)
	suite.Equal(int64(0), stats.Rows)
	suite.True(stats.FirstDay.IsZero())
}

func (suite *CatalogTestSuite) TestStatsRejectsBadCombination() {
	_, err := suite.catalog.Stats(context.Background(), "XBTUSD", types.ChannelBars, "")
	suite.Error(err)
	suite.True(archiveErrors.IsConfigurationError(err))
}
