package layout

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	archiveErrors "github.com/rxtech-lab/argo-archiver/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type LayoutTestSuite struct {
	suite.Suite
}

func TestLayoutSuite(t *testing.T) {
	suite.Run(t, new(LayoutTestSuite))
}

func (suite *LayoutTestSuite) TestBuildPath() {
	date := time.Date(2019, 1, 5, 13, 0, 0, 0, time.UTC)

	p, err := BuildPath("/data", "BITMEX", "XBTUSD", types.ChannelBars, types.IntervalOneMinute, date)
	suite.NoError(err)
	suite.Equal(filepath.Join("/data", "BITMEX", "XBTUSD", "bars", "1m", "2019", "1", "2019-01-05.csv"), p)

	p, err = BuildPath("/data", "BITMEX", "ETHUSD", types.ChannelTrades, "", date)
	suite.NoError(err)
	suite.Equal(filepath.Join("/data", "BITMEX", "ETHUSD", "trades", "2019", "1", "2019-01-05.csv"), p)
}

func (suite *LayoutTestSuite) TestBuildPathUsesUTCDay() {
	loc := time.FixedZone("UTC+9", 9*60*60)
	date := time.Date(2019, 1, 1, 3, 0, 0, 0, loc) // 2018-12-31 18:00 UTC

	p, err := BuildPath("/data", "BITMEX", "XBTUSD", types.ChannelQuotes, "", date)
	suite.NoError(err)
	suite.Equal(filepath.Join("/data", "BITMEX", "XBTUSD", "quotes", "2018", "12", "2018-12-31.csv"), p)
}

func (suite *LayoutTestSuite) TestBuildPathDeterministic() {
	date := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := BuildPath("root", "BITMEX", "XBTUSD", types.ChannelBars, types.IntervalOneHour, date)
	suite.Require().NoError(err)
	second, err := BuildPath("root", "BITMEX", "XBTUSD", types.ChannelBars, types.IntervalOneHour, date)
	suite.Require().NoError(err)
	suite.Equal(first, second)
}

func (suite *LayoutTestSuite) TestBuildPathCollisionFree() {
	base := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)

	type args struct {
		symbol   string
		channel  types.Channel
		interval types.Interval
		date     time.Time
	}

	var all []args
	for _, symbol := range []string{"XBTUSD", "ETHUSD"} {
		for _, date := range []time.Time{base, base.AddDate(0, 0, 1), base.AddDate(0, 1, 0), base.AddDate(1, 0, 0)} {
			for _, interval := range types.Intervals {
				all = append(all, args{symbol, types.ChannelBars, interval, date})
			}
			all = append(all, args{symbol, types.ChannelQuotes, "", date})
			all = append(all, args{symbol, types.ChannelTrades, "", date})
		}
	}

	seen := make(map[string]args)
	for _, a := range all {
		p, err := BuildPath("root", "BITMEX", a.symbol, a.channel, a.interval, a.date)
		suite.Require().NoError(err)
		prev, dup := seen[p]
		suite.False(dup, "path %s produced by %+v and %+v", p, prev, a)
		seen[p] = a
	}
	suite.Len(seen, len(all))
}

func (suite *LayoutTestSuite) TestBuildPathErrors() {
	date := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		root     string
		exchange string
		symbol   string
		channel  types.Channel
		interval types.Interval
	}{
		{name: "empty root", root: "", exchange: "BITMEX", symbol: "XBTUSD", channel: types.ChannelQuotes},
		{name: "empty exchange", root: "r", exchange: "", symbol: "XBTUSD", channel: types.ChannelQuotes},
		{name: "empty symbol", root: "r", exchange: "BITMEX", symbol: " ", channel: types.ChannelQuotes},
		{name: "symbol with separator", root: "r", exchange: "BITMEX", symbol: "XBT/USD", channel: types.ChannelQuotes},
		{name: "dot dot symbol", root: "r", exchange: "BITMEX", symbol: "..", channel: types.ChannelQuotes},
		{name: "empty channel", root: "r", exchange: "BITMEX", symbol: "XBTUSD", channel: ""},
		{name: "bars without interval", root: "r", exchange: "BITMEX", symbol: "XBTUSD", channel: types.ChannelBars},
		{name: "bars with bad interval", root: "r", exchange: "BITMEX", symbol: "XBTUSD", channel: types.ChannelBars, interval: "2m"},
		{name: "trades with interval", root: "r", exchange: "BITMEX", symbol: "XBTUSD", channel: types.ChannelTrades, interval: "1m"},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := BuildPath(tc.root, tc.exchange, tc.symbol, tc.channel, tc.interval, date)
			suite.Error(err)
			suite.True(archiveErrors.IsConfigurationError(err), "expected configuration error, got %v", err)
		})
	}
}

func (suite *LayoutTestSuite) TestExists() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "2019-01-01.csv")

	ok, err := Exists(path)
	suite.NoError(err)
	suite.False(ok)

	suite.Require().NoError(os.WriteFile(path, []byte("timestamp\n"), 0o644))
	ok, err = Exists(path)
	suite.NoError(err)
	suite.True(ok)

	// Directories are not completed files
	ok, err = Exists(dir)
	suite.NoError(err)
	suite.False(ok)
}
