package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
	"github.com/stretchr/testify/suite"
)

type ReportTestSuite struct {
	suite.Suite
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) TestCountsAndCombinations() {
	report := newReport()
	xbt := Combination{Symbol: "XBTUSD", Channel: types.ChannelBars, Interval: types.IntervalOneDay}
	eth := Combination{Symbol: "ETHUSD", Channel: types.ChannelTrades}
	ltc := Combination{Symbol: "LTCZ18", Channel: types.ChannelQuotes}

	d1 := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	report.add(xbt, d1, "a").Status = StatusSkipped
	report.add(xbt, d2, "b").Status = StatusWritten
	report.add(eth, d1, "c").Status = StatusWritten
	failed := report.add(eth, d2, "d")
	failed.Status = StatusFailed
	failed.Err = errors.New("HTTP 503")
	report.add(ltc, d1, "e").Status = StatusSkipped
	report.add(ltc, d2, "f").Status = StatusSkipped

	suite.Equal(3, report.Count(StatusSkipped))
	suite.Equal(2, report.Count(StatusWritten))
	suite.Equal(1, report.Count(StatusFailed))
	suite.True(report.HasFailures())
	suite.Len(report.Entries(), 6)
	suite.Equal(StatusWritten, report.get(xbt, d2).Status)

	suite.Equal(map[Combination]Status{
		xbt: StatusWritten,
		eth: StatusFailed,
		ltc: StatusSkipped,
	}, report.Combinations())

	failedEntries := report.Failed()
	suite.Require().Len(failedEntries, 1)
	suite.Equal("ETHUSD/trades", failedEntries[0].Combination.String())
	suite.Equal("XBTUSD/bars/1d", xbt.String())

	summary := report.Summary()
	suite.Contains(summary, "Combinations: 1 skipped, 1 written, 1 failed")
	suite.Contains(summary, "Days: 3 skipped, 2 written, 1 failed")
	suite.Contains(summary, "ETHUSD/trades 2019-01-02: HTTP 503")
}

func (suite *ReportTestSuite) TestEmptyReport() {
	report := newReport()
	suite.False(report.HasFailures())
	suite.Empty(report.Failed())
	suite.NotContains(report.Summary(), "Failed:")
}
