package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ChannelTestSuite struct {
	suite.Suite
}

func TestChannelSuite(t *testing.T) {
	suite.Run(t, new(ChannelTestSuite))
}

func (suite *ChannelTestSuite) TestParseChannel() {
	c, err := ParseChannel(" Bars ")
	suite.NoError(err)
	suite.Equal(ChannelBars, c)

	_, err = ParseChannel("orderbook")
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported channel")
}

func (suite *ChannelTestSuite) TestHeaders() {
	suite.Equal("timestamp", ChannelBars.Header()[0])
	suite.Len(ChannelBars.Header(), 13)
	suite.Equal([]string{"timestamp", "symbol", "bidSize", "bidPrice", "askPrice", "askSize"}, ChannelQuotes.Header())
	suite.Contains(ChannelTrades.Header(), "trdMatchID")
	suite.Nil(Channel("nope").Header())

	// Header returns a copy
	h := ChannelQuotes.Header()
	h[0] = "mutated"
	suite.Equal("timestamp", ChannelQuotes.Header()[0])
}

func (suite *ChannelTestSuite) TestHasIntervals() {
	suite.True(ChannelBars.HasIntervals())
	suite.False(ChannelQuotes.HasIntervals())
	suite.False(ChannelTrades.HasIntervals())
}

func (suite *ChannelTestSuite) TestParseInterval() {
	testCases := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "1m", expected: time.Minute},
		{input: "5m", expected: 5 * time.Minute},
		{input: "1h", expected: time.Hour},
		{input: "1d", expected: 24 * time.Hour},
		{input: "15m", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		suite.Run(tc.input, func() {
			interval, err := ParseInterval(tc.input)
			if tc.wantErr {
				suite.Error(err)

				return
			}
			suite.NoError(err)
			suite.Equal(tc.expected, interval.Duration())
		})
	}
}
