package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-archiver/internal/types"
)

// TimestampLayout is the timestamp format of the BitMEX REST API.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DataGenerator generates BitMEX-shaped records for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how records are generated.
type GeneratorConfig struct {
	Symbol  string
	Channel types.Channel
	// StartTime is the timestamp of the first record
	StartTime time.Time
	// Step is the duration between two records
	Step time.Duration
	// Count is the number of records to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per record)
	Volatility float64
	// VolumeBase is the average contract size
	VolumeBase float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "XBTUSD",
		Channel:      types.ChannelTrades,
		StartTime:    time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:         time.Minute,
		Count:        1000,
		InitialPrice: 3700.0,
		Volatility:   0.002,
		VolumeBase:   1000,
	}
}

// Generate creates records following a geometric Brownian motion price path.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Record {
	records := make([]types.Record, config.Count)
	price := config.InitialPrice
	ts := config.StartTime.UTC()

	for i := 0; i < config.Count; i++ {
		// Box-Muller
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		next := price * (1 + config.Volatility*z)
		if next <= 0 {
			next = price * 0.99
		}

		size := math.Max(1, math.Round(config.VolumeBase*(0.5+g.rng.Float64())))

		record := types.Record{
			"timestamp": ts.Format(TimestampLayout),
			"symbol":    config.Symbol,
		}

		switch config.Channel {
		case types.ChannelBars:
			high := math.Max(price, next) * (1 + g.rng.Float64()*config.Volatility/2)
			low := math.Min(price, next) * (1 - g.rng.Float64()*config.Volatility/2)
			trades := 1 + g.rng.Intn(500)
			vwap := roundToHalf((price + next + high + low) / 4)

			record["open"] = roundToHalf(price)
			record["high"] = roundToHalf(high)
			record["low"] = roundToHalf(low)
			record["close"] = roundToHalf(next)
			record["trades"] = trades
			record["volume"] = int64(size) * int64(trades)
			record["vwap"] = vwap
			record["lastSize"] = int64(size)
			record["turnover"] = int64(size) * int64(trades) * 100000000 / int64(math.Max(vwap, 1))
			record["homeNotional"] = roundToDecimals(size*float64(trades)/vwap, 8)
			record["foreignNotional"] = size * float64(trades)
		case types.ChannelQuotes:
			record["bidSize"] = int64(size)
			record["bidPrice"] = roundToHalf(next)
			record["askPrice"] = roundToHalf(next) + 0.5
			record["askSize"] = int64(math.Max(1, math.Round(config.VolumeBase*g.rng.Float64())))
		default:
			side, tick := "Buy", "PlusTick"
			if next < price {
				side, tick = "Sell", "MinusTick"
			}

			record["side"] = side
			record["size"] = int64(size)
			record["price"] = roundToHalf(next)
			record["tickDirection"] = tick
			record["trdMatchID"] = fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
				g.rng.Uint32(), g.rng.Intn(1<<16), g.rng.Intn(1<<16), g.rng.Intn(1<<16), g.rng.Int63n(1<<48))
			record["grossValue"] = int64(size * 1e8 / roundToHalf(next))
			record["homeNotional"] = roundToDecimals(size/roundToHalf(next), 8)
			record["foreignNotional"] = size
		}

		records[i] = record
		price = next
		ts = ts.Add(config.Step)
	}

	return records
}

// GenerateDays generates perDay evenly spaced records for each of days UTC
// days starting at the day of start.
func (g *DataGenerator) GenerateDays(symbol string, channel types.Channel, start time.Time, days int, perDay int) []types.Record {
	config := DefaultConfig()
	config.Symbol = symbol
	config.Channel = channel
	config.StartTime = types.TruncateDay(start)
	config.Count = days * perDay
	config.Step = types.Day / time.Duration(perDay)

	return g.Generate(config)
}

func roundToHalf(val float64) float64 {
	return math.Round(val*2) / 2
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
