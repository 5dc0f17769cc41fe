package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"
)

// at returns the utc time for the provided clock reading on a fixed session day.
func at(hour, min, sec int) time.Time {
	return time.Date(2025, 3, 14, hour, min, sec, 0, time.UTC)
}

// mustTrade creates a valid trade or fails the test.
func mustTrade(t *testing.T, ts time.Time, price string, size int64) Trade {
	t.Helper()

	trade, err := NewTrade(ts, decimal.RequireFromString(price), size)
	assert.NoError(t, err)
	return trade
}

func TestNewTrade(t *testing.T) {
	// Ensure valid trades can be created.
	trade, err := NewTrade(at(9, 30, 0), decimal.NewFromInt(100), 10)
	assert.NoError(t, err)
	assert.Equal(t, trade.Size, int64(10))
	assert.Equal(t, trade.Timestamp.Location().String(), "UTC")

	// Ensure non-positive prices and sizes are rejected.
	tests := []struct {
		name  string
		price decimal.Decimal
		size  int64
	}{
		{"zero price", decimal.Zero, 10},
		{"negative price", decimal.NewFromInt(-1), 10},
		{"zero size", decimal.NewFromInt(100), 0},
		{"negative size", decimal.NewFromInt(100), -5},
	}

	for _, test := range tests {
		_, err := NewTrade(at(9, 30, 0), test.price, test.size)
		if !errors.Is(err, ErrInvalidTrade) {
			t.Errorf("%s: expected invalid trade error, got %v", test.name, err)
		}
	}
}

func TestCandlestickSentiment(t *testing.T) {
	tests := []struct {
		name  string
		open  int64
		close int64
		want  Sentiment
	}{
		{"bullish", 10, 12, Bullish},
		{"bearish", 12, 10, Bearish},
		{"neutral", 10, 10, Neutral},
	}

	for _, test := range tests {
		candle := &Candlestick{
			Open:  decimal.NewFromInt(test.open),
			Close: decimal.NewFromInt(test.close),
		}
		if got := candle.FetchSentiment(); got != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, got)
		}
	}
}

func TestCandlestickTypicalPrice(t *testing.T) {
	candle := &Candlestick{
		High:  decimal.NewFromInt(12),
		Low:   decimal.NewFromInt(9),
		Close: decimal.NewFromInt(12),
	}

	assert.True(t, candle.TypicalPrice().Equal(decimal.NewFromInt(11)))
}

func TestAggregateTrades(t *testing.T) {
	market := "AAPL"

	// Ensure aggregating no trades produces no candles and no error.
	candles, err := AggregateTrades(nil, market)
	assert.NoError(t, err)
	assert.Equal(t, len(candles), 0)

	// Ensure trades are bucketed into one-minute candles.
	trades := []Trade{
		mustTrade(t, at(9, 30, 0), "100", 10),
		mustTrade(t, at(9, 30, 30), "101", 5),
		mustTrade(t, at(9, 31, 5), "99", 20),
	}

	candles, err = AggregateTrades(trades, market)
	assert.NoError(t, err)

	want := []Candlestick{
		{
			Open:      decimal.NewFromInt(100),
			High:      decimal.NewFromInt(101),
			Low:       decimal.NewFromInt(100),
			Close:     decimal.NewFromInt(101),
			Volume:    15,
			Date:      at(9, 30, 0),
			Market:    market,
			Timeframe: OneMinute,
			Trades:    2,
		},
		{
			Open:      decimal.NewFromInt(99),
			High:      decimal.NewFromInt(99),
			Low:       decimal.NewFromInt(99),
			Close:     decimal.NewFromInt(99),
			Volume:    20,
			Date:      at(9, 31, 0),
			Market:    market,
			Timeframe: OneMinute,
			Trades:    1,
		},
	}

	if !cmp.Equal(candles, want) {
		t.Errorf("mismatching candles, got %v", cmp.Diff(want, candles))
	}

	// Ensure aggregation is idempotent.
	again, err := AggregateTrades(trades, market)
	assert.NoError(t, err)
	if !cmp.Equal(candles, again) {
		t.Errorf("aggregation not idempotent: %v", cmp.Diff(candles, again))
	}
}

func TestAggregateTradesUnsorted(t *testing.T) {
	market := "AAPL"

	// Ensure unsorted trades are ordered before bucketing and the input is left untouched.
	trades := []Trade{
		mustTrade(t, at(9, 31, 40), "104", 1),
		mustTrade(t, at(9, 30, 10), "100", 2),
		mustTrade(t, at(9, 31, 0), "103", 3),
		mustTrade(t, at(9, 30, 50), "98", 4),
		mustTrade(t, at(9, 33, 0), "105", 5),
	}
	first := trades[0]

	candles, err := AggregateTrades(trades, market)
	assert.NoError(t, err)
	assert.Equal(t, trades[0].Timestamp, first.Timestamp)

	// Ensure empty minutes are skipped.
	assert.Equal(t, len(candles), 3)
	assert.Equal(t, candles[0].Date, at(9, 30, 0))
	assert.Equal(t, candles[1].Date, at(9, 31, 0))
	assert.Equal(t, candles[2].Date, at(9, 33, 0))

	assert.True(t, candles[0].Open.Equal(decimal.NewFromInt(100)))
	assert.True(t, candles[0].Close.Equal(decimal.NewFromInt(98)))
	assert.True(t, candles[0].Low.Equal(decimal.NewFromInt(98)))
	assert.True(t, candles[1].Open.Equal(decimal.NewFromInt(103)))
	assert.True(t, candles[1].Close.Equal(decimal.NewFromInt(104)))

	// Ensure every candle honours its price bounds and volume sum.
	var total int64
	for idx := range candles {
		candle := candles[idx]
		assert.True(t, candle.Low.LessThanOrEqual(candle.Open))
		assert.True(t, candle.Low.LessThanOrEqual(candle.Close))
		assert.True(t, candle.High.GreaterThanOrEqual(candle.Open))
		assert.True(t, candle.High.GreaterThanOrEqual(candle.Close))
		total += candle.Volume
	}
	assert.Equal(t, total, int64(15))
}

func TestAggregateTradesTieBreak(t *testing.T) {
	// Ensure trades sharing a timestamp keep their fetch order for open and close.
	trades := []Trade{
		mustTrade(t, at(9, 30, 0), "100", 1),
		mustTrade(t, at(9, 30, 0), "101", 1),
		mustTrade(t, at(9, 30, 59), "102", 1),
		mustTrade(t, at(9, 30, 59), "97", 1),
	}

	candles, err := AggregateTrades(trades, "AAPL")
	assert.NoError(t, err)
	assert.Equal(t, len(candles), 1)
	assert.True(t, candles[0].Open.Equal(decimal.NewFromInt(100)))
	assert.True(t, candles[0].Close.Equal(decimal.NewFromInt(97)))
	assert.True(t, candles[0].High.Equal(decimal.NewFromInt(102)))
	assert.True(t, candles[0].Low.Equal(decimal.NewFromInt(97)))
	assert.Equal(t, candles[0].Volume, int64(4))
}

func TestAggregateTradesInvalid(t *testing.T) {
	// Ensure a zero sized trade fails the whole aggregation.
	trades := []Trade{
		mustTrade(t, at(9, 30, 0), "100", 10),
		{Timestamp: at(9, 31, 0), Price: decimal.NewFromInt(101), Size: 0},
		mustTrade(t, at(9, 32, 0), "102", 10),
	}

	candles, err := AggregateTrades(trades, "AAPL")
	assert.Error(t, err)
	assert.True(t, candles == nil)
	assert.True(t, errors.Is(err, ErrInvalidTrade))

	var invalid *InvalidTradeError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, invalid.Index, 1)

	// Ensure a non-positive price fails the aggregation.
	trades[1] = Trade{Timestamp: at(9, 31, 0), Price: decimal.RequireFromString("-0.01"), Size: 5}
	_, err = AggregateTrades(trades, "AAPL")
	assert.True(t, errors.Is(err, ErrInvalidTrade))
}
