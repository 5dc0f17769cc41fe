package shared

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Sentiment represents the candlestick sentiment.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   decimal.Decimal
	Low    decimal.Decimal
	High   decimal.Decimal
	Close  decimal.Decimal
	Volume int64
	Date   time.Time

	// Metadata and derived fields.
	Market    string
	Timeframe Timeframe
	Trades    int
}

// FetchSentiment returns the provided candlestick's sentiment.
func (c *Candlestick) FetchSentiment() Sentiment {
	switch c.Close.Cmp(c.Open) {
	case -1:
		return Bearish
	case 1:
		return Bullish
	default:
		return Neutral
	}
}

// TypicalPrice returns the average of the candle's high, low and close.
func (c *Candlestick) TypicalPrice() decimal.Decimal {
	return c.High.Add(c.Low).Add(c.Close).Div(decimal.NewFromInt(3))
}

// update folds the provided trade into the candlestick. Trades must be applied in time order.
func (c *Candlestick) update(trade *Trade) {
	if trade.Price.GreaterThan(c.High) {
		c.High = trade.Price
	}
	if trade.Price.LessThan(c.Low) {
		c.Low = trade.Price
	}

	c.Close = trade.Price
	c.Volume += trade.Size
	c.Trades++
}

// AggregateTrades buckets the provided trades into one-minute candlesticks for the market.
//
// Trades are validated up front: a single invalid trade fails the whole aggregation and no
// candles are returned. The provided slice is not modified. Minutes without trades produce
// no candle.
func AggregateTrades(trades []Trade, market string) ([]Candlestick, error) {
	for idx := range trades {
		err := trades[idx].Validate()
		if err != nil {
			var invalid *InvalidTradeError
			if errors.As(err, &invalid) {
				invalid.Index = idx
			}
			return nil, err
		}
	}

	timeframe := OneMinute
	width, err := timeframe.Duration()
	if err != nil {
		return nil, err
	}

	// Stable sort keeps fetch order for trades sharing a timestamp.
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b Trade) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	candles := make([]Candlestick, 0)
	for idx := range sorted {
		trade := &sorted[idx]
		bucket := trade.Timestamp.UTC().Truncate(width)

		last := len(candles) - 1
		if last >= 0 && candles[last].Date.Equal(bucket) {
			candles[last].update(trade)
			continue
		}

		candles = append(candles, Candlestick{
			Open:      trade.Price,
			High:      trade.Price,
			Low:       trade.Price,
			Close:     trade.Price,
			Volume:    trade.Size,
			Date:      bucket,
			Market:    market,
			Timeframe: timeframe,
			Trades:    1,
		})
	}

	return candles, nil
}

// String returns a compact description of the candlestick.
func (c *Candlestick) String() string {
	return fmt.Sprintf("%s %s O%s H%s L%s C%s V%d", c.Market, c.Date.Format(DateLayout),
		c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume)
}
