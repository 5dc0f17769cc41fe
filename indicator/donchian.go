package indicator

import (
	"fmt"
	"time"

	"github.com/dnldd/tradechart/shared"
	"github.com/shopspring/decimal"
)

// Donchian represents a unit donchian channel entry for a market.
type Donchian struct {
	Upper decimal.Decimal
	Lower decimal.Decimal
	Date  time.Time
}

// DonchianGenerator represents the rolling Donchian Channel indicator.
type DonchianGenerator struct {
	window    *Window
	Market    string
	Timeframe shared.Timeframe
}

// NewDonchianGenerator initializes a donchian channel indicator over the trailing size candles.
func NewDonchianGenerator(market string, timeframe shared.Timeframe, size int) (*DonchianGenerator, error) {
	window, err := NewWindow(size)
	if err != nil {
		return nil, fmt.Errorf("creating donchian window: %w", err)
	}

	return &DonchianGenerator{
		window:    window,
		Market:    market,
		Timeframe: timeframe,
	}, nil
}

// Update adds the provided candlestick to the channel and returns the channel bounds including it.
// Until the window fills the bounds cover every candle seen so far.
func (d *DonchianGenerator) Update(candle *shared.Candlestick) (*Donchian, error) {
	if candle.Timeframe != d.Timeframe {
		return nil, fmt.Errorf("expected candles with timeframe %s, got %s",
			d.Timeframe.String(), candle.Timeframe.String())
	}

	d.window.Update(candle)

	upper, lower, err := d.window.HighLow()
	if err != nil {
		return nil, err
	}

	return &Donchian{
		Upper: upper,
		Lower: lower,
		Date:  candle.Date,
	}, nil
}
