package indicator

import (
	"fmt"
	"time"

	"github.com/dnldd/tradechart/shared"
	"github.com/shopspring/decimal"
)

// VWAP represents a unit VWAP entry for a market.
type VWAP struct {
	// Value is null until the session has traded volume.
	Value decimal.NullDecimal
	Date  time.Time
}

// VWAPGenerator represents the session cumulative Volume Weighted Average Price indicator.
type VWAPGenerator struct {
	TypicalPriceVolume decimal.Decimal
	Volume             int64
	Market             string
	Timeframe          shared.Timeframe
}

// NewVWAPGenerator initializes a VWAP indicator for the provided market and timeframe.
func NewVWAPGenerator(market string, timeframe shared.Timeframe) *VWAPGenerator {
	return &VWAPGenerator{
		Market:    market,
		Timeframe: timeframe,
	}
}

// Update cumulatively updates the VWAP indicator with the provided candlestick data.
func (v *VWAPGenerator) Update(candle *shared.Candlestick) (*VWAP, error) {
	if candle.Timeframe != v.Timeframe {
		return nil, fmt.Errorf("expected candles with timeframe %s, got %s",
			v.Timeframe.String(), candle.Timeframe.String())
	}

	volume := decimal.NewFromInt(candle.Volume)
	v.TypicalPriceVolume = v.TypicalPriceVolume.Add(candle.TypicalPrice().Mul(volume))
	v.Volume += candle.Volume

	vwap := &VWAP{
		Date: candle.Date,
	}

	if v.Volume == 0 {
		return vwap, nil
	}

	vwap.Value = decimal.NewNullDecimal(v.TypicalPriceVolume.Div(decimal.NewFromInt(v.Volume)))

	return vwap, nil
}
