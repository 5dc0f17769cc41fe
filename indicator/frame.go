package indicator

import (
	"fmt"

	"github.com/dnldd/tradechart/shared"
	"github.com/shopspring/decimal"
)

// Frame represents a candlestick enriched with its indicator values.
type Frame struct {
	shared.Candlestick

	VWAP          decimal.NullDecimal
	DonchianUpper decimal.Decimal
	DonchianLower decimal.Decimal
}

// Compute derives a frame for each of the provided candlesticks, in order. The donchian
// window is the number of trailing candles, including the current one, the channel spans.
func Compute(candles []shared.Candlestick, window int) ([]Frame, error) {
	if window < 1 {
		return nil, fmt.Errorf("donchian window must be at least 1, got %d", window)
	}

	frames := make([]Frame, 0, len(candles))
	if len(candles) == 0 {
		return frames, nil
	}

	market := candles[0].Market
	timeframe := candles[0].Timeframe
	vwapGen := NewVWAPGenerator(market, timeframe)
	donchianGen, err := NewDonchianGenerator(market, timeframe, window)
	if err != nil {
		return nil, err
	}

	for idx := range candles {
		candle := &candles[idx]

		vwap, err := vwapGen.Update(candle)
		if err != nil {
			return nil, fmt.Errorf("updating vwap at index %d: %w", idx, err)
		}

		donchian, err := donchianGen.Update(candle)
		if err != nil {
			return nil, fmt.Errorf("updating donchian channel at index %d: %w", idx, err)
		}

		frames = append(frames, Frame{
			Candlestick:   *candle,
			VWAP:          vwap.Value,
			DonchianUpper: donchian.Upper,
			DonchianLower: donchian.Lower,
		})
	}

	return frames, nil
}
