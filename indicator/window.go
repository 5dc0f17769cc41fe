package indicator

import (
	"errors"

	"github.com/dnldd/tradechart/shared"
	"github.com/shopspring/decimal"
)

// Window represents a fixed size trailing window of candlestick data.
type Window struct {
	data  []*shared.Candlestick
	start int
	count int
	size  int
}

// NewWindow initializes a new candlestick window.
func NewWindow(size int) (*Window, error) {
	if size < 0 {
		return nil, errors.New("window size cannot be negative")
	}
	if size == 0 {
		return nil, errors.New("window size cannot be zero")
	}

	return &Window{
		data: make([]*shared.Candlestick, size),
		size: size,
	}, nil
}

// Update adds the provided candlestick to the window.
func (w *Window) Update(candle *shared.Candlestick) {
	end := (w.start + w.count) % w.size
	w.data[end] = candle

	if w.count == w.size {
		// Overwrite the oldest entry when the window is at capacity.
		w.start = (w.start + 1) % w.size
	} else {
		w.count++
	}
}

// HighLow returns the highest high and lowest low held by the window.
func (w *Window) HighLow() (decimal.Decimal, decimal.Decimal, error) {
	if w.count == 0 {
		return decimal.Zero, decimal.Zero, errors.New("window is empty")
	}

	first := w.data[w.start]
	high, low := first.High, first.Low
	for i := 1; i < w.count; i++ {
		candle := w.data[(w.start+i)%w.size]
		if candle.High.GreaterThan(high) {
			high = candle.High
		}
		if candle.Low.LessThan(low) {
			low = candle.Low
		}
	}

	return high, low, nil
}
