package shared

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a single executed trade for a market.
type Trade struct {
	Timestamp time.Time
	Price     decimal.Decimal
	Size      int64

	// Vendor metadata.
	Conditions []string
	Exchange   string
	ID         int64
}

// NewTrade initializes a trade, rejecting non-positive prices and sizes.
func NewTrade(timestamp time.Time, price decimal.Decimal, size int64) (Trade, error) {
	trade := Trade{
		Timestamp: timestamp.UTC(),
		Price:     price,
		Size:      size,
	}

	err := trade.Validate()
	if err != nil {
		return Trade{}, err
	}

	return trade, nil
}

// Validate asserts the trade has a positive price and size.
func (t *Trade) Validate() error {
	switch {
	case !t.Price.IsPositive():
		return &InvalidTradeError{
			Index:  -1,
			Trade:  *t,
			Reason: fmt.Sprintf("price must be positive, got %s", t.Price.String()),
		}
	case t.Size <= 0:
		return &InvalidTradeError{
			Index:  -1,
			Trade:  *t,
			Reason: fmt.Sprintf("size must be positive, got %d", t.Size),
		}
	}

	return nil
}
