package shared

import (
	"context"
	"time"
)

// TradeFetcher defines the requirements for fetching market trades.
type TradeFetcher interface {
	// FetchTrades fetches all trades for the provided market between start and end, ordered by time.
	FetchTrades(ctx context.Context, market string, start time.Time, end time.Time) ([]Trade, error)
}
