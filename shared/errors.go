package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch is matched by every error returned from a trade fetcher.
	ErrFetch = errors.New("fetch error")
	// ErrInvalidTrade is matched by every malformed trade rejection.
	ErrInvalidTrade = errors.New("invalid trade")
)

// FetchError describes a failed trade fetch for a market.
type FetchError struct {
	// Market is the market being fetched.
	Market string
	// StatusCode is the http status code of the failed request, zero if no response was received.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

// Error returns the fetch error message.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching trades for %s (status %d): %v", e.Market, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetching trades for %s: %v", e.Market, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the fetch error against ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// InvalidTradeError describes a trade rejected for violating trade invariants.
type InvalidTradeError struct {
	// Index is the position of the trade in its fetched sequence, -1 when unknown.
	Index int
	// Trade is the rejected trade.
	Trade Trade
	// Reason describes the violated invariant.
	Reason string
}

// Error returns the invalid trade error message.
func (e *InvalidTradeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrInvalidTrade, e.Reason)
	}

	return fmt.Sprintf("%v at index %d: %s", ErrInvalidTrade, e.Index, e.Reason)
}

// Is matches the invalid trade error against ErrInvalidTrade.
func (e *InvalidTradeError) Is(target error) bool {
	return target == ErrInvalidTrade
}
