package shared

import (
	"fmt"
	"time"
)

const (
	// SessionDateLayout is the format layout for parsing session dates.
	SessionDateLayout = "2006-01-02"
	// DateLayout is the format layout for rendering candle dates.
	DateLayout = "2006-01-02 15:04:05"
	// NewYorkLocation is the location name of new york.
	NewYorkLocation = "America/New_York"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneMinute Timeframe = iota
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	default:
		return "unknown"
	}
}

// Duration returns the bucket width of the provided timeframe.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case OneMinute:
		return time.Minute, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %s", t.String())
	}
}

// NewYorkTime returns the current time in new york (EST/EDT adjusted automatically).
func NewYorkTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	now := time.Now().In(loc)
	return now, loc, nil
}

// SessionBounds returns the UTC start and end of the new york calendar day denoted by the
// provided date, so post-market trades stay within the session across EST and EDT.
func SessionBounds(date string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("loading new york timezone: %w", err)
	}

	day, err := time.ParseInLocation(SessionDateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing session date '%s': %w", date, err)
	}

	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}
