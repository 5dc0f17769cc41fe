package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dnldd/tradechart/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HistoricDataConfig represents the historic trade data source configuration.
type HistoricDataConfig struct {
	// FilePath is the filepath to a saved trades response.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// HistoricData represents trade data replayed from a saved alpaca trades response.
type HistoricData struct {
	cfg  *HistoricDataConfig
	data gjson.Result
}

// Ensure HistoricData implements the TradeFetcher interface.
var _ shared.TradeFetcher = (*HistoricData)(nil)

// loadHistoricData loads the historic data bytes from the provided file path.
func loadHistoricData(filepath string) (gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading historic data from file with path '%s': %w", filepath, err)
	}

	if !gjson.ValidBytes(readb) {
		return gjson.Result{}, fmt.Errorf("historic data at '%s' is not valid json", filepath)
	}

	return gjson.ParseBytes(readb), nil
}

// NewHistoricData initializes a new historic trade data source.
func NewHistoricData(cfg *HistoricDataConfig) (*HistoricData, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	data, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %w", err)
	}

	return &HistoricData{
		cfg:  cfg,
		data: data,
	}, nil
}

// FetchTrades returns the saved trades for the provided market within [start, end).
func (h *HistoricData) FetchTrades(_ context.Context, market string, start time.Time, end time.Time) ([]shared.Trade, error) {
	trades, err := ParseTrades(h.data.Get(tradesKey(market)).Array(), 0)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidTrade) {
			return nil, err
		}

		return nil, &shared.FetchError{Market: market, Err: err}
	}

	filtered := make([]shared.Trade, 0, len(trades))
	for idx := range trades {
		ts := trades[idx].Timestamp
		if ts.Before(start) || !ts.Before(end) {
			continue
		}

		filtered = append(filtered, trades[idx])
	}

	h.cfg.Logger.Info().Msgf("replaying %d of %d historic trades for %s from %s",
		len(filtered), len(trades), market, h.cfg.FilePath)

	return filtered, nil
}
