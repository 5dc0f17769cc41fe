package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/tradechart/chart"
	"github.com/dnldd/tradechart/fetch"
	"github.com/dnldd/tradechart/indicator"
	"github.com/dnldd/tradechart/shared"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Renderer defines the requirements for presenting computed frames.
type Renderer interface {
	// Write writes the presentation of the provided frames for the market to w.
	Write(w io.Writer, frames []indicator.Frame, market string) error
	// FilePath returns the destination of the presentation.
	FilePath() string
}

// PipelineConfig represents the configuration struct for the charting pipeline.
type PipelineConfig struct {
	// Market is the charted market.
	Market string
	// Date is the session date (YYYY-MM-DD) charted by unscheduled runs.
	Date string
	// Window is the donchian channel lookback window.
	Window int
	// APIKey is the alpaca api key id.
	APIKey string
	// SecretKey is the alpaca api secret key.
	SecretKey string
	// BaseURL is the alpaca market data api base url.
	BaseURL string
	// HistoricDataFilepath replays trades from a saved response instead of the api when set.
	HistoricDataFilepath string
	// HTMLFilepath is the rendered chart destination.
	HTMLFilepath string
	// CSVFilepath is the exported frames destination, no export when empty.
	CSVFilepath string
	// Schedule is a cron expression (new york time) for repeated runs, a single run when empty.
	Schedule string
}

// Validate asserts the config sane inputs.
func (cfg *PipelineConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("market cannot be an empty string"))
	}
	if cfg.Window < 1 {
		errs = errors.Join(errs, fmt.Errorf("donchian window must be at least 1, got %d", cfg.Window))
	}
	if cfg.HTMLFilepath == "" {
		errs = errors.Join(errs, fmt.Errorf("chart filepath cannot be an empty string"))
	}
	if cfg.Schedule == "" && cfg.Date == "" {
		errs = errors.Join(errs, fmt.Errorf("session date cannot be an empty string"))
	}
	if cfg.HistoricDataFilepath == "" {
		if cfg.APIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("alpaca api key cannot be an empty string"))
		}
		if cfg.SecretKey == "" {
			errs = errors.Join(errs, fmt.Errorf("alpaca secret key cannot be an empty string"))
		}
	}

	return errs
}

// Pipeline fetches a session of trades for a market, aggregates them into candles, derives
// indicators and renders the result.
type Pipeline struct {
	cfg       *PipelineConfig
	fetcher   shared.TradeFetcher
	renderers []Renderer
	logger    *zerolog.Logger
}

// NewPipeline initializes a new charting pipeline.
func NewPipeline(cfg *PipelineConfig) (*Pipeline, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating pipeline config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "tradechart").Logger()

	var fetcher shared.TradeFetcher
	switch {
	case cfg.HistoricDataFilepath != "":
		historicDataLogger := logger.With().Str("component", "historicdata").Logger()
		fetcher, err = fetch.NewHistoricData(&fetch.HistoricDataConfig{
			FilePath: cfg.HistoricDataFilepath,
			Logger:   &historicDataLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating historic data: %w", err)
		}
	default:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = fetch.BaseURL
		}

		alpacaLogger := logger.With().Str("component", "alpaca").Logger()
		fetcher, err = fetch.NewAlpacaClient(&fetch.AlpacaConfig{
			APIKey:    cfg.APIKey,
			SecretKey: cfg.SecretKey,
			BaseURL:   baseURL,
			Logger:    &alpacaLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating alpaca client: %w", err)
		}
	}

	chartLogger := logger.With().Str("component", "chart").Logger()
	html, err := chart.NewHTMLRenderer(&chart.HTMLConfig{
		FilePath: cfg.HTMLFilepath,
		Logger:   &chartLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating html renderer: %w", err)
	}

	renderers := []Renderer{html}

	if cfg.CSVFilepath != "" {
		csvLogger := logger.With().Str("component", "csv").Logger()
		exporter, err := chart.NewCSVExporter(&chart.CSVConfig{
			FilePath: cfg.CSVFilepath,
			Logger:   &csvLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating csv exporter: %w", err)
		}

		renderers = append(renderers, exporter)
	}

	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		renderers: renderers,
		logger:    &logger,
	}, nil
}

// RunSession charts the session denoted by the provided date. Any fetch or trade error
// aborts the run before anything is rendered.
func (p *Pipeline) RunSession(ctx context.Context, date string) ([]indicator.Frame, error) {
	logger := p.logger.With().Str("run", uuid.New().String()).Logger()

	start, end, err := shared.SessionBounds(date)
	if err != nil {
		return nil, err
	}

	logger.Info().Msgf("fetching %s trades from %s to %s", p.cfg.Market,
		start.Format(time.RFC3339), end.Format(time.RFC3339))

	trades, err := p.fetcher.FetchTrades(ctx, p.cfg.Market, start, end)
	if err != nil {
		p.logInvalidTrade(&logger, err)
		return nil, fmt.Errorf("fetching trades: %w", err)
	}

	candles, err := shared.AggregateTrades(trades, p.cfg.Market)
	if err != nil {
		p.logInvalidTrade(&logger, err)
		return nil, fmt.Errorf("aggregating trades: %w", err)
	}

	frames, err := indicator.Compute(candles, p.cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("computing indicators: %w", err)
	}

	p.logSummary(&logger, len(trades), frames)

	err = p.render(&logger, frames)
	if err != nil {
		return nil, fmt.Errorf("rendering frames: %w", err)
	}

	return frames, nil
}

// render presents the provided frames through every renderer. Presentations are staged in
// memory and only written once all of them succeed; files already written are removed when
// a later write fails.
func (p *Pipeline) render(logger *zerolog.Logger, frames []indicator.Frame) error {
	outputs := make([]bytes.Buffer, len(p.renderers))
	for idx := range p.renderers {
		err := p.renderers[idx].Write(&outputs[idx], frames, p.cfg.Market)
		if err != nil {
			return err
		}
	}

	for idx := range p.renderers {
		dir := filepath.Dir(p.renderers[idx].FilePath())
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	written := make([]string, 0, len(p.renderers))
	for idx := range p.renderers {
		path := p.renderers[idx].FilePath()
		err := os.WriteFile(path, outputs[idx].Bytes(), 0644)
		if err != nil {
			p.removeOutputs(logger, append(written, path))
			return fmt.Errorf("writing %s: %w", path, err)
		}

		written = append(written, path)
		logger.Info().Msgf("wrote %d %s frames to %s", len(frames), p.cfg.Market, path)
	}

	return nil
}

// removeOutputs removes the provided output files of a failed run. Paths that are not
// regular files are left untouched.
func (p *Pipeline) removeOutputs(logger *zerolog.Logger, paths []string) {
	for _, path := range paths {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		err = os.Remove(path)
		if err != nil {
			logger.Error().Err(err).Msgf("removing %s", path)
		}
	}
}

// logInvalidTrade dumps the rejected trade of an invalid trade error.
func (p *Pipeline) logInvalidTrade(logger *zerolog.Logger, err error) {
	var invalid *shared.InvalidTradeError
	if errors.As(err, &invalid) {
		logger.Debug().Msgf("rejected trade: %s", spew.Sdump(invalid.Trade))
	}
}

// logSummary logs an overview of the computed session.
func (p *Pipeline) logSummary(logger *zerolog.Logger, trades int, frames []indicator.Frame) {
	if len(frames) == 0 {
		logger.Warn().Msgf("no %s trades found for the session", p.cfg.Market)
		return
	}

	var bullish, bearish int
	for idx := range frames {
		switch frames[idx].FetchSentiment() {
		case shared.Bullish:
			bullish++
		case shared.Bearish:
			bearish++
		}
	}

	last := frames[len(frames)-1]
	logger.Info().
		Int("trades", trades).
		Int("candles", len(frames)).
		Int("bullish", bullish).
		Int("bearish", bearish).
		Str("close", last.Close.String()).
		Str("vwap", last.VWAP.Decimal.String()).
		Msgf("computed %s session from %s to %s", p.cfg.Market,
			frames[0].Date.Format(shared.DateLayout), last.Date.Format(shared.DateLayout))
}

// Run handles the lifecycle processes of the pipeline. Without a schedule it charts the
// configured date once. With a schedule it charts the current new york date on every
// trigger until the context is cancelled; failed scheduled runs are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.cfg.Schedule == "" {
		_, err := p.RunSession(ctx, p.cfg.Date)
		return err
	}

	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return err
	}

	jobScheduler := gocron.NewScheduler(loc)
	jobScheduler.SingletonModeAll()

	_, err = jobScheduler.Cron(p.cfg.Schedule).Do(func() {
		now, _, err := shared.NewYorkTime()
		if err != nil {
			p.logger.Error().Err(err).Msg("fetching new york time")
			return
		}

		_, err = p.RunSession(ctx, now.Format(shared.SessionDateLayout))
		if err != nil {
			p.logger.Error().Err(err).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling pipeline with '%s': %w", p.cfg.Schedule, err)
	}

	p.logger.Info().Msgf("charting %s on schedule '%s'", p.cfg.Market, p.cfg.Schedule)

	jobScheduler.StartAsync()
	<-ctx.Done()
	jobScheduler.Stop()

	return nil
}
