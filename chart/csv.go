package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/dnldd/tradechart/indicator"
	"github.com/dnldd/tradechart/shared"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
)

// FrameDTO is the csv row representation of a frame.
type FrameDTO struct {
	Date         string `csv:"date"`
	Open         string `csv:"open"`
	High         string `csv:"high"`
	Low          string `csv:"low"`
	Close        string `csv:"close"`
	Volume       int64  `csv:"volume"`
	VWAP         string `csv:"vwap"`
	DonchianHigh string `csv:"donchian_high"`
	DonchianLow  string `csv:"donchian_low"`
}

// ToDTO converts frames to their csv rows. Null vwap values are left empty.
func ToDTO(frames []indicator.Frame) []*FrameDTO {
	rows := make([]*FrameDTO, 0, len(frames))
	for idx := range frames {
		frame := &frames[idx]

		var vwap string
		if frame.VWAP.Valid {
			vwap = frame.VWAP.Decimal.String()
		}

		rows = append(rows, &FrameDTO{
			Date:         frame.Date.Format(shared.DateLayout),
			Open:         frame.Open.String(),
			High:         frame.High.String(),
			Low:          frame.Low.String(),
			Close:        frame.Close.String(),
			Volume:       frame.Volume,
			VWAP:         vwap,
			DonchianHigh: frame.DonchianUpper.String(),
			DonchianLow:  frame.DonchianLower.String(),
		})
	}

	return rows
}

// CSVConfig represents the configuration for the csv frame exporter.
type CSVConfig struct {
	// FilePath is the destination of the exported frames.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *CSVConfig) Validate() error {
	var errs error

	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("csv filepath cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// CSVExporter writes frames as csv rows.
type CSVExporter struct {
	cfg *CSVConfig
}

// NewCSVExporter initializes a new csv frame exporter.
func NewCSVExporter(cfg *CSVConfig) (*CSVExporter, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating csv config: %w", err)
	}

	return &CSVExporter{cfg: cfg}, nil
}

// FilePath returns the destination of the exported frames.
func (e *CSVExporter) FilePath() string {
	return e.cfg.FilePath
}

// Write writes the provided frames to w with a header row.
func (e *CSVExporter) Write(w io.Writer, frames []indicator.Frame, market string) error {
	rows := ToDTO(frames)
	err := gocsv.Marshal(&rows, w)
	if err != nil {
		return fmt.Errorf("marshalling frames: %w", err)
	}

	e.cfg.Logger.Debug().Msgf("exported %d %s frames", len(rows), market)

	return nil
}
