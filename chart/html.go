package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dnldd/tradechart/indicator"
	"github.com/dnldd/tradechart/shared"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rs/zerolog"
)

const (
	// emptyValue marks a missing data point for the chart.
	emptyValue = "-"

	increasingColor = "green"
	decreasingColor = "red"
	vwapColor       = "cyan"
	donchianColor   = "blue"
	volumeColor     = "rgba(100, 100, 255, 0.4)"
)

// HTMLConfig represents the configuration for the html chart renderer.
type HTMLConfig struct {
	// FilePath is the destination of the rendered chart.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *HTMLConfig) Validate() error {
	var errs error

	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("chart filepath cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// HTMLRenderer renders frames as an interactive candlestick chart page.
type HTMLRenderer struct {
	cfg *HTMLConfig
}

// NewHTMLRenderer initializes a new html chart renderer.
func NewHTMLRenderer(cfg *HTMLConfig) (*HTMLRenderer, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating html config: %w", err)
	}

	return &HTMLRenderer{cfg: cfg}, nil
}

// Title returns the chart title for the provided market.
func Title(market string) string {
	return fmt.Sprintf("%s Trading Analysis", strings.ToUpper(market))
}

// priceChart builds the candlestick chart with its vwap and donchian overlays.
func priceChart(frames []indicator.Frame, market string, dates []string) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: Title(market),
			Width:     "1200px",
			Height:    "560px",
		}),
		charts.WithTitleOpts(opts.Title{Title: Title(market)}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Min: "dataMin", Max: "dataMax"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	prices := make([]opts.KlineData, 0, len(frames))
	vwap := make([]opts.LineData, 0, len(frames))
	upper := make([]opts.LineData, 0, len(frames))
	lower := make([]opts.LineData, 0, len(frames))

	for idx := range frames {
		frame := &frames[idx]

		// Candlestick values are ordered open, close, low, high.
		prices = append(prices, opts.KlineData{Value: [4]float64{
			frame.Open.InexactFloat64(),
			frame.Close.InexactFloat64(),
			frame.Low.InexactFloat64(),
			frame.High.InexactFloat64(),
		}})

		if frame.VWAP.Valid {
			vwap = append(vwap, opts.LineData{Value: frame.VWAP.Decimal.InexactFloat64()})
		} else {
			vwap = append(vwap, opts.LineData{Value: emptyValue})
		}

		upper = append(upper, opts.LineData{Value: frame.DonchianUpper.InexactFloat64()})
		lower = append(lower, opts.LineData{Value: frame.DonchianLower.InexactFloat64()})
	}

	kline.SetXAxis(dates).AddSeries("Price", prices,
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        increasingColor,
			Color0:       decreasingColor,
			BorderColor:  increasingColor,
			BorderColor0: decreasingColor,
		}),
	)

	overlay := charts.NewLine()
	overlay.SetXAxis(dates).
		AddSeries("VWAP", vwap,
			charts.WithLineStyleOpts(opts.LineStyle{Color: vwapColor})).
		AddSeries("Donchian High", upper,
			charts.WithLineStyleOpts(opts.LineStyle{Color: donchianColor, Type: "dotted"})).
		AddSeries("Donchian Low", lower,
			charts.WithLineStyleOpts(opts.LineStyle{Color: donchianColor, Type: "dotted"}))

	kline.Overlap(overlay)

	return kline
}

// volumeChart builds the traded volume bar chart.
func volumeChart(frames []indicator.Frame, dates []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "1200px",
			Height: "240px",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	volume := make([]opts.BarData, 0, len(frames))
	for idx := range frames {
		volume = append(volume, opts.BarData{Value: frames[idx].Volume})
	}

	bar.SetXAxis(dates).AddSeries("Volume", volume,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: volumeColor}))

	return bar
}

// FilePath returns the destination of the rendered chart.
func (r *HTMLRenderer) FilePath() string {
	return r.cfg.FilePath
}

// Write renders the chart page for the provided frames to w.
func (r *HTMLRenderer) Write(w io.Writer, frames []indicator.Frame, market string) error {
	dates := make([]string, 0, len(frames))
	for idx := range frames {
		dates = append(dates, frames[idx].Date.Format(shared.DateLayout))
	}

	page := components.NewPage()
	page.PageTitle = Title(market)
	page.AddCharts(priceChart(frames, market, dates), volumeChart(frames, dates))

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("rendering chart page: %w", err)
	}

	r.cfg.Logger.Debug().Msgf("rendered %d %s candles", len(frames), market)

	return nil
}
