package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/tradechart/shared"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	defaultSymbol      = "AAPL"
	defaultWindow      = "20"
	defaultHTMLPath    = "trading_analysis.html"
	defaultCSVPath     = "data/ohlc_data.csv"
	defaultLogLevel    = "info"
	alpacaEnvFilename  = ".alpaca.env"
	sessionDateLagDays = 2
)

// Config is the configuration struct for the service.
type Config struct {
	// Symbol is the charted market.
	Symbol string
	// Date is the session date (YYYY-MM-DD) to chart.
	Date string
	// APIKey is the alpaca api key id.
	APIKey string
	// SecretKey is the alpaca api secret key.
	SecretKey string
	// BaseURL overrides the alpaca market data api base url.
	BaseURL string
	// Window is the donchian channel lookback window.
	Window int
	// HTMLPath is the rendered chart destination.
	HTMLPath string
	// CSVPath is the exported frames destination, empty disables the export.
	CSVPath string
	// HistoricDataFilepath replays trades from a saved response instead of the api.
	HistoricDataFilepath string
	// Schedule is a cron expression for repeated runs.
	Schedule string
	// LogLevel is the minimum logged level.
	LogLevel string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Symbol == "" {
		errs = errors.Join(errs, fmt.Errorf("symbol cannot be an empty string"))
	}
	if cfg.Window < 1 {
		errs = errors.Join(errs, fmt.Errorf("window must be at least 1, got %d", cfg.Window))
	}
	if cfg.HTMLPath == "" {
		errs = errors.Join(errs, fmt.Errorf("html path cannot be an empty string"))
	}
	if cfg.Schedule == "" {
		if _, _, err := shared.SessionBounds(cfg.Date); err != nil {
			errs = errors.Join(errs, fmt.Errorf("invalid date: %w", err))
		}
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = errors.Join(errs, fmt.Errorf("invalid log level: %w", err))
	}

	switch cfg.HistoricDataFilepath {
	case "":
		if cfg.APIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("api key cannot be an empty string"))
		}
		if cfg.SecretKey == "" {
			errs = errors.Join(errs, fmt.Errorf("secret key cannot be an empty string"))
		}
	default:
		if _, err := os.Stat(cfg.HistoricDataFilepath); err != nil {
			errs = errors.Join(errs, fmt.Errorf("historic data file: %w", err))
		}
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
// The flag defaults to the named environment variable, then to the provided fallback.
func (cfg *Config) registerFlag(name string, env string, value interface{}, fallback string, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(env)
	if defValue == "" {
		defValue = fallback
	}

	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			var err error
			def, err = strconv.Atoi(defValue)
			if err != nil {
				return fmt.Errorf("%s: parsing default '%s': %w", name, defValue, err)
			}
		}
		flag.IntVar(value.(*int), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// envPaths returns the .env files searched for credentials, in order of preference.
func envPaths() []string {
	paths := []string{filepath.Join("config", ".env")}

	home, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, filepath.Join(home, alpacaEnvFilename))
	}

	return append(paths, ".env")
}

// defaultDate returns the session date charted when none is configured, relative to the
// calendar day of now.
func defaultDate(now time.Time) string {
	return now.AddDate(0, 0, -sessionDateLagDays).Format(shared.SessionDateLayout)
}

// loadConfig loads the configuration from environment variables and command line flags.
// When path is empty the first existing file of the .env search chain is loaded.
func loadConfig(cfg *Config, path string) error {
	paths := envPaths()
	if path != "" {
		paths = []string{path}
	}

	// Check if the expected .env file exists before loading it.
	for _, p := range paths {
		_, err := os.Stat(p)
		if err != nil {
			continue
		}

		err = godotenv.Load(p)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}

		break
	}

	now, _, err := shared.NewYorkTime()
	if err != nil {
		return err
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name     string
		env      string
		value    interface{}
		fallback string
		usage    string
	}{
		{"symbol", "SYMBOL", &cfg.Symbol, defaultSymbol, "the charted symbol"},
		{"date", "DATE", &cfg.Date, defaultDate(now), "the session date (YYYY-MM-DD)"},
		{"apikey", "API_KEY", &cfg.APIKey, "", "the alpaca api key id"},
		{"secretkey", "SECRET_KEY", &cfg.SecretKey, "", "the alpaca api secret key"},
		{"baseurl", "BASE_URL", &cfg.BaseURL, "", "the alpaca market data api base url"},
		{"window", "WINDOW", &cfg.Window, defaultWindow, "the donchian channel lookback window"},
		{"htmlpath", "HTML_PATH", &cfg.HTMLPath, defaultHTMLPath, "the rendered chart filepath"},
		{"csvpath", "CSV_PATH", &cfg.CSVPath, defaultCSVPath, "the exported frames filepath, empty to disable"},
		{"historicdatafilepath", "HISTORIC_DATA_FILEPATH", &cfg.HistoricDataFilepath, "", "the saved trades response to replay"},
		{"schedule", "SCHEDULE", &cfg.Schedule, "", "the cron schedule (new york time) for repeated runs"},
		{"loglevel", "LOG_LEVEL", &cfg.LogLevel, defaultLogLevel, "the log level"},
	}

	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.env, f.value, f.fallback, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	cfg.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Symbol))

	return cfg.Validate()
}
