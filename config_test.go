package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid config",
			cfg: Config{
				Symbol:    "AAPL",
				Date:      "2025-03-14",
				APIKey:    "apikey",
				SecretKey: "secretkey",
				Window:    20,
				HTMLPath:  "trading_analysis.html",
				LogLevel:  "info",
			},
			wantErr: nil,
		},
		{
			name: "missing credentials",
			cfg: Config{
				Symbol:   "AAPL",
				Date:     "2025-03-14",
				Window:   20,
				HTMLPath: "trading_analysis.html",
				LogLevel: "info",
			},
			wantErr: []string{
				"api key cannot be an empty string",
				"secret key cannot be an empty string",
			},
		},
		{
			name: "invalid window and date",
			cfg: Config{
				Symbol:    "AAPL",
				Date:      "14/03/2025",
				APIKey:    "apikey",
				SecretKey: "secretkey",
				Window:    0,
				HTMLPath:  "trading_analysis.html",
				LogLevel:  "info",
			},
			wantErr: []string{
				"window must be at least 1, got 0",
				"invalid date",
			},
		},
		{
			name: "scheduled runs need no date",
			cfg: Config{
				Symbol:    "AAPL",
				APIKey:    "apikey",
				SecretKey: "secretkey",
				Window:    20,
				HTMLPath:  "trading_analysis.html",
				Schedule:  "30 16 * * 1-5",
				LogLevel:  "debug",
			},
			wantErr: nil,
		},
		{
			name: "replay without credentials",
			cfg: Config{
				Symbol:               "AAPL",
				Date:                 "2025-03-14",
				Window:               20,
				HTMLPath:             "trading_analysis.html",
				HistoricDataFilepath: "service/testdata/trades.json",
				LogLevel:             "info",
			},
			wantErr: nil,
		},
		{
			name: "replay file missing",
			cfg: Config{
				Symbol:               "AAPL",
				Date:                 "2025-03-14",
				Window:               20,
				HTMLPath:             "trading_analysis.html",
				HistoricDataFilepath: "testdata/missing.json",
				LogLevel:             "info",
			},
			wantErr: []string{"historic data file"},
		},
		{
			name: "missing symbol, html path and bad log level",
			cfg: Config{
				Date:      "2025-03-14",
				APIKey:    "apikey",
				SecretKey: "secretkey",
				Window:    20,
				LogLevel:  "loud",
			},
			wantErr: []string{
				"symbol cannot be an empty string",
				"html path cannot be an empty string",
				"invalid log level",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestDefaultDate(t *testing.T) {
	// Ensure the default session date lags the current date by two days.
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, defaultDate(now), "2025-02-27")
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args.
	origArgs := os.Args
	defer func() {
		os.Args = origArgs
	}()

	envFile := filepath.Join(t.TempDir(), "test.env")
	err := os.WriteFile(envFile, []byte("SYMBOL=msft\nWINDOW=5\n"), 0644)
	assert.NoError(t, err)

	tests := []struct {
		name        string
		env         map[string]string
		path        string
		args        []string
		expectErr   bool
		expectInErr []string
		expectCfg   Config
	}{
		{
			name: "all from env",
			env: map[string]string{
				"SYMBOL":     "aapl",
				"DATE":       "2025-03-14",
				"API_KEY":    "apikey",
				"SECRET_KEY": "secretkey",
				"WINDOW":     "10",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				Symbol:    "AAPL",
				Date:      "2025-03-14",
				APIKey:    "apikey",
				SecretKey: "secretkey",
				Window:    10,
				HTMLPath:  defaultHTMLPath,
				CSVPath:   defaultCSVPath,
			},
		},
		{
			name:      "all from flags",
			env:       map[string]string{},
			args:      []string{"cmd", "-symbol=TSLA", "-date=2025-03-13", "-apikey=apikey", "-secretkey=secretkey", "-window=3", "-csvpath="},
			expectErr: false,
			expectCfg: Config{
				Symbol:    "TSLA",
				Date:      "2025-03-13",
				APIKey:    "apikey",
				SecretKey: "secretkey",
				Window:    3,
				HTMLPath:  defaultHTMLPath,
				CSVPath:   "",
			},
		},
		{
			name:      "from env file",
			env:       map[string]string{},
			path:      envFile,
			args:      []string{"cmd", "-apikey=apikey", "-secretkey=secretkey"},
			expectErr: false,
			expectCfg: Config{
				Symbol:    "MSFT",
				APIKey:    "apikey",
				SecretKey: "secretkey",
				Window:    5,
				HTMLPath:  defaultHTMLPath,
				CSVPath:   defaultCSVPath,
			},
		},
		{
			name:        "missing credentials",
			env:         map[string]string{},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"api key cannot be an empty string", "secret key cannot be an empty string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test.
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Clear variables a previous case or env file may have set.
			for _, key := range []string{"SYMBOL", "DATE", "API_KEY", "SECRET_KEY", "WINDOW"} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			os.Args = tt.args

			path := tt.path
			if path == "" {
				// Point at a file that does not exist so no .env file is loaded.
				path = filepath.Join(t.TempDir(), "none.env")
			}

			var cfg Config
			err := loadConfig(&cfg, path)

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			assert.Equal(t, cfg.Symbol, tt.expectCfg.Symbol)
			assert.Equal(t, cfg.APIKey, tt.expectCfg.APIKey)
			assert.Equal(t, cfg.SecretKey, tt.expectCfg.SecretKey)
			assert.Equal(t, cfg.Window, tt.expectCfg.Window)
			assert.Equal(t, cfg.HTMLPath, tt.expectCfg.HTMLPath)
			assert.Equal(t, cfg.CSVPath, tt.expectCfg.CSVPath)
			assert.Equal(t, cfg.LogLevel, defaultLogLevel)
			if tt.expectCfg.Date != "" {
				assert.Equal(t, cfg.Date, tt.expectCfg.Date)
			}
		})
	}
}
