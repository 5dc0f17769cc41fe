package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/tradechart/shared"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the alpaca market data api base url.
	BaseURL = "https://data.alpaca.markets/v2"
	// SIPFeed is the consolidated feed covering all us exchanges.
	SIPFeed = "sip"

	tradesPath = "/stocks/trades"
	// pageLimit is the maximum number of trades requested per page.
	pageLimit = 10000
	// maxPages bounds pagination for a single fetch.
	maxPages = 10000
)

// AlpacaConfig represents the configuration for the alpaca client.
type AlpacaConfig struct {
	// APIKey is the alpaca api key id.
	APIKey string
	// SecretKey is the alpaca api secret key.
	SecretKey string
	// BaseURL is the market data api base url.
	BaseURL string
	// Feed is the trade data feed.
	Feed string
	// Timeout is the per request timeout.
	Timeout time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *AlpacaConfig) Validate() error {
	var errs error

	if cfg.APIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("alpaca api key cannot be an empty string"))
	}
	if cfg.SecretKey == "" {
		errs = errors.Join(errs, fmt.Errorf("alpaca secret key cannot be an empty string"))
	}
	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("alpaca base url cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// AlpacaClient represents the Alpaca market data API client.
type AlpacaClient struct {
	cfg   *AlpacaConfig
	httpc http.Client
	buf   *bytes.Buffer
}

// Ensure the AlpacaClient implements the TradeFetcher interface.
var _ shared.TradeFetcher = (*AlpacaClient)(nil)

// NewAlpacaClient instantiates a new alpaca client.
func NewAlpacaClient(cfg *AlpacaConfig) (*AlpacaClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating alpaca config: %w", err)
	}

	if cfg.Feed == "" {
		cfg.Feed = SIPFeed
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	return &AlpacaClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: timeout},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}, nil
}

// formURL creates full urls including parameters for the api.
func (c *AlpacaClient) formURL(path string, params string) string {
	c.buf.WriteString(strings.TrimSuffix(c.cfg.BaseURL, "/"))
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// tradesKey returns the gjson path to the trades of the provided market.
func tradesKey(market string) string {
	return "trades." + strings.ReplaceAll(market, ".", `\.`)
}

// ParseTrades parses trades from the provided json data. The offset is the position of the
// first entry in the fetched sequence and is used to locate rejected trades.
func ParseTrades(data []gjson.Result, offset int) ([]shared.Trade, error) {
	trades := make([]shared.Trade, 0, len(data))

	for idx := range data {
		entry := data[idx]

		ts, err := time.Parse(time.RFC3339Nano, entry.Get("t").String())
		if err != nil {
			return nil, fmt.Errorf("parsing trade timestamp: %w", err)
		}

		price, err := decimal.NewFromString(entry.Get("p").Raw)
		if err != nil {
			return nil, fmt.Errorf("parsing trade price: %w", err)
		}

		sizeField := entry.Get("s")
		if sizeField.Type != gjson.Number {
			return nil, fmt.Errorf("parsing trade size: expected a number, got '%s'", sizeField.Raw)
		}

		size, err := strconv.ParseInt(sizeField.Raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing trade size: %w", err)
		}

		trade, err := shared.NewTrade(ts, price, size)
		if err != nil {
			var invalid *shared.InvalidTradeError
			if errors.As(err, &invalid) {
				invalid.Index = offset + idx
			}
			return nil, err
		}

		conditions := entry.Get("c").Array()
		trade.Conditions = make([]string, 0, len(conditions))
		for cdx := range conditions {
			trade.Conditions = append(trade.Conditions, conditions[cdx].String())
		}
		trade.Exchange = entry.Get("x").String()
		trade.ID = entry.Get("i").Int()

		trades = append(trades, trade)
	}

	return trades, nil
}

// fetchPage requests a single page of trades.
func (c *AlpacaClient) fetchPage(ctx context.Context, params url.Values) (*gjson.Result, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.formURL(tradesPath, params.Encode()), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("APCA-API-KEY-ID", c.cfg.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("requesting trades: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body)))
	}

	if !gjson.ValidBytes(body) {
		return nil, resp.StatusCode, fmt.Errorf("malformed response body")
	}

	data := gjson.ParseBytes(body)
	return &data, resp.StatusCode, nil
}

// FetchTrades fetches all trades for the provided market between start and end, following
// pagination until the api reports no further pages. A failure on any page discards the
// pages already fetched.
func (c *AlpacaClient) FetchTrades(ctx context.Context, market string, start time.Time, end time.Time) ([]shared.Trade, error) {
	params := url.Values{}
	params.Set("symbols", market)
	params.Set("start", start.UTC().Format(time.RFC3339))
	params.Set("end", end.UTC().Format(time.RFC3339))
	params.Set("limit", strconv.Itoa(pageLimit))
	params.Set("feed", c.cfg.Feed)
	params.Set("sort", "asc")

	key := tradesKey(market)
	trades := make([]shared.Trade, 0, pageLimit)

	for page := 1; ; page++ {
		if page > maxPages {
			return nil, &shared.FetchError{
				Market: market,
				Err:    fmt.Errorf("exceeded %d pages", maxPages),
			}
		}

		data, status, err := c.fetchPage(ctx, params)
		if err != nil {
			return nil, &shared.FetchError{Market: market, StatusCode: status, Err: err}
		}

		parsed, err := ParseTrades(data.Get(key).Array(), len(trades))
		if err != nil {
			if errors.Is(err, shared.ErrInvalidTrade) {
				return nil, err
			}

			return nil, &shared.FetchError{Market: market, StatusCode: status, Err: err}
		}

		trades = append(trades, parsed...)

		c.cfg.Logger.Debug().Msgf("fetched page %d for %s with %d trades", page, market, len(parsed))

		next := data.Get("next_page_token").String()
		if next == "" {
			break
		}

		params.Set("page_token", next)
	}

	return trades, nil
}
