package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/simaogato/shareledger/internal/config"
	"github.com/simaogato/shareledger/internal/domain"
)

// Client talks to the Yahoo Finance search and chart endpoints.
// It implements domain.SymbolSearcher and domain.QuoteProvider.
type Client struct {
	http      *resty.Client
	searchURL string
	chartURL  string
}

// NewClient creates a Yahoo Finance client from the quotes config
func NewClient(cfg config.QuotesConfig) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout()).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:      httpClient,
		searchURL: cfg.SearchURL,
		chartURL:  strings.TrimRight(cfg.ChartURL, "/"),
	}
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string  `json:"symbol"`
		ShortName string  `json:"shortname"`
		LongName  string  `json:"longname"`
		Exchange  string  `json:"exchange"`
		QuoteType string  `json:"quoteType"`
		Score     float64 `json:"score"`
	} `json:"quotes"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string   `json:"currency"`
				Symbol             string   `json:"symbol"`
				RegularMarketTime  int64    `json:"regularMarketTime"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"previousClose"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Search returns the raw equity and non-equity candidates for a query
func (c *Client) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":                query,
			"quotesCount":      "10",
			"newsCount":        "0",
			"enableFuzzyQuery": "true",
			"quotesQueryId":    "tss_match_phrase_query",
		}).
		Get(c.searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("symbol search returned status %d", resp.StatusCode())
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	matches := make([]domain.SymbolMatch, 0, len(body.Quotes))
	for _, q := range body.Quotes {
		matches = append(matches, domain.SymbolMatch{
			Symbol:    q.Symbol,
			ShortName: q.ShortName,
			LongName:  q.LongName,
			Exchange:  q.Exchange,
			QuoteType: q.QuoteType,
			Score:     q.Score,
		})
	}
	return matches, nil
}

// Quote returns the latest regular market price and previous close of a canonical symbol
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.ProviderQuote, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    "2d",
		}).
		Get(c.chartURL + "/" + url.PathEscape(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}

	var body chartResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse chart response for %s (status %d): %w", symbol, resp.StatusCode(), err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s", symbol, body.Chart.Error.Description)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chart request for %s returned status %d", symbol, resp.StatusCode())
	}
	if len(body.Chart.Result) == 0 || body.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("no price data for %s", symbol)
	}

	meta := body.Chart.Result[0].Meta
	quote := &domain.ProviderQuote{
		Symbol:       symbol,
		CurrentPrice: decimal.NewFromFloat(*meta.RegularMarketPrice),
		Currency:     meta.Currency,
	}
	if meta.Symbol != "" {
		quote.Symbol = meta.Symbol
	}
	if meta.RegularMarketTime > 0 {
		quote.MarketTime = time.Unix(meta.RegularMarketTime, 0).UTC()
	}

	previous := meta.PreviousClose
	if previous == nil {
		previous = meta.ChartPreviousClose
	}
	if previous != nil {
		p := decimal.NewFromFloat(*previous)
		quote.PreviousClose = &p
	}

	return quote, nil
}
