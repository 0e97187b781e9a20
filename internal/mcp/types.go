package mcp

import (
	"fmt"
	"strings"

	"stock-intel/internal/domain"
	"stock-intel/internal/provider"
)

const maxHoursLookback = 24 * 30

type tickerInput struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol (e.g. NVDA, AAPL, RELIANCE.NS)"`
}

type analysisOutput struct {
	Ticker string               `json:"ticker"`
	Result domain.DisplayResult `json:"result"`
}

type detailsOutput struct {
	Ticker    string               `json:"ticker"`
	Available bool                 `json:"available"`
	Details   *domain.StockDetails `json:"details,omitempty"`
}

type watchlistInput struct{}

type watchlistOutput struct {
	Watchlist []domain.WatchlistEntry `json:"watchlist"`
}

type queryInput struct {
	Question      string `json:"question" jsonschema:"free-text question about stocks or the market"`
	Ticker        string `json:"ticker,omitempty" jsonschema:"optional ticker to focus the answer on"`
	HoursLookback int    `json:"hours_lookback,omitempty" jsonschema:"optional news lookback window in hours, max 720"`
}

type queryOutput struct {
	Result domain.DisplayResult `json:"result"`
}

type ingestOutput struct {
	Status string `json:"status"`
	Ticker string `json:"ticker"`
}

type healthInput struct{}

type healthOutput struct {
	Healthy bool `json:"healthy"`
}

// normalizeTicker uppercases and validates a ticker. Exchange suffixes and
// index carets are allowed. Unlike the input boxes, overlong tickers are
// rejected rather than truncated.
func normalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("ticker is required")
	}
	if len(ticker) > domain.MaxTickerLen {
		return "", fmt.Errorf("ticker must be at most %d characters", domain.MaxTickerLen)
	}
	for _, r := range ticker {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '^', r == '=':
		default:
			return "", fmt.Errorf("invalid ticker: %s", ticker)
		}
	}
	return ticker, nil
}

func normalizeQuery(in queryInput) (string, provider.QueryOptions, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return "", provider.QueryOptions{}, fmt.Errorf("question is required")
	}

	var opts provider.QueryOptions
	if strings.TrimSpace(in.Ticker) != "" {
		ticker, err := normalizeTicker(in.Ticker)
		if err != nil {
			return "", provider.QueryOptions{}, err
		}
		opts.Ticker = ticker
	}

	switch {
	case in.HoursLookback < 0:
		return "", provider.QueryOptions{}, fmt.Errorf("hours_lookback must not be negative")
	case in.HoursLookback > maxHoursLookback:
		opts.HoursLookback = maxHoursLookback
	default:
		opts.HoursLookback = in.HoursLookback
	}
	return question, opts, nil
}
