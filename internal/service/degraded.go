package service

import (
	"fmt"

	"stock-intel/internal/domain"
)

// DegradedProvider supplies what reads return when the backend is unreachable.
type DegradedProvider interface {
	StockData(ticker string, cause error) domain.DisplayResult
	Watchlist(cause error) []domain.WatchlistEntry
}

var defaultWatchlist = []string{"NVDA", "AAPL", "GOOGL"}

// DefaultDegraded returns a fixed low-confidence placeholder and the
// starter watchlist.
type DefaultDegraded struct{}

func (DefaultDegraded) StockData(ticker string, _ error) domain.DisplayResult {
	return domain.DisplayResult{
		Answer:     fmt.Sprintf("Unable to retrieve real-time data for %s. Please try again later.", ticker),
		Sentiment:  domain.SentimentMixed,
		Confidence: domain.ConfidenceLow,
		Evidence:   []domain.Evidence{},
		News:       []domain.NewsItem{},
	}
}

func (DefaultDegraded) Watchlist(_ error) []domain.WatchlistEntry {
	return domain.WatchlistFromTickers(defaultWatchlist)
}
