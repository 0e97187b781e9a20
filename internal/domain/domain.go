package domain

import (
	"strings"
	"time"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentMixed    Sentiment = "Mixed"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// IsKnown reports whether s is one of the four labels the backend is expected to send.
func (s Sentiment) IsKnown() bool {
	switch s {
	case SentimentPositive, SentimentMixed, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

func (c Confidence) IsKnown() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// MaxTickerLen mirrors the add-ticker input limit.
const MaxTickerLen = 15

// DefaultTicker is searched on bootstrap when the watchlist is empty.
const DefaultTicker = "NVDA"

type Evidence struct {
	Summary   string `json:"summary"`
	SourceURL string `json:"source_url,omitempty"`
}

type NewsItem struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// DisplayResult is the payload of both a ticker lookup and a free-text query.
type DisplayResult struct {
	Answer     string     `json:"answer"`
	Sentiment  Sentiment  `json:"sentiment"`
	Confidence Confidence `json:"confidence"`
	Evidence   []Evidence `json:"evidence"`
	News       []NewsItem `json:"news"`
}

// StockDetails holds price and fundamentals. Fields the backend may report as
// null are pointers.
type StockDetails struct {
	Symbol        string   `json:"symbol,omitempty"`
	CompanyName   string   `json:"company_name,omitempty"`
	Price         *float64 `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Volume        *float64 `json:"volume"`
	PERatio       *float64 `json:"pe_ratio"`
	ROE           *float64 `json:"roe"`
	ProfitMargin  *float64 `json:"profit_margin"`
	MarketCap     *float64 `json:"market_cap"`
	Currency      string   `json:"currency"`
}

type WatchlistEntry struct {
	Ticker    string    `json:"ticker"`
	Sentiment Sentiment `json:"sentiment"`
}

// IngestResult is the backend's acknowledgement of an ingestion trigger.
type IngestResult struct {
	Status string `json:"status"`
	Ticker string `json:"ticker"`
}

// SessionState is everything a dashboard session renders from.
type SessionState struct {
	CurrentTicker string           `json:"current_ticker,omitempty"`
	StockData     *DisplayResult   `json:"stock_data,omitempty"`
	StockDetails  *StockDetails    `json:"stock_details,omitempty"`
	RAGData       *DisplayResult   `json:"rag_data,omitempty"`
	Watchlist     []WatchlistEntry `json:"watchlist"`
	Loading       bool             `json:"loading"`
	Error         string           `json:"error,omitempty"`
	LastUpdated   *time.Time       `json:"last_updated,omitempty"`
}

// Displayed returns the authoritative result and the ticker label to show
// with it. Query results win and carry no ticker label.
func (s SessionState) Displayed() (*DisplayResult, string) {
	if s.RAGData != nil {
		return s.RAGData, ""
	}
	return s.StockData, s.CurrentTicker
}

// WatchlistFromTickers maps bare tickers to entries with the placeholder
// sentiment; the watchlist endpoints never report a real one.
func WatchlistFromTickers(tickers []string) []WatchlistEntry {
	out := make([]WatchlistEntry, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, WatchlistEntry{Ticker: t, Sentiment: SentimentMixed})
	}
	return out
}

// NormalizeTicker trims, uppercases and truncates user input to MaxTickerLen.
func NormalizeTicker(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if len(t) > MaxTickerLen {
		t = t[:MaxTickerLen]
	}
	return t
}
