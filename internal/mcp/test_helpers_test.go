package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/provider"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var errBackend = errors.New("backend unavailable")

type stubStockService struct {
	mu sync.Mutex

	results   map[string]domain.DisplayResult
	details   map[string]*domain.StockDetails
	watchlist []domain.WatchlistEntry
	healthy   bool
	writeErr  error

	lastQuestion string
	lastOpts     provider.QueryOptions
	lastIngest   string
}

func (s *stubStockService) FetchStockData(_ context.Context, ticker string) (domain.DisplayResult, error) {
	if res, ok := s.results[ticker]; ok {
		return res, nil
	}
	return domain.DisplayResult{
		Answer:     "Unable to retrieve real-time data for " + ticker + ". Please try again later.",
		Sentiment:  domain.SentimentMixed,
		Confidence: domain.ConfidenceLow,
		Evidence:   []domain.Evidence{},
		News:       []domain.NewsItem{},
	}, nil
}

func (s *stubStockService) FetchStockDetails(_ context.Context, ticker string) *domain.StockDetails {
	return s.details[ticker]
}

func (s *stubStockService) FetchWatchlist(context.Context) []domain.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.WatchlistEntry(nil), s.watchlist...)
}

func (s *stubStockService) HealthCheck(context.Context) bool { return s.healthy }

func (s *stubStockService) AddToWatchlist(_ context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	s.watchlist = append(s.watchlist, domain.WatchlistEntry{Ticker: ticker, Sentiment: domain.SentimentNeutral})
	return append([]domain.WatchlistEntry(nil), s.watchlist...), nil
}

func (s *stubStockService) RemoveFromWatchlist(_ context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	kept := s.watchlist[:0]
	for _, e := range s.watchlist {
		if e.Ticker != ticker {
			kept = append(kept, e)
		}
	}
	s.watchlist = kept
	return append([]domain.WatchlistEntry(nil), s.watchlist...), nil
}

func (s *stubStockService) AskQuestion(_ context.Context, question string, opts provider.QueryOptions) (domain.DisplayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuestion = question
	s.lastOpts = opts
	if s.writeErr != nil {
		return domain.DisplayResult{}, s.writeErr
	}
	return domain.DisplayResult{
		Answer:     "Chipmakers rallied on AI demand.",
		Sentiment:  domain.SentimentPositive,
		Confidence: domain.ConfidenceMedium,
		Evidence:   []domain.Evidence{},
		News:       []domain.NewsItem{},
	}, nil
}

func (s *stubStockService) TriggerIngestion(_ context.Context, ticker string) (domain.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIngest = ticker
	if s.writeErr != nil {
		return domain.IngestResult{}, s.writeErr
	}
	return domain.IngestResult{Status: "queued", Ticker: ticker}, nil
}

func testServer() (*sdkmcp.Server, *stubStockService) {
	price := 875.25
	svc := &stubStockService{
		results: map[string]domain.DisplayResult{
			"NVDA": {
				Answer:     "Datacenter revenue keeps climbing.",
				Sentiment:  domain.SentimentPositive,
				Confidence: domain.ConfidenceHigh,
				Evidence:   []domain.Evidence{{Summary: "Q4 beat", SourceURL: "https://example.com/q4"}},
				News:       []domain.NewsItem{{Title: "NVDA hits record", Source: "Reuters", Timestamp: "2026-03-10T10:00:00Z"}},
			},
		},
		details: map[string]*domain.StockDetails{
			"NVDA": {Symbol: "NVDA", Price: &price, Change: 4.5, ChangePercent: 0.52, Currency: "USD"},
		},
		watchlist: []domain.WatchlistEntry{{Ticker: "NVDA", Sentiment: domain.SentimentPositive}},
		healthy:   true,
	}

	srv := NewServer(nil, svc, svc, ServerConfig{RequestTimeout: time.Second})
	return srv, svc
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	body, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
