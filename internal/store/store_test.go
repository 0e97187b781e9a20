package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/provider"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type stubService struct {
	mu sync.Mutex

	data      map[string]domain.DisplayResult
	dataErr   error
	details   map[string]*domain.StockDetails
	watchlist []domain.WatchlistEntry
	mutateErr error
	answer    domain.DisplayResult
	askErr    error

	// gates block the named call until closed, keyed by ticker or question.
	gates map[string]chan struct{}

	calls []string
	// onData runs after FetchStockData is called and before it returns.
	onData func()
}

func newStub() *stubService {
	return &stubService{
		data:    map[string]domain.DisplayResult{},
		details: map[string]*domain.StockDetails{},
		gates:   map[string]chan struct{}{},
	}
}

func (s *stubService) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubService) wait(ctx context.Context, key string) error {
	s.mu.Lock()
	gate := s.gates[key]
	s.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubService) FetchStockData(ctx context.Context, ticker string) (domain.DisplayResult, error) {
	s.record("data:" + ticker)
	if err := s.wait(ctx, ticker); err != nil {
		return domain.DisplayResult{}, err
	}
	if s.onData != nil {
		s.onData()
	}
	if s.dataErr != nil {
		return domain.DisplayResult{}, s.dataErr
	}
	return s.data[ticker], nil
}

func (s *stubService) FetchStockDetails(ctx context.Context, ticker string) *domain.StockDetails {
	s.record("details:" + ticker)
	return s.details[ticker]
}

func (s *stubService) FetchWatchlist(ctx context.Context) []domain.WatchlistEntry {
	s.record("watchlist")
	if err := s.wait(ctx, "watchlist"); err != nil {
		return nil
	}
	return s.watchlist
}

func (s *stubService) AddToWatchlist(_ context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	s.record("add:" + ticker)
	if s.mutateErr != nil {
		return nil, s.mutateErr
	}
	return append(append([]domain.WatchlistEntry{}, s.watchlist...), domain.WatchlistEntry{Ticker: ticker, Sentiment: domain.SentimentMixed}), nil
}

func (s *stubService) RemoveFromWatchlist(_ context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	s.record("remove:" + ticker)
	if s.mutateErr != nil {
		return nil, s.mutateErr
	}
	out := []domain.WatchlistEntry{}
	for _, e := range s.watchlist {
		if e.Ticker != ticker {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubService) AskQuestion(ctx context.Context, question string, _ provider.QueryOptions) (domain.DisplayResult, error) {
	s.record("ask:" + question)
	if err := s.wait(ctx, question); err != nil {
		return domain.DisplayResult{}, err
	}
	if s.askErr != nil {
		return domain.DisplayResult{}, s.askErr
	}
	return s.answer, nil
}

var fixedNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func newTestStore(svc StockService) *Store {
	return New(noop.NewTracerProvider().Tracer("test"), svc, zerolog.Nop(), Config{
		Now: func() time.Time { return fixedNow },
	})
}

func TestSearchStockFetchesDataThenDetails(t *testing.T) {
	svc := newStub()
	price := 120.0
	svc.data["NVDA"] = domain.DisplayResult{Answer: "strong", Sentiment: domain.SentimentPositive}
	svc.details["NVDA"] = &domain.StockDetails{Price: &price}
	st := newTestStore(svc)

	var loadingDuringFetch bool
	svc.onData = func() { loadingDuringFetch = st.Snapshot().Loading }

	require.NoError(t, st.SearchStock(context.Background(), "NVDA"))

	assert.Equal(t, []string{"data:NVDA", "details:NVDA"}, svc.calls)
	assert.True(t, loadingDuringFetch)

	snap := st.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Equal(t, "NVDA", snap.CurrentTicker)
	require.NotNil(t, snap.StockData)
	assert.Equal(t, "strong", snap.StockData.Answer)
	require.NotNil(t, snap.StockDetails)
	assert.Equal(t, 120.0, *snap.StockDetails.Price)
	require.NotNil(t, snap.LastUpdated)
	assert.Equal(t, fixedNow, *snap.LastUpdated)
	assert.Nil(t, snap.RAGData)
}

func TestSearchStockClearsQueryResult(t *testing.T) {
	svc := newStub()
	svc.answer = domain.DisplayResult{Answer: "rag"}
	svc.data["AAPL"] = domain.DisplayResult{Answer: "apple"}
	st := newTestStore(svc)

	require.NoError(t, st.QueryRAG(context.Background(), "what moved tech?"))
	require.NotNil(t, st.Snapshot().RAGData)

	require.NoError(t, st.SearchStock(context.Background(), "AAPL"))
	snap := st.Snapshot()
	assert.Nil(t, snap.RAGData)
	res, label := snap.Displayed()
	require.NotNil(t, res)
	assert.Equal(t, "apple", res.Answer)
	assert.Equal(t, "AAPL", label)
}

func TestSearchStockMissingDetailsStillSucceeds(t *testing.T) {
	svc := newStub()
	svc.data["ITC"] = domain.DisplayResult{Answer: "flat"}
	st := newTestStore(svc)

	require.NoError(t, st.SearchStock(context.Background(), "ITC"))
	snap := st.Snapshot()
	assert.NotNil(t, snap.StockData)
	assert.Nil(t, snap.StockDetails)
	assert.Empty(t, snap.Error)
}

func TestSearchStockFailureSetsError(t *testing.T) {
	svc := newStub()
	svc.dataErr = errors.New("boom")
	st := newTestStore(svc)

	err := st.SearchStock(context.Background(), "NVDA")
	require.Error(t, err)

	snap := st.Snapshot()
	assert.Equal(t, "Failed to fetch stock data", snap.Error)
	assert.Nil(t, snap.StockData)
	assert.Nil(t, snap.StockDetails)
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"data:NVDA"}, svc.calls)
}

func TestSearchStockRejectsBlankTicker(t *testing.T) {
	st := newTestStore(newStub())
	assert.ErrorIs(t, st.SearchStock(context.Background(), "  "), ErrEmptyTicker)
	assert.False(t, st.Snapshot().Loading)
}

func TestQueryRAGClearsTickerResult(t *testing.T) {
	svc := newStub()
	price := 1.0
	svc.data["NVDA"] = domain.DisplayResult{Answer: "nv"}
	svc.details["NVDA"] = &domain.StockDetails{Price: &price}
	svc.answer = domain.DisplayResult{Answer: "macro", Sentiment: domain.SentimentNegative}
	st := newTestStore(svc)

	require.NoError(t, st.SearchStock(context.Background(), "NVDA"))
	require.NoError(t, st.QueryRAG(context.Background(), "how is the market?"))

	snap := st.Snapshot()
	assert.Nil(t, snap.StockData)
	assert.Nil(t, snap.StockDetails)
	assert.Empty(t, snap.CurrentTicker)
	require.NotNil(t, snap.RAGData)
	assert.Equal(t, "macro", snap.RAGData.Answer)
	assert.False(t, snap.Loading)

	res, label := st.Displayed()
	assert.Equal(t, "macro", res.Answer)
	assert.Empty(t, label)
}

func TestQueryRAGFailure(t *testing.T) {
	svc := newStub()
	svc.answer = domain.DisplayResult{Answer: "first"}
	st := newTestStore(svc)
	require.NoError(t, st.QueryRAG(context.Background(), "q1"))

	svc.askErr = errors.New("500")
	require.Error(t, st.QueryRAG(context.Background(), "q2"))

	snap := st.Snapshot()
	assert.Equal(t, "Failed to process question", snap.Error)
	assert.Nil(t, snap.RAGData)
	assert.False(t, snap.Loading)
}

func TestQueryRAGRejectsBlankQuestion(t *testing.T) {
	svc := newStub()
	st := newTestStore(svc)
	assert.ErrorIs(t, st.QueryRAG(context.Background(), "\t"), ErrEmptyQuestion)
	assert.Empty(t, svc.calls)
}

func TestNewActionClearsPreviousError(t *testing.T) {
	svc := newStub()
	svc.dataErr = errors.New("boom")
	st := newTestStore(svc)
	_ = st.SearchStock(context.Background(), "NVDA")
	require.NotEmpty(t, st.Snapshot().Error)

	svc.dataErr = nil
	require.NoError(t, st.SearchStock(context.Background(), "NVDA"))
	assert.Empty(t, st.Snapshot().Error)
}

func TestLaterSearchSupersedesEarlier(t *testing.T) {
	svc := newStub()
	svc.data["SLOW"] = domain.DisplayResult{Answer: "slow"}
	svc.data["FAST"] = domain.DisplayResult{Answer: "fast"}
	svc.gates["SLOW"] = make(chan struct{})
	st := newTestStore(svc)

	errCh := make(chan error, 1)
	go func() { errCh <- st.SearchStock(context.Background(), "SLOW") }()

	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.calls) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, st.SearchStock(context.Background(), "FAST"))
	assert.ErrorIs(t, <-errCh, ErrSuperseded)

	snap := st.Snapshot()
	assert.Equal(t, "FAST", snap.CurrentTicker)
	assert.Equal(t, "fast", snap.StockData.Answer)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
}

func TestSupersededResultDoesNotClearLoading(t *testing.T) {
	svc := newStub()
	svc.data["A"] = domain.DisplayResult{Answer: "a"}
	svc.gates["A"] = make(chan struct{})
	svc.gates["q"] = make(chan struct{})
	st := newTestStore(svc)

	searchErr := make(chan error, 1)
	go func() { searchErr <- st.SearchStock(context.Background(), "A") }()
	require.Eventually(t, func() bool { return st.Snapshot().CurrentTicker == "A" }, time.Second, 5*time.Millisecond)

	queryErr := make(chan error, 1)
	go func() { queryErr <- st.QueryRAG(context.Background(), "q") }()

	assert.ErrorIs(t, <-searchErr, ErrSuperseded)
	snap := st.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.StockData)
	assert.Empty(t, snap.Error)

	svc.answer = domain.DisplayResult{Answer: "rag"}
	close(svc.gates["q"])
	require.NoError(t, <-queryErr)
	assert.False(t, st.Snapshot().Loading)
	assert.Equal(t, "rag", st.Snapshot().RAGData.Answer)
}

func TestBootstrapSearchesFirstWatchlistTicker(t *testing.T) {
	svc := newStub()
	svc.watchlist = domain.WatchlistFromTickers([]string{"ITC", "AAPL"})
	svc.data["ITC"] = domain.DisplayResult{Answer: "itc"}
	st := newTestStore(svc)

	require.NoError(t, st.Bootstrap(context.Background()))

	assert.Equal(t, []string{"watchlist", "data:ITC", "details:ITC"}, svc.calls)
	snap := st.Snapshot()
	assert.Equal(t, svc.watchlist, snap.Watchlist)
	assert.Equal(t, "ITC", snap.CurrentTicker)
}

func TestBootstrapEmptyWatchlistUsesDefault(t *testing.T) {
	svc := newStub()
	svc.watchlist = []domain.WatchlistEntry{}
	st := newTestStore(svc)

	require.NoError(t, st.Bootstrap(context.Background()))
	assert.Equal(t, "NVDA", st.Snapshot().CurrentTicker)
	assert.NotNil(t, st.Snapshot().Watchlist)
}

func TestBootstrapYieldsToSearchIssuedWhileWatchlistLoads(t *testing.T) {
	svc := newStub()
	svc.watchlist = domain.WatchlistFromTickers([]string{"NVDA"})
	svc.data["NVDA"] = domain.DisplayResult{Answer: "nvda"}
	svc.data["AAPL"] = domain.DisplayResult{Answer: "aapl"}
	gate := make(chan struct{})
	svc.gates["watchlist"] = gate
	st := newTestStore(svc)

	bootErr := make(chan error, 1)
	go func() { bootErr <- st.Bootstrap(context.Background()) }()
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.calls) > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, st.SearchStock(context.Background(), "AAPL"))
	close(gate)
	require.NoError(t, <-bootErr)

	snap := st.Snapshot()
	assert.Equal(t, "AAPL", snap.CurrentTicker)
	require.NotNil(t, snap.StockData)
	assert.Equal(t, "aapl", snap.StockData.Answer)
	assert.Equal(t, svc.watchlist, snap.Watchlist)
	assert.NotContains(t, svc.calls, "data:NVDA")
}

func TestBootstrapYieldsToInFlightQuery(t *testing.T) {
	svc := newStub()
	svc.answer = domain.DisplayResult{Answer: "rag"}
	gate := make(chan struct{})
	svc.gates["watchlist"] = gate
	st := newTestStore(svc)

	bootErr := make(chan error, 1)
	go func() { bootErr <- st.Bootstrap(context.Background()) }()
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.calls) > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, st.QueryRAG(context.Background(), "why?"))
	close(gate)
	require.NoError(t, <-bootErr)

	snap := st.Snapshot()
	require.NotNil(t, snap.RAGData)
	assert.Equal(t, "rag", snap.RAGData.Answer)
	assert.Empty(t, snap.CurrentTicker)
}

func TestSetWatchlistReplacesWholesale(t *testing.T) {
	st := newTestStore(newStub())
	st.SetWatchlist(domain.WatchlistFromTickers([]string{"A", "B"}))
	st.SetWatchlist(domain.WatchlistFromTickers([]string{"C"}))
	assert.Equal(t, domain.WatchlistFromTickers([]string{"C"}), st.Snapshot().Watchlist)
}

func TestAddToWatchlistNormalizesAndAdopts(t *testing.T) {
	svc := newStub()
	svc.watchlist = domain.WatchlistFromTickers([]string{"NVDA"})
	st := newTestStore(svc)

	require.NoError(t, st.AddToWatchlist(context.Background(), "  tsla "))
	assert.Equal(t, []string{"add:TSLA"}, svc.calls)
	assert.Equal(t, domain.WatchlistFromTickers([]string{"NVDA", "TSLA"}), st.Snapshot().Watchlist)

	assert.ErrorIs(t, st.AddToWatchlist(context.Background(), " "), ErrEmptyTicker)
}

func TestWatchlistMutationFailureKeepsList(t *testing.T) {
	svc := newStub()
	svc.watchlist = domain.WatchlistFromTickers([]string{"NVDA"})
	st := newTestStore(svc)
	st.SetWatchlist(svc.watchlist)

	svc.mutateErr = errors.New("conflict")
	require.Error(t, st.RemoveFromWatchlist(context.Background(), "NVDA"))

	snap := st.Snapshot()
	assert.Equal(t, "Failed to update watchlist", snap.Error)
	assert.Equal(t, svc.watchlist, snap.Watchlist)
	assert.False(t, snap.Loading)
}

func TestSubscribeNotifiesOnChange(t *testing.T) {
	st := newTestStore(newStub())
	ch, unsubscribe := st.Subscribe()

	st.SetWatchlist(domain.WatchlistFromTickers([]string{"A"}))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}

	unsubscribe()
	unsubscribe()
	st.SetWatchlist(nil)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestSnapshotIsolatesWatchlist(t *testing.T) {
	st := newTestStore(newStub())
	st.SetWatchlist(domain.WatchlistFromTickers([]string{"A"}))

	snap := st.Snapshot()
	snap.Watchlist[0].Ticker = "Z"
	assert.Equal(t, "A", st.Snapshot().Watchlist[0].Ticker)
}

func TestCloseCancelsInFlight(t *testing.T) {
	svc := newStub()
	svc.gates["HANG"] = make(chan struct{})
	st := newTestStore(svc)

	errCh := make(chan error, 1)
	go func() { errCh <- st.SearchStock(context.Background(), "HANG") }()
	require.Eventually(t, func() bool { return st.Snapshot().Loading }, time.Second, 5*time.Millisecond)

	st.Close()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("search did not return after Close")
	}
}
