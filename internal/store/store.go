package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/provider"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgFetchFailed     = "Failed to fetch stock data"
	msgQueryFailed     = "Failed to process question"
	msgWatchlistFailed = "Failed to update watchlist"
)

var (
	// ErrSuperseded is returned by an action whose result was discarded
	// because a newer action started after it.
	ErrSuperseded    = errors.New("superseded by a newer request")
	ErrEmptyTicker   = errors.New("ticker is required")
	ErrEmptyQuestion = errors.New("question is required")
)

// StockService is the API client the store coordinates.
type StockService interface {
	FetchStockData(ctx context.Context, ticker string) (domain.DisplayResult, error)
	FetchStockDetails(ctx context.Context, ticker string) *domain.StockDetails
	FetchWatchlist(ctx context.Context) []domain.WatchlistEntry
	AddToWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error)
	AskQuestion(ctx context.Context, question string, opts provider.QueryOptions) (domain.DisplayResult, error)
}

type Config struct {
	DefaultTicker string
	Now           func() time.Time
}

// Store owns the state of one dashboard session. The most recently issued
// search or query wins; earlier in-flight ones are cancelled and their
// results dropped.
type Store struct {
	tracer trace.Tracer
	svc    StockService
	log    zerolog.Logger
	cfg    Config

	mu      sync.Mutex
	state   domain.SessionState
	seq     uint64
	cancel  context.CancelFunc
	subs    map[int]chan struct{}
	nextSub int
}

func New(tracer trace.Tracer, svc StockService, log zerolog.Logger, cfg Config) *Store {
	if cfg.DefaultTicker == "" {
		cfg.DefaultTicker = domain.DefaultTicker
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		tracer: tracer,
		svc:    svc,
		log:    log.With().Str("component", "store").Logger(),
		cfg:    cfg,
		state:  domain.SessionState{Watchlist: []domain.WatchlistEntry{}},
		subs:   make(map[int]chan struct{}),
	}
}

// SearchStock loads the analysis and then the details for ticker.
func (s *Store) SearchStock(ctx context.Context, ticker string) error {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return ErrEmptyTicker
	}
	_, err := s.search(ctx, ticker, false)
	return err
}

// search runs SearchStock. With first set it only starts if no search or
// query was ever issued on the store, and reports whether it started.
func (s *Store) search(ctx context.Context, ticker string, first bool) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "store.search-stock")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	ctx, seq, ok := s.begin(ctx, first, func(st *domain.SessionState) {
		st.CurrentTicker = ticker
		st.RAGData = nil
	})
	if !ok {
		return false, nil
	}
	return true, s.load(ctx, seq, ticker)
}

func (s *Store) load(ctx context.Context, seq uint64, ticker string) error {
	data, err := s.svc.FetchStockData(ctx, ticker)
	if err != nil {
		return s.fail(seq, err, msgFetchFailed, func(st *domain.SessionState) {
			st.StockData = nil
			st.StockDetails = nil
		})
	}
	if !s.apply(seq, false, func(st *domain.SessionState) { st.StockData = &data }) {
		return ErrSuperseded
	}

	details := s.svc.FetchStockDetails(ctx, ticker)
	if !s.apply(seq, true, func(st *domain.SessionState) {
		st.StockDetails = details
		now := s.cfg.Now()
		st.LastUpdated = &now
	}) {
		return ErrSuperseded
	}
	return nil
}

// QueryRAG asks the backend a free-text question. Its result replaces any
// ticker result on display.
func (s *Store) QueryRAG(ctx context.Context, question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}

	ctx, span := s.tracer.Start(ctx, "store.query-rag")
	defer span.End()

	ctx, seq, _ := s.begin(ctx, false, func(st *domain.SessionState) {
		st.StockData = nil
		st.StockDetails = nil
		st.CurrentTicker = ""
	})

	res, err := s.svc.AskQuestion(ctx, question, provider.QueryOptions{})
	if err != nil {
		return s.fail(seq, err, msgQueryFailed, func(st *domain.SessionState) {
			st.RAGData = nil
		})
	}
	if !s.apply(seq, true, func(st *domain.SessionState) {
		st.RAGData = &res
		now := s.cfg.Now()
		st.LastUpdated = &now
	}) {
		return ErrSuperseded
	}
	return nil
}

// Bootstrap loads the watchlist and searches its first ticker, or the
// default ticker when the list is empty. The search is skipped when the
// store has already run a search or query.
func (s *Store) Bootstrap(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "store.bootstrap")
	defer span.End()

	list := s.svc.FetchWatchlist(ctx)
	s.SetWatchlist(list)

	ticker := s.cfg.DefaultTicker
	if len(list) > 0 {
		ticker = list[0].Ticker
	}
	// A search or query the user issued meanwhile takes precedence.
	started, err := s.search(ctx, ticker, true)
	if !started {
		s.log.Debug().Str("ticker", ticker).Msg("initial search skipped, user action in flight")
	}
	return err
}

func (s *Store) SetWatchlist(list []domain.WatchlistEntry) {
	cp := make([]domain.WatchlistEntry, len(list))
	copy(cp, list)

	s.mu.Lock()
	s.state.Watchlist = cp
	s.mu.Unlock()
	s.notify()
}

// AddToWatchlist normalizes ticker, adds it server-side and adopts the
// returned list. On failure the current list is kept.
func (s *Store) AddToWatchlist(ctx context.Context, ticker string) error {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return ErrEmptyTicker
	}
	ctx, span := s.tracer.Start(ctx, "store.add-to-watchlist")
	defer span.End()

	return s.mutateWatchlist(ctx, ticker, s.svc.AddToWatchlist)
}

func (s *Store) RemoveFromWatchlist(ctx context.Context, ticker string) error {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return ErrEmptyTicker
	}
	ctx, span := s.tracer.Start(ctx, "store.remove-from-watchlist")
	defer span.End()

	return s.mutateWatchlist(ctx, ticker, s.svc.RemoveFromWatchlist)
}

func (s *Store) mutateWatchlist(
	ctx context.Context,
	ticker string,
	call func(context.Context, string) ([]domain.WatchlistEntry, error),
) error {
	list, err := call(ctx, ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("watchlist update failed")
		s.mu.Lock()
		s.state.Error = msgWatchlistFailed
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.SetWatchlist(list)
	return nil
}

// Snapshot returns a copy of the current state. Result pointers are shared
// and must be treated as read-only.
func (s *Store) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Watchlist = make([]domain.WatchlistEntry, len(s.state.Watchlist))
	copy(st.Watchlist, s.state.Watchlist)
	return st
}

func (s *Store) Displayed() (*domain.DisplayResult, string) {
	return s.Snapshot().Displayed()
}

// Subscribe returns a channel that receives a value after every state
// change, and a func that unsubscribes and closes it. Notifications
// coalesce; readers should call Snapshot on receipt.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}

// Close cancels any in-flight request.
func (s *Store) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.mu.Unlock()
}

// begin starts a new action, cancelling the one in flight. With first set
// it refuses to start once any action has begun or the store was closed.
func (s *Store) begin(ctx context.Context, first bool, reset func(*domain.SessionState)) (context.Context, uint64, bool) {
	s.mu.Lock()
	if first && s.seq != 0 {
		s.mu.Unlock()
		return ctx, 0, false
	}
	ctx, cancel := context.WithCancel(ctx)
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.state.Loading = true
	s.state.Error = ""
	reset(&s.state)
	s.mu.Unlock()

	s.notify()
	return ctx, seq, true
}

// apply mutates state only if seq is still current. When done is set the
// action is finished and loading drops.
func (s *Store) apply(seq uint64, done bool, fn func(*domain.SessionState)) bool {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.log.Debug().Uint64("seq", seq).Msg("discarding superseded result")
		return false
	}
	fn(&s.state)
	if done {
		s.state.Loading = false
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
	s.mu.Unlock()

	s.notify()
	return true
}

func (s *Store) fail(seq uint64, err error, msg string, reset func(*domain.SessionState)) error {
	if !s.apply(seq, true, func(st *domain.SessionState) {
		st.Error = msg
		reset(st)
	}) {
		return ErrSuperseded
	}
	s.log.Warn().Err(err).Msg(msg)
	return err
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
