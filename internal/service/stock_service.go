package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-intel/internal/domain"
	"stock-intel/internal/provider"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Backend is the raw transport the service wraps.
type Backend interface {
	StockData(ctx context.Context, ticker string) (*domain.DisplayResult, error)
	StockDetails(ctx context.Context, ticker string) (*domain.StockDetails, error)
	Watchlist(ctx context.Context) ([]domain.WatchlistEntry, error)
	AddToWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error)
	Ask(ctx context.Context, question string, opts provider.QueryOptions) (*domain.DisplayResult, error)
	TriggerIngestion(ctx context.Context, ticker string) (*domain.IngestResult, error)
	Health(ctx context.Context) error
}

type StockService struct {
	tracer   trace.Tracer
	backend  Backend
	degraded DegradedProvider
	log      zerolog.Logger
}

func NewStockService(tracer trace.Tracer, backend Backend, log zerolog.Logger) *StockService {
	return NewStockServiceWithDegraded(tracer, backend, DefaultDegraded{}, log)
}

func NewStockServiceWithDegraded(tracer trace.Tracer, backend Backend, degraded DegradedProvider, log zerolog.Logger) *StockService {
	if degraded == nil {
		degraded = DefaultDegraded{}
	}
	return &StockService{
		tracer:   tracer,
		backend:  backend,
		degraded: degraded,
		log:      log.With().Str("component", "stock-service").Logger(),
	}
}

// FetchStockData never fails for backend reasons; it falls back to the
// degraded result. An error is returned only when ctx itself is done.
func (s *StockService) FetchStockData(ctx context.Context, ticker string) (domain.DisplayResult, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.fetch-stock-data")
	defer span.End()

	ticker = strings.ToUpper(ticker)
	res, err := s.backend.StockData(ctx, ticker)
	if err == nil && res != nil {
		return *res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.DisplayResult{}, ctxErr
	}
	if err == nil {
		err = errors.New("empty response")
	}
	s.log.Warn().Err(err).Str("ticker", ticker).Msg("stock data unavailable, using degraded result")
	return s.degraded.StockData(ticker, err), nil
}

// FetchStockDetails returns nil on any failure.
func (s *StockService) FetchStockDetails(ctx context.Context, ticker string) *domain.StockDetails {
	ctx, span := s.tracer.Start(ctx, "stock-service.fetch-stock-details")
	defer span.End()

	details, err := s.backend.StockDetails(ctx, ticker)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("stock details unavailable")
		}
		return nil
	}
	return details
}

func (s *StockService) FetchWatchlist(ctx context.Context) []domain.WatchlistEntry {
	ctx, span := s.tracer.Start(ctx, "stock-service.fetch-watchlist")
	defer span.End()

	list, err := s.backend.Watchlist(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("watchlist unavailable, using default")
		return s.degraded.Watchlist(err)
	}
	return list
}

func (s *StockService) AddToWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.add-to-watchlist")
	defer span.End()

	list, err := s.backend.AddToWatchlist(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("add %s to watchlist: %w", ticker, err)
	}
	return list, nil
}

func (s *StockService) RemoveFromWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.remove-from-watchlist")
	defer span.End()

	list, err := s.backend.RemoveFromWatchlist(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("remove %s from watchlist: %w", ticker, err)
	}
	return list, nil
}

func (s *StockService) AskQuestion(ctx context.Context, question string, opts provider.QueryOptions) (domain.DisplayResult, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.ask-question")
	defer span.End()

	res, err := s.backend.Ask(ctx, question, opts)
	if err != nil {
		return domain.DisplayResult{}, fmt.Errorf("ask question: %w", err)
	}
	if res == nil {
		return domain.DisplayResult{}, errors.New("ask question: empty response")
	}
	return *res, nil
}

func (s *StockService) TriggerIngestion(ctx context.Context, ticker string) (domain.IngestResult, error) {
	ctx, span := s.tracer.Start(ctx, "stock-service.trigger-ingestion")
	defer span.End()

	res, err := s.backend.TriggerIngestion(ctx, strings.ToUpper(ticker))
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("trigger ingestion for %s: %w", ticker, err)
	}
	if res == nil {
		return domain.IngestResult{}, errors.New("trigger ingestion: empty response")
	}
	return *res, nil
}

func (s *StockService) HealthCheck(ctx context.Context) bool {
	ctx, span := s.tracer.Start(ctx, "stock-service.health-check")
	defer span.End()

	return s.backend.Health(ctx) == nil
}
