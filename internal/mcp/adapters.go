package mcp

import (
	"context"

	"stock-intel/internal/domain"
	"stock-intel/internal/provider"
)

// StockReader exposes the degraded-on-failure read operations of the API
// client.
type StockReader interface {
	FetchStockData(ctx context.Context, ticker string) (domain.DisplayResult, error)
	FetchStockDetails(ctx context.Context, ticker string) *domain.StockDetails
	FetchWatchlist(ctx context.Context) []domain.WatchlistEntry
	HealthCheck(ctx context.Context) bool
}

// StockWriter exposes the operations that propagate backend failures.
type StockWriter interface {
	AddToWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error)
	AskQuestion(ctx context.Context, question string, opts provider.QueryOptions) (domain.DisplayResult, error)
	TriggerIngestion(ctx context.Context, ticker string) (domain.IngestResult, error)
}
