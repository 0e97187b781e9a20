package mcp

import (
	"context"
	"fmt"

	"stock-intel/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, reader StockReader, writer StockWriter) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "stock_get_analysis",
		Description: "Get the AI analysis for a ticker: answer, sentiment, confidence, evidence and news. Returns a degraded placeholder if the backend is unreachable",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tickerInput) (*mcp.CallToolResult, analysisOutput, error) {
		if reader == nil {
			return nil, analysisOutput{}, fmt.Errorf("stock service unavailable")
		}
		ticker, err := normalizeTicker(in.Ticker)
		if err != nil {
			return nil, analysisOutput{}, err
		}
		result, err := reader.FetchStockData(ctx, ticker)
		if err != nil {
			return nil, analysisOutput{}, err
		}
		return nil, analysisOutput{Ticker: ticker, Result: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stock_get_details",
		Description: "Get market details for a ticker: price, change, day range, volume, valuation ratios and market cap",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tickerInput) (*mcp.CallToolResult, detailsOutput, error) {
		if reader == nil {
			return nil, detailsOutput{}, fmt.Errorf("stock service unavailable")
		}
		ticker, err := normalizeTicker(in.Ticker)
		if err != nil {
			return nil, detailsOutput{}, err
		}
		details := reader.FetchStockDetails(ctx, ticker)
		return nil, detailsOutput{Ticker: ticker, Available: details != nil, Details: details}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "watchlist_list",
		Description: "List the tickers on the shared watchlist",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ watchlistInput) (*mcp.CallToolResult, watchlistOutput, error) {
		if reader == nil {
			return nil, watchlistOutput{}, fmt.Errorf("stock service unavailable")
		}
		return nil, watchlistOutput{Watchlist: reader.FetchWatchlist(ctx)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "watchlist_add",
		Description: "Add a ticker to the shared watchlist and return the updated list",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tickerInput) (*mcp.CallToolResult, watchlistOutput, error) {
		return mutateWatchlist(ctx, writer, in, StockWriter.AddToWatchlist)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "watchlist_remove",
		Description: "Remove a ticker from the shared watchlist and return the updated list",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tickerInput) (*mcp.CallToolResult, watchlistOutput, error) {
		return mutateWatchlist(ctx, writer, in, StockWriter.RemoveFromWatchlist)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_ask",
		Description: "Ask a free-text question answered from ingested news and filings, optionally focused on one ticker",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in queryInput) (*mcp.CallToolResult, queryOutput, error) {
		if writer == nil {
			return nil, queryOutput{}, fmt.Errorf("stock service unavailable")
		}
		question, opts, err := normalizeQuery(in)
		if err != nil {
			return nil, queryOutput{}, err
		}
		result, err := writer.AskQuestion(ctx, question, opts)
		if err != nil {
			return nil, queryOutput{}, err
		}
		return nil, queryOutput{Result: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_trigger",
		Description: "Ask the backend to ingest fresh sources for a ticker",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tickerInput) (*mcp.CallToolResult, ingestOutput, error) {
		if writer == nil {
			return nil, ingestOutput{}, fmt.Errorf("stock service unavailable")
		}
		ticker, err := normalizeTicker(in.Ticker)
		if err != nil {
			return nil, ingestOutput{}, err
		}
		res, err := writer.TriggerIngestion(ctx, ticker)
		if err != nil {
			return nil, ingestOutput{}, err
		}
		return nil, ingestOutput{Status: res.Status, Ticker: res.Ticker}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "backend_health",
		Description: "Report whether the analysis backend is reachable",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ healthInput) (*mcp.CallToolResult, healthOutput, error) {
		if reader == nil {
			return nil, healthOutput{}, fmt.Errorf("stock service unavailable")
		}
		return nil, healthOutput{Healthy: reader.HealthCheck(ctx)}, nil
	})
}

type watchlistMutation func(StockWriter, context.Context, string) ([]domain.WatchlistEntry, error)

func mutateWatchlist(ctx context.Context, writer StockWriter, in tickerInput, mutate watchlistMutation) (*mcp.CallToolResult, watchlistOutput, error) {
	if writer == nil {
		return nil, watchlistOutput{}, fmt.Errorf("stock service unavailable")
	}
	ticker, err := normalizeTicker(in.Ticker)
	if err != nil {
		return nil, watchlistOutput{}, err
	}
	list, err := mutate(writer, ctx, ticker)
	if err != nil {
		return nil, watchlistOutput{}, err
	}
	return nil, watchlistOutput{Watchlist: list}, nil
}
