package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, reader StockReader) {
	server.AddResource(&mcp.Resource{
		URI:         "watchlist://current",
		Name:        "watchlist-current",
		Description: "Tickers on the shared watchlist",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if reader == nil {
			return nil, fmt.Errorf("stock service unavailable")
		}
		return jsonResource(req.Params.URI, watchlistOutput{Watchlist: reader.FetchWatchlist(ctx)})
	})

	read := func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return readStockResource(ctx, reader, req.Params.URI)
	}

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "stocks://{ticker}",
		Name:        "stock-analysis",
		Description: "AI analysis for a ticker",
		MIMEType:    "application/json",
	}, read)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "stocks://{ticker}/details",
		Name:        "stock-details",
		Description: "Market details for a ticker",
		MIMEType:    "application/json",
	}, read)
}

// readStockResource serves stocks://{ticker} and stocks://{ticker}/details.
func readStockResource(ctx context.Context, reader StockReader, uri string) (*mcp.ReadResourceResult, error) {
	if reader == nil {
		return nil, fmt.Errorf("stock service unavailable")
	}

	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "stocks" {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	ticker, err := normalizeTicker(parsed.Host)
	if err != nil {
		return nil, err
	}

	switch strings.Trim(strings.TrimSpace(parsed.Path), "/") {
	case "":
		result, err := reader.FetchStockData(ctx, ticker)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, analysisOutput{Ticker: ticker, Result: result})
	case "details":
		details := reader.FetchStockDetails(ctx, ticker)
		if details == nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return jsonResource(uri, detailsOutput{Ticker: ticker, Available: true, Details: details})
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
