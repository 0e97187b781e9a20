package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestToolsListAndInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	want := map[string]bool{
		"stock_get_analysis": false, "stock_get_details": false, "watchlist_list": false,
		"watchlist_add": false, "watchlist_remove": false, "query_ask": false,
		"ingest_trigger": false, "backend_health": false,
	}
	for _, tool := range tools.Tools {
		want[tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("expected tool %s to be registered", name)
		}
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "stock_get_analysis", Arguments: map[string]any{"ticker": " nvda "}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	var analysis analysisOutput
	if err := decodeStructured(res, &analysis); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if analysis.Ticker != "NVDA" || analysis.Result.Answer != "Datacenter revenue keeps climbing." {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
}

func TestStockAnalysisDegradedResult(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "stock_get_analysis", Arguments: map[string]any{"ticker": "ZZZZ"}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("degraded read should not be a tool error: %+v", res.Content)
	}
	var analysis analysisOutput
	if err := decodeStructured(res, &analysis); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if analysis.Result.Answer != "Unable to retrieve real-time data for ZZZZ. Please try again later." {
		t.Fatalf("unexpected degraded answer: %q", analysis.Result.Answer)
	}
}

func TestStockDetailsTool(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "stock_get_details", Arguments: map[string]any{"ticker": "NVDA"}})
	if err != nil || res.IsError {
		t.Fatalf("call failed: %v %+v", err, res)
	}
	var out detailsOutput
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !out.Available || out.Details == nil || *out.Details.Price != 875.25 {
		t.Fatalf("unexpected details: %+v", out)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "stock_get_details", Arguments: map[string]any{"ticker": "AAPL"}})
	if err != nil || res.IsError {
		t.Fatalf("call failed: %v %+v", err, res)
	}
	out = detailsOutput{}
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Available || out.Details != nil {
		t.Fatalf("expected unavailable details, got %+v", out)
	}
}

func TestWatchlistTools(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, svc := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "watchlist_add", Arguments: map[string]any{"ticker": "amd"}})
	if err != nil || res.IsError {
		t.Fatalf("add failed: %v %+v", err, res)
	}
	var out watchlistOutput
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(out.Watchlist) != 2 || out.Watchlist[1].Ticker != "AMD" {
		t.Fatalf("unexpected watchlist after add: %+v", out.Watchlist)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "watchlist_remove", Arguments: map[string]any{"ticker": "NVDA"}})
	if err != nil || res.IsError {
		t.Fatalf("remove failed: %v %+v", err, res)
	}
	out = watchlistOutput{}
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(out.Watchlist) != 1 || out.Watchlist[0].Ticker != "AMD" {
		t.Fatalf("unexpected watchlist after remove: %+v", out.Watchlist)
	}

	svc.writeErr = errBackend
	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "watchlist_add", Arguments: map[string]any{"ticker": "TSLA"}})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected write failure to surface as a tool error")
	}
}

func TestQueryAndIngestTools(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, svc := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "query_ask", Arguments: map[string]any{
		"question":       "Why did chips rally?",
		"ticker":         "nvda",
		"hours_lookback": 48,
	}})
	if err != nil || res.IsError {
		t.Fatalf("query failed: %v %+v", err, res)
	}
	if svc.lastQuestion != "Why did chips rally?" || svc.lastOpts.Ticker != "NVDA" || svc.lastOpts.HoursLookback != 48 {
		t.Fatalf("unexpected query forwarded: %q %+v", svc.lastQuestion, svc.lastOpts)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "ingest_trigger", Arguments: map[string]any{"ticker": "msft"}})
	if err != nil || res.IsError {
		t.Fatalf("ingest failed: %v %+v", err, res)
	}
	var ingest ingestOutput
	if err := decodeStructured(res, &ingest); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ingest.Status != "queued" || svc.lastIngest != "MSFT" {
		t.Fatalf("unexpected ingest result: %+v (forwarded %q)", ingest, svc.lastIngest)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "backend_health", Arguments: map[string]any{}})
	if err != nil || res.IsError {
		t.Fatalf("health failed: %v %+v", err, res)
	}
	var health healthOutput
	if err := decodeStructured(res, &health); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !health.Healthy {
		t.Fatal("expected healthy backend")
	}
}

func TestToolsValidationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	for _, call := range []*sdkmcp.CallToolParams{
		{Name: "stock_get_analysis", Arguments: map[string]any{"ticker": "  "}},
		{Name: "stock_get_details", Arguments: map[string]any{"ticker": "NOT A TICKER"}},
		{Name: "query_ask", Arguments: map[string]any{"question": ""}},
	} {
		res, err := session.CallTool(ctx, call)
		if err != nil {
			t.Fatalf("%s: unexpected protocol error: %v", call.Name, err)
		}
		if !res.IsError {
			t.Fatalf("%s: expected tool-level validation error", call.Name)
		}
	}
}

func TestHTTPTransportRequiresToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv, _ := testServer()
	httpSrv := httptest.NewServer(NewHTTPTransportHandler(srv, HTTPHandlerConfig{AuthToken: "secret", RateLimitPerMin: 600}))
	defer httpSrv.Close()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-http-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   httpSrv.URL,
		HTTPClient: &http.Client{Transport: &authRoundTripper{token: "secret"}},
	}, nil)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "watchlist_list", Arguments: map[string]any{}})
	if err != nil || res.IsError {
		t.Fatalf("watchlist_list failed: %v %+v", err, res)
	}

	resp, err := http.Post(httpSrv.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}
