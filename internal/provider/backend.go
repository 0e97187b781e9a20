package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stock-intel/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultRequestTimeout = 30 * time.Second

// ErrEmptyBody is returned when a 2xx response carries no JSON value or
// a JSON null.
var ErrEmptyBody = errors.New("backend returned an empty body")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d", e.Method, e.Path, e.Code)
}

// QueryOptions carries the optional fields of a query request.
type QueryOptions struct {
	Ticker        string
	HoursLookback int
}

type BackendProvider struct {
	tracer     trace.Tracer
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func NewBackendProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *BackendProvider {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &BackendProvider{
		tracer:     tracer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// SetHTTPClient overrides the underlying client. Used by tests.
func (p *BackendProvider) SetHTTPClient(c *http.Client) {
	p.httpClient = c
}

func (p *BackendProvider) BaseURL() string {
	return p.baseURL
}

func (p *BackendProvider) StockData(ctx context.Context, ticker string) (*domain.DisplayResult, error) {
	ctx, span := p.tracer.Start(ctx, "backend-provider.stock-data")
	defer span.End()

	ticker = strings.ToUpper(ticker)
	span.SetAttributes(attribute.String("ticker", ticker))

	var out domain.DisplayResult
	if err := p.do(ctx, http.MethodGet, "/api/stocks/"+url.PathEscape(ticker), nil, &out); err != nil {
		recordErr(span, err)
		return nil, err
	}
	return &out, nil
}

// StockDetails fetches price and fundamentals. The ticker is sent as given.
func (p *BackendProvider) StockDetails(ctx context.Context, ticker string) (*domain.StockDetails, error) {
	ctx, span := p.tracer.Start(ctx, "backend-provider.stock-details")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	var out domain.StockDetails
	if err := p.do(ctx, http.MethodGet, "/api/stocks/"+url.PathEscape(ticker)+"/details", nil, &out); err != nil {
		recordErr(span, err)
		return nil, err
	}
	return &out, nil
}

func (p *BackendProvider) Watchlist(ctx context.Context) ([]domain.WatchlistEntry, error) {
	ctx, span := p.tracer.Start(ctx, "backend-provider.watchlist")
	defer span.End()

	var tickers []string
	if err := p.do(ctx, http.MethodGet, "/api/watchlist", nil, &tickers); err != nil {
		recordErr(span, err)
		return nil, err
	}
	return domain.WatchlistFromTickers(tickers), nil
}

func (p *BackendProvider) AddToWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	return p.mutateWatchlist(ctx, "add", ticker)
}

func (p *BackendProvider) RemoveFromWatchlist(ctx context.Context, ticker string) ([]domain.WatchlistEntry, error) {
	return p.mutateWatchlist(ctx, "remove", ticker)
}

func (p *BackendProvider) mutateWatchlist(ctx context.Context, action, ticker string) ([]domain.WatchlistEntry, error) {
	ctx, span := p.tracer.Start(ctx, "backend-provider.watchlist-"+action)
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	var tickers []string
	body := map[string]string{"ticker": ticker}
	if err := p.do(ctx, http.MethodPost, "/api/watchlist/"+action, body, &tickers); err != nil {
		recordErr(span, err)
		return nil, err
	}
	return domain.WatchlistFromTickers(tickers), nil
}

type queryRequest struct {
	Question      string `json:"question"`
	Ticker        string `json:"ticker,omitempty"`
	HoursLookback int    `json:"hours_lookback,omitempty"`
}

func (p *BackendProvider) Ask(ctx context.Context, question string, opts QueryOptions) (*domain.DisplayResult, error) {
	ctx, span := p.tracer.Start(ctx, "backend-provider.ask")
	defer span.End()

	req := queryRequest{
		Question:      question,
		Ticker:        strings.ToUpper(strings.TrimSpace(opts.Ticker)),
		HoursLookback: opts.HoursLookback,
	}
	var out domain.DisplayResult
	if err := p.do(ctx, http.MethodPost, "/api/query", req, &out); err != nil {
		recordErr(span, err)
		return nil, err
	}
	return &out, nil
}

func (p *BackendProvider) TriggerIngestion(ctx context.Context, ticker string) (*domain.IngestResult, error) {
	ctx, span := p.tracer.Start(ctx, "backend-provider.trigger-ingestion")
	defer span.End()

	ticker = strings.ToUpper(ticker)
	span.SetAttributes(attribute.String("ticker", ticker))

	var out domain.IngestResult
	if err := p.do(ctx, http.MethodPost, "/api/ingest", map[string]string{"ticker": ticker}, &out); err != nil {
		recordErr(span, err)
		return nil, err
	}
	return &out, nil
}

// Health returns nil when the backend answers its health endpoint with a 2xx.
func (p *BackendProvider) Health(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "backend-provider.health")
	defer span.End()

	if err := p.do(ctx, http.MethodGet, "/api/health", nil, nil); err != nil {
		recordErr(span, err)
		return err
	}
	return nil
}

func (p *BackendProvider) do(ctx context.Context, method, path string, body, target any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s %s: %w", method, path, ErrEmptyBody)
		}
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fmt.Errorf("%s %s: %w", method, path, ErrEmptyBody)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func recordErr(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
