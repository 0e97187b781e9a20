package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/present"
	"stock-intel/internal/session"
	"stock-intel/internal/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// storeAction is a session.Store method taking one text argument.
type storeAction func(session.Store, context.Context, string) error

type watchRow struct {
	Ticker  string
	Tone    present.Tone
	Current bool
}

type newsRow struct {
	Source string
	Title  string
	URL    string
	Ago    string
}

type pageView struct {
	Loading        bool
	LoadingMessage string
	Error          string
	EmptyMessage   string
	LastUpdated    string
	UpdatedRaw     string
	Watchlist      []watchRow
	WatchKey       string

	Result     *domain.DisplayResult
	Title      string
	Sentiment  present.SentimentStyle
	Label      string
	Confidence present.Tone
	Evidence   []domain.Evidence
	News       []newsRow

	Price   *present.PriceLine
	Metrics []present.Metric
}

func (h *Handler) buildPage(st domain.SessionState) pageView {
	v := pageView{
		Loading:        st.Loading,
		LoadingMessage: present.LoadingMessage(st.CurrentTicker),
		Error:          st.Error,
		EmptyMessage:   present.EmptyMessage,
		LastUpdated:    present.LastUpdated(st.LastUpdated),
	}
	if st.LastUpdated != nil {
		v.UpdatedRaw = st.LastUpdated.Format(time.RFC3339Nano)
	}
	tickers := make([]string, 0, len(st.Watchlist))
	for _, e := range st.Watchlist {
		tickers = append(tickers, e.Ticker)
		v.Watchlist = append(v.Watchlist, watchRow{
			Ticker:  e.Ticker,
			Tone:    present.SentimentCategory(e.Sentiment).Tone,
			Current: e.Ticker == st.CurrentTicker,
		})
	}
	v.WatchKey = strings.Join(tickers, ",")

	res, ticker := st.Displayed()
	if res == nil {
		return v
	}
	v.Result = res
	v.Title = present.AnalysisTitle(ticker)
	v.Sentiment = present.SentimentCategory(res.Sentiment)
	v.Label = strings.ToUpper(string(res.Sentiment))
	if !res.Sentiment.IsKnown() {
		v.Label = strings.ToUpper(string(domain.SentimentNeutral))
	}
	v.Confidence = present.ConfidenceCategory(res.Confidence)
	v.Evidence = res.Evidence

	now := h.now()
	for _, n := range res.News {
		v.News = append(v.News, newsRow{
			Source: n.Source,
			Title:  n.Title,
			URL:    n.URL,
			Ago:    present.TimeAgo(n.Timestamp, now),
		})
	}

	if ticker != "" && st.StockDetails != nil {
		p := present.Price(*st.StockDetails)
		v.Price = &p
		v.Metrics = present.Metrics(*st.StockDetails)
	}
	return v
}

// Dashboard renders the HTML dashboard for the caller's session.
func (h *Handler) Dashboard(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.dashboard")
	defer span.End()

	st := h.session(c)
	c.HTML(http.StatusOK, "dashboard.html", h.buildPage(st.Snapshot()))
}

func (h *Handler) SearchForm(c *gin.Context) {
	h.formAction(c, "handler.search-form", "ticker", session.Store.SearchStock)
}

func (h *Handler) QueryForm(c *gin.Context) {
	h.formAction(c, "handler.query-form", "question", session.Store.QueryRAG)
}

func (h *Handler) AddForm(c *gin.Context) {
	h.formAction(c, "handler.add-form", "ticker", session.Store.AddToWatchlist)
}

func (h *Handler) RemoveForm(c *gin.Context) {
	h.formAction(c, "handler.remove-form", "ticker", session.Store.RemoveFromWatchlist)
}

// formAction runs one store action for a form post and redirects back to the
// dashboard. Failures are already recorded in the session state.
func (h *Handler) formAction(c *gin.Context, spanName, field string, action storeAction) {
	ctx, span := h.tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	value := strings.TrimSpace(c.PostForm(field))
	span.SetAttributes(attribute.String(field, value))

	st := h.session(c)
	if value != "" {
		if err := action(st, ctx, value); err != nil && !errors.Is(err, store.ErrSuperseded) {
			h.log.Debug().Err(err).Str("action", spanName).Msg("form action failed")
		}
	}
	c.Redirect(http.StatusSeeOther, "/")
}

