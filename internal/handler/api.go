package handler

import (
	"errors"
	"net/http"
	"strings"

	"stock-intel/internal/domain"
	"stock-intel/internal/session"
	"stock-intel/internal/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type tickerRequest struct {
	Ticker string `json:"ticker"`
}

type questionRequest struct {
	Question string `json:"question"`
}

// GetSession godoc
// @Summary      Get session state
// @Description  Returns the current dashboard state of the caller's session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.SessionState
// @Router       /api/session [get]
func (h *Handler) GetSession(c *gin.Context) {
	st := h.session(c)
	c.JSON(http.StatusOK, st.Snapshot())
}

// SearchStock godoc
// @Summary      Search a ticker
// @Description  Loads the analysis and details for a ticker into the session
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body  tickerRequest  true  "Ticker to analyze"
// @Success      200  {object}  domain.SessionState
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Router       /api/session/search [post]
func (h *Handler) SearchStock(c *gin.Context) {
	var req tickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.runAction(c, "handler.search-stock", req.Ticker, session.Store.SearchStock)
}

// QueryRAG godoc
// @Summary      Ask a question
// @Description  Sends a free-text question to the backend; the answer replaces the ticker view
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body  questionRequest  true  "Question"
// @Success      200  {object}  domain.SessionState
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]interface{}
// @Router       /api/session/query [post]
func (h *Handler) QueryRAG(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.runAction(c, "handler.query-rag", req.Question, session.Store.QueryRAG)
}

// AddToWatchlist godoc
// @Summary      Add to watchlist
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body  tickerRequest  true  "Ticker to add"
// @Success      200  {object}  domain.SessionState
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}
// @Router       /api/session/watchlist/add [post]
func (h *Handler) AddToWatchlist(c *gin.Context) {
	var req tickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.runAction(c, "handler.add-to-watchlist", req.Ticker, session.Store.AddToWatchlist)
}

// RemoveFromWatchlist godoc
// @Summary      Remove from watchlist
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body  tickerRequest  true  "Ticker to remove"
// @Success      200  {object}  domain.SessionState
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}
// @Router       /api/session/watchlist/remove [post]
func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	var req tickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.runAction(c, "handler.remove-from-watchlist", req.Ticker, session.Store.RemoveFromWatchlist)
}

// runAction runs a store action and answers with the resulting state.
func (h *Handler) runAction(c *gin.Context, spanName, value string, action storeAction) {
	ctx, span := h.tracer.Start(c.Request.Context(), spanName)
	defer span.End()

	value = strings.TrimSpace(value)
	span.SetAttributes(attribute.String("input", value))

	st := h.session(c)
	err := action(st, ctx, value)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, st.Snapshot())
	case errors.Is(err, store.ErrEmptyTicker), errors.Is(err, store.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": st.Snapshot()})
	default:
		snap := st.Snapshot()
		c.JSON(http.StatusBadGateway, gin.H{"error": snap.Error, "state": snap})
	}
}

// TriggerIngestion godoc
// @Summary      Trigger ingestion
// @Description  Asks the backend to (re)ingest sources for a ticker
// @Tags         ingest
// @Accept       json
// @Produce      json
// @Param        request  body  tickerRequest  true  "Ticker to ingest"
// @Success      200  {object}  domain.IngestResult
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/ingest [post]
func (h *Handler) TriggerIngestion(c *gin.Context) {
	if h.stocks == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stock service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-ingestion")
	defer span.End()

	var req tickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ticker := domain.NormalizeTicker(req.Ticker)
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}
	span.SetAttributes(attribute.String("ticker", ticker))

	res, err := h.stocks.TriggerIngestion(ctx, ticker)
	if err != nil {
		h.log.Warn().Err(err).Str("ticker", ticker).Msg("ingestion trigger failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to trigger ingestion"})
		return
	}
	c.JSON(http.StatusOK, res)
}
