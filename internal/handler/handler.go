package handler

import (
	"context"
	"net/http"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const sessionCookie = "stock_intel_session"

// Sessions resolves the cookie session to its store.
type Sessions interface {
	Get(id string) (session.Store, bool)
	GetOrCreate(id string) (string, session.Store, bool)
}

// StockAPI is the subset of the API client served directly, outside any
// session.
type StockAPI interface {
	TriggerIngestion(ctx context.Context, ticker string) (domain.IngestResult, error)
	HealthCheck(ctx context.Context) bool
}

type Handler struct {
	tracer   trace.Tracer
	sessions Sessions
	stocks   StockAPI
	log      zerolog.Logger
	now      func() time.Time
}

func New(
	tracer trace.Tracer,
	sessions Sessions,
	stocks StockAPI,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		tracer:   tracer,
		sessions: sessions,
		stocks:   stocks,
		log:      log.With().Str("component", "handler").Logger(),
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/", h.Dashboard)
	r.POST("/search", h.SearchForm)
	r.POST("/query", h.QueryForm)
	r.POST("/watchlist/add", h.AddForm)
	r.POST("/watchlist/remove", h.RemoveForm)

	r.GET("/health", h.Health)
	r.POST("/api/ingest", h.TriggerIngestion)

	api := r.Group("/api/session")
	api.GET("", h.GetSession)
	api.POST("/search", h.SearchStock)
	api.POST("/query", h.QueryRAG)
	api.POST("/watchlist/add", h.AddToWatchlist)
	api.POST("/watchlist/remove", h.RemoveFromWatchlist)
	api.GET("/ws", h.SessionSocket)
}

// Health godoc
// @Summary      Health check
// @Description  Reports service liveness and whether the analysis backend answers
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.health")
	defer span.End()

	backend := "down"
	if h.stocks != nil && h.stocks.HealthCheck(ctx) {
		backend = "up"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": backend})
}

// session returns the caller's store, issuing a session cookie when the
// request carried none or an expired one.
func (h *Handler) session(c *gin.Context) session.Store {
	id, _ := c.Cookie(sessionCookie)
	id, st, created := h.sessions.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	}
	return st
}
