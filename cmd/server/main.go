package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	"stock-intel/internal/config"
	"stock-intel/internal/handler"
	"stock-intel/internal/provider"
	"stock-intel/internal/service"
	"stock-intel/internal/session"
	"stock-intel/internal/sshui"
	"stock-intel/internal/store"
	"stock-intel/pkg/logger"
	"stock-intel/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	_ "stock-intel/docs"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	newBackendFunc = func(tracer trace.Tracer, cfg *config.Config) service.Backend {
		return provider.NewBackendProvider(tracer, cfg.APIBaseURL, time.Duration(cfg.APITimeoutSecs)*time.Second)
	}
	newStockServiceFunc    = service.NewStockService
	newRegistryFunc        = session.NewRegistry
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	newSSHServerFunc       = sshui.New
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	startSSHServerFunc     = func(srv *sshui.Server) error { return srv.ListenAndServe() }
	shutdownSSHServerFunc  = func(srv *sshui.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Stock Intel API
// @version         1.0
// @description     Web surface of the stock-intel dashboard with OpenTelemetry tracing.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx, tracing.Config{
		ServiceName: "stock-intel-server",
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	// Create the API client and per-session stores
	backend := newBackendFunc(tracer, cfg)
	stockService := newStockServiceFunc(tracer, backend, log)
	newStore := func() *store.Store {
		return store.New(tracer, stockService, log, store.Config{DefaultTicker: cfg.DefaultTicker})
	}

	g, gctx := errgroup.WithContext(ctx)

	// Web sessions expire after SESSION_IDLE_MINS without a request
	registry := newRegistryFunc(
		func() session.Store { return newStore() },
		time.Duration(cfg.SessionIdleMins)*time.Minute,
		log,
	)
	g.Go(func() error {
		registry.Run(gctx, time.Duration(cfg.SessionSweepSecs)*time.Second)
		return nil
	})

	// Create handlers and routes
	h := newHandlerFunc(tracer, registry, stockService, log)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("stock-intel"))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.WebBind, strconv.Itoa(cfg.WebPort)),
		Handler: r,
	}

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("web dashboard listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Optional SSH dashboard
	var sshSrv *sshui.Server
	if cfg.SSHEnabled {
		sshSrv, err = newSSHServerFunc(sshui.Config{
			Bind:           cfg.SSHBind,
			Port:           cfg.SSHPort,
			HostKeyPath:    cfg.SSHHostKeyPath,
			HealthInterval: time.Duration(cfg.HealthPollSecs) * time.Second,
		}, func() sshui.SessionStore { return newStore() }, stockService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create ssh server")
		}
		g.Go(func() error {
			if err := startSSHServerFunc(sshSrv); err != nil {
				return fmt.Errorf("ssh server: %w", err)
			}
			return nil
		})
	}

	waitForShutdown(gctx)
	log.Info().Msg("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
	if sshSrv != nil {
		if err := shutdownSSHServerFunc(sshSrv, shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ssh server forced to shutdown")
		}
	}

	logExit(log, g.Wait())
}

// waitForShutdown returns on SIGINT/SIGTERM or when a server fails.
func waitForShutdown(ctx context.Context) {
	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)

	signalled := make(chan struct{})
	go func() {
		waitForSignalFunc(quit)
		close(signalled)
	}()

	select {
	case <-signalled:
	case <-ctx.Done():
	}
}

func logExit(log zerolog.Logger, err error) {
	if err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return
	}
	log.Info().Msg("Server exiting")
}
