package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"stock-intel/internal/config"
	"stock-intel/internal/provider"
	"stock-intel/internal/service"
	"stock-intel/internal/store"
	"stock-intel/internal/tui"
	"stock-intel/pkg/logger"
	"stock-intel/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	newBackendFunc = func(tracer trace.Tracer, cfg *config.Config) service.Backend {
		return provider.NewBackendProvider(tracer, cfg.APIBaseURL, time.Duration(cfg.APITimeoutSecs)*time.Second)
	}
	openLogFileFunc = func(path string) (io.WriteCloser, error) {
		return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
	runProgramFunc = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	loadEnvFunc()

	cfg := loadConfigFunc()

	// The screen belongs to the TUI; logs go to LOG_FILE or nowhere.
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := openLogFileFunc(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: out})
	logger.SetGlobalLogger(log)

	ctx := context.Background()
	tp, tracer, err := initTracerFunc(ctx, tracing.Config{
		ServiceName: "stock-intel-dashboard",
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	backend := newBackendFunc(tracer, cfg)
	stockService := service.NewStockService(tracer, backend, log)
	st := store.New(tracer, stockService, log, store.Config{DefaultTicker: cfg.DefaultTicker})
	defer st.Close()

	user := os.Getenv("USER")
	app := tui.NewAppModel(tui.Services{
		Store:          st,
		Health:         stockService,
		HealthInterval: time.Duration(cfg.HealthPollSecs) * time.Second,
		Username:       user,
	})
	defer app.Close()

	log.Info().Str("api", cfg.APIBaseURL).Msg("starting dashboard")
	return runProgramFunc(app)
}
