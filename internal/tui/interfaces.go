package tui

import (
	"context"
	"time"

	"stock-intel/internal/domain"
)

// SessionStore is the per-session state coordinator the TUI renders from.
type SessionStore interface {
	Snapshot() domain.SessionState
	Subscribe() (<-chan struct{}, func())
	Bootstrap(ctx context.Context) error
	SearchStock(ctx context.Context, ticker string) error
	QueryRAG(ctx context.Context, question string) error
	AddToWatchlist(ctx context.Context, ticker string) error
	RemoveFromWatchlist(ctx context.Context, ticker string) error
}

// HealthChecker reports whether the backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

const defaultHealthInterval = 30 * time.Second

// Services bundles all dependencies injected into the TUI.
type Services struct {
	Store          SessionStore
	Health         HealthChecker
	HealthInterval time.Duration
	Username       string
	// Now is used for relative news times. Defaults to time.Now.
	Now func() time.Time
}

func (s Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Services) healthInterval() time.Duration {
	if s.HealthInterval > 0 {
		return s.HealthInterval
	}
	return defaultHealthInterval
}
