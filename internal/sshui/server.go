package sshui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"stock-intel/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/rs/zerolog"
)

// SessionStore is a tui.SessionStore that owns background work and must be
// released when the SSH session ends.
type SessionStore interface {
	tui.SessionStore
	Close()
}

// StoreFactory builds a fresh store for each connection.
type StoreFactory func() SessionStore

type Config struct {
	Bind           string
	Port           int
	HostKeyPath    string
	HealthInterval time.Duration
}

// Server serves the terminal dashboard over SSH, one independent session
// per connection.
type Server struct {
	cfg      Config
	newStore StoreFactory
	health   tui.HealthChecker
	log      zerolog.Logger
	srv      *ssh.Server
}

func New(cfg Config, newStore StoreFactory, health tui.HealthChecker, log zerolog.Logger) (*Server, error) {
	if newStore == nil {
		return nil, errors.New("sshui: store factory is required")
	}
	s := &Server{
		cfg:      cfg,
		newStore: newStore,
		health:   health,
		log:      log.With().Str("component", "sshui").Logger(),
	}

	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port))),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(s.handler),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create ssh server: %w", err)
	}
	s.srv = srv
	return s, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// ListenAndServe blocks until the server stops. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("ssh dashboard listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	st := s.newStore()
	app := tui.NewAppModel(tui.Services{
		Store:          st,
		Health:         s.health,
		HealthInterval: s.cfg.HealthInterval,
		Username:       sess.User(),
	})

	s.log.Debug().Str("user", sess.User()).Msg("ssh session started")
	go func() {
		<-sess.Context().Done()
		app.Close()
		st.Close()
		s.log.Debug().Str("user", sess.User()).Msg("ssh session closed")
	}()

	return app, []tea.ProgramOption{tea.WithAltScreen()}
}
