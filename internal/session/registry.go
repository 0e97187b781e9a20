package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const bootstrapTimeout = time.Minute

// Store is the per-session coordinator kept by the registry.
type Store interface {
	Snapshot() domain.SessionState
	Subscribe() (<-chan struct{}, func())
	Bootstrap(ctx context.Context) error
	SearchStock(ctx context.Context, ticker string) error
	QueryRAG(ctx context.Context, question string) error
	AddToWatchlist(ctx context.Context, ticker string) error
	RemoveFromWatchlist(ctx context.Context, ticker string) error
	Close()
}

// Factory builds the store for a new session.
type Factory func() Store

type entry struct {
	store    Store
	lastSeen time.Time
}

// Registry maps browser session ids to their stores and expires idle ones.
type Registry struct {
	newStore Factory
	idleTTL  time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewRegistry(newStore Factory, idleTTL time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		newStore: newStore,
		idleTTL:  idleTTL,
		log:      log.With().Str("component", "session").Logger(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// SetClock overrides the time source used for idle tracking.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Get returns the store for id and marks the session as active.
func (r *Registry) Get(id string) (Store, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.store, true
}

// GetOrCreate returns the session for id, creating a new one (with a fresh
// id) when id is unknown. created reports whether a new session was made.
// New sessions bootstrap in the background.
func (r *Registry) GetOrCreate(id string) (string, Store, bool) {
	if st, ok := r.Get(id); ok {
		return id, st, false
	}

	id = uuid.NewString()
	st := r.newStore()

	r.mu.Lock()
	r.sessions[id] = &entry{store: st, lastSeen: r.now()}
	r.mu.Unlock()

	r.log.Debug().Str("session", id).Msg("session created")
	go r.bootstrap(id, st)
	return id, st, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes and forgets every session idle for longer than the TTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.idleTTL)
	var expired []Store
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.store)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, st := range expired {
		st.Close()
	}
	if len(expired) > 0 {
		r.log.Info().Int("expired", len(expired)).Msg("idle sessions swept")
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.store.Close()
	}
}

func (r *Registry) bootstrap(id string, st Store) {
	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()

	if err := st.Bootstrap(ctx); err != nil && !errors.Is(err, store.ErrSuperseded) {
		r.log.Warn().Err(err).Str("session", id).Msg("session bootstrap failed")
	}
}
