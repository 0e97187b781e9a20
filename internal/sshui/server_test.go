package sshui

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/tui"

	"github.com/charmbracelet/ssh"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	closed   bool
	closedCh chan struct{}
	changes  chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{closedCh: make(chan struct{}), changes: make(chan struct{}, 1)}
}

func (f *fakeStore) Snapshot() domain.SessionState {
	return domain.SessionState{CurrentTicker: domain.DefaultTicker}
}

func (f *fakeStore) Subscribe() (<-chan struct{}, func()) { return f.changes, func() {} }

func (f *fakeStore) Bootstrap(context.Context) error                   { return nil }
func (f *fakeStore) SearchStock(context.Context, string) error         { return nil }
func (f *fakeStore) QueryRAG(context.Context, string) error            { return nil }
func (f *fakeStore) AddToWatchlist(context.Context, string) error      { return nil }
func (f *fakeStore) RemoveFromWatchlist(context.Context, string) error { return nil }

func (f *fakeStore) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.closedCh)
	}
}

type fakeContext struct {
	ssh.Context
	done chan struct{}
}

func (c fakeContext) Done() <-chan struct{} { return c.done }

type fakeSession struct {
	ssh.Session
	user string
	ctx  fakeContext
}

func (s fakeSession) User() string         { return s.user }
func (s fakeSession) Context() ssh.Context { return s.ctx }

func newTestServer(t *testing.T, factory StoreFactory) *Server {
	t.Helper()
	keyPath := filepath.Join(t.TempDir(), "host_ed25519")
	srv, err := New(Config{Bind: "127.0.0.1", Port: 2222, HostKeyPath: keyPath}, factory, nil, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func TestNewRequiresFactory(t *testing.T) {
	_, err := New(Config{}, nil, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestNewGeneratesHostKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "host_ed25519")
	srv, err := New(Config{Bind: "127.0.0.1", Port: 2222, HostKeyPath: keyPath}, func() SessionStore { return newFakeStore() }, nil, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:2222", srv.Addr())
	_, err = os.Stat(keyPath)
	assert.NoError(t, err)
}

func TestHandlerBuildsSessionPerConnection(t *testing.T) {
	var stores []*fakeStore
	srv := newTestServer(t, func() SessionStore {
		st := newFakeStore()
		stores = append(stores, st)
		return st
	})

	done1 := make(chan struct{})
	done2 := make(chan struct{})
	model1, opts := srv.handler(fakeSession{user: "alice", ctx: fakeContext{done: done1}})
	model2, _ := srv.handler(fakeSession{user: "bob", ctx: fakeContext{done: done2}})

	require.Len(t, stores, 2)
	assert.NotSame(t, stores[0], stores[1])
	assert.Len(t, opts, 1)

	app, ok := model1.(tui.AppModel)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultTicker, app.State().CurrentTicker)
	assert.Contains(t, app.View(), "@alice")

	app2 := model2.(tui.AppModel)
	assert.Contains(t, app2.View(), "@bob")

}

func TestHandlerClosesStoreWhenSessionEnds(t *testing.T) {
	st := newFakeStore()
	srv := newTestServer(t, func() SessionStore { return st })

	done := make(chan struct{})
	srv.handler(fakeSession{user: "alice", ctx: fakeContext{done: done}})
	close(done)

	select {
	case <-st.closedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("store was not closed after the session ended")
	}
}
