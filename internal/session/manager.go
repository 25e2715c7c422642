// Package session maps signed-in users to their todo stores. Signing in
// opens and loads a store; signing out or going idle clears it.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Policy bounds how long a store lives without touching the remote store.
// A zero field disables that limit.
type Policy struct {
	// RefreshAfter reloads a store on Open once its last load is this old
	RefreshAfter time.Duration
	// IdleTimeout closes sessions that have not been opened for this long
	IdleTimeout time.Duration
}

type entry struct {
	store  *todos.Store
	loadMu sync.Mutex

	loadedAt time.Time // guarded by loadMu
	lastUsed time.Time // guarded by Manager.mu
}

// Manager owns one todos.Store per signed-in user
type Manager struct {
	remote todos.Remote
	logger *zap.Logger
	policy Policy
	opts   []todos.Option
	now    func() time.Time

	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

// NewManager creates a manager whose stores talk to remote. opts are passed
// to every store it creates.
func NewManager(remote todos.Remote, logger *zap.Logger, policy Policy, opts ...todos.Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		remote:  remote,
		logger:  logger,
		policy:  policy,
		opts:    opts,
		now:     time.Now,
		entries: make(map[uuid.UUID]*entry),
	}
}

// Open returns the user's store. It loads the store first when it has not
// been loaded since sign-in, was marked stale, or is older than the refresh
// limit. A failed load still returns the (empty) store together with the
// error.
func (m *Manager) Open(ctx context.Context, userID uuid.UUID) (*todos.Store, error) {
	if userID == uuid.Nil {
		return nil, todos.ErrNoSession
	}

	now := m.now()
	m.mu.Lock()
	e, ok := m.entries[userID]
	if !ok {
		e = &entry{store: todos.NewStore(m.remote, userID, m.logger, m.opts...)}
		m.entries[userID] = e
		m.logger.Debug("session_opened", zap.String("user_id", userID.String()))
	}
	e.lastUsed = now
	m.mu.Unlock()

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if e.store.Loaded() && !m.expired(e, now) {
		return e.store, nil
	}
	err := e.store.Load(ctx)
	e.loadedAt = now
	return e.store, err
}

func (m *Manager) expired(e *entry, now time.Time) bool {
	return m.policy.RefreshAfter > 0 && now.Sub(e.loadedAt) >= m.policy.RefreshAfter
}

// Lookup returns the user's store without loading it
func (m *Manager) Lookup(userID uuid.UUID) (*todos.Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// Close signs the user out: their local todos are dropped and the next Open
// loads from the remote store again
func (m *Manager) Close(userID uuid.UUID) {
	m.mu.Lock()
	e, ok := m.entries[userID]
	delete(m.entries, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	e.store.Reset()
	m.logger.Debug("session_closed", zap.String("user_id", userID.String()))
}

// EvictIdle closes every session not opened within the idle timeout and
// returns how many it closed
func (m *Manager) EvictIdle(now time.Time) int {
	if m.policy.IdleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	var idle []*entry
	for id, e := range m.entries {
		if now.Sub(e.lastUsed) >= m.policy.IdleTimeout {
			idle = append(idle, e)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, e := range idle {
		e.store.Reset()
	}
	if len(idle) > 0 {
		m.logger.Info("idle_sessions_evicted", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run evicts idle sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.policy.IdleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(m.now())
		}
	}
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
