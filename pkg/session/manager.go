package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/vpatch/internal/errors"
)

// ManagerConfig bounds the sessions a Manager holds.
type ManagerConfig struct {
	// MaxSessions caps live sessions. Zero means unlimited.
	MaxSessions int

	// IdleTimeout is how long a session may go without rendering before
	// Sweep closes it. Zero disables expiry.
	IdleTimeout time.Duration

	// CleanupInterval is the Sweep period used by Run. Default: 30s.
	CleanupInterval time.Duration
}

// DefaultManagerConfig returns the defaults used by the server.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxSessions:     10000,
		IdleTimeout:     5 * time.Minute,
		CleanupInterval: 30 * time.Second,
	}
}

// Manager indexes live sessions by ID.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	config ManagerConfig
	opts   Options
	logger *slog.Logger

	// newID generates session IDs. Replaced in tests.
	newID func() string
}

// NewManager creates a manager. Every session it creates shares opts.
func NewManager(config ManagerConfig, opts Options) *Manager {
	opts = opts.withDefaults()
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 30 * time.Second
	}
	return &Manager{
		sessions: make(map[string]*Session),
		config:   config,
		opts:     opts,
		logger:   opts.Logger.With("component", "session_manager"),
		newID:    uuid.NewString,
	}
}

// Create starts a new empty session.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.MaxSessions > 0 && len(m.sessions) >= m.config.MaxSessions {
		return nil, errors.New("E250").WithDetailf("limit is %d", m.config.MaxSessions)
	}
	s := New(m.newID(), m.opts)
	m.sessions[s.id] = s
	m.logger.Debug("session created", "session_id", s.id, "active", len(m.sessions))
	return s, nil
}

// Get returns the live session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New("E251").WithDetailf("session %q", id)
	}
	return s, nil
}

// Close closes and forgets the session with the given ID.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return errors.New("E251").WithDetailf("session %q", id)
	}
	return s.Close(ctx)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Sweep closes sessions idle since before now minus IdleTimeout and returns
// how many it closed.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	if m.config.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-m.config.IdleTimeout)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("close expired session", "session_id", s.id, "error", err)
		}
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps idle sessions every CleanupInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(ctx, now)
		}
	}
}

// Shutdown closes every session. It stops early if ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("close session", "session_id", s.id, "error", err)
		}
	}
	m.logger.Info("sessions closed", "count", len(all))
	return nil
}
