package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/serroba/design-studio/internal/storage"
	"github.com/serroba/design-studio/internal/ws"
)

// Manager keeps one session per open design.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*openSession

	// Shared dependencies
	gateway    *storage.Gateway
	hub        *ws.Hub
	autosave   *storage.AutosavePolicy
	maxHistory int
	logger     *slog.Logger
	now        func() time.Time
}

// openSession is a tracked session and the signal that its first load ended.
type openSession struct {
	session *Session
	ready   chan struct{}
}

func (o *openSession) loaded() bool {
	select {
	case <-o.ready:
		return true
	default:
		return false
	}
}

// ManagerConfig holds configuration for creating a manager.
type ManagerConfig struct {
	Gateway    *storage.Gateway
	Hub        *ws.Hub
	Autosave   *storage.AutosavePolicy
	MaxHistory int
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewManager creates a new session manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		sessions:   make(map[string]*openSession),
		gateway:    cfg.Gateway,
		hub:        cfg.Hub,
		autosave:   cfg.Autosave,
		maxHistory: cfg.MaxHistory,
		logger:     logger,
		now:        cfg.Now,
	}
}

// Open returns the session for a design, creating and loading it on first
// use. Returns storage.ErrDesignNotFound for unknown designs. A load
// failure is logged and the session starts empty.
//
// The load runs outside the manager lock; concurrent callers for the same
// design wait for it, callers for other designs do not.
func (m *Manager) Open(ctx context.Context, designID, userID string) (*Session, error) {
	m.mu.RLock()
	entry, exists := m.sessions[designID]
	m.mu.RUnlock()

	if exists {
		return m.await(ctx, entry)
	}

	found, err := m.gateway.Store().DesignExists(ctx, designID)
	if err != nil {
		return nil, fmt.Errorf("open design %s: %w", designID, err)
	}

	if !found {
		return nil, storage.ErrDesignNotFound
	}

	m.mu.Lock()

	// Double-check after acquiring write lock
	if entry, exists = m.sessions[designID]; exists {
		m.mu.Unlock()

		return m.await(ctx, entry)
	}

	entry = &openSession{
		session: NewSession(SessionConfig{
			DesignID:   designID,
			Gateway:    m.gateway,
			Hub:        m.hub,
			Autosave:   m.autosave,
			MaxHistory: m.maxHistory,
			Logger:     m.logger,
			Now:        m.now,
		}),
		ready: make(chan struct{}),
	}
	m.sessions[designID] = entry
	m.mu.Unlock()

	defer close(entry.ready)

	if err := entry.session.Load(ctx, userID); err != nil {
		m.logger.Warn("load failed, session starts empty", "design_id", designID, "error", err)
	}

	return entry.session, nil
}

func (m *Manager) await(ctx context.Context, entry *openSession) (*Session, error) {
	select {
	case <-entry.ready:
		return entry.session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns an open session or nil. A session still loading counts as
// not open.
func (m *Manager) Get(designID string) *Session {
	m.mu.RLock()
	entry, exists := m.sessions[designID]
	m.mu.RUnlock()

	if !exists || !entry.loaded() {
		return nil
	}

	return entry.session
}

// Close closes and forgets a session, saving pending changes.
func (m *Manager) Close(ctx context.Context, designID string) error {
	m.mu.Lock()
	entry, exists := m.sessions[designID]

	if !exists {
		m.mu.Unlock()

		return nil
	}

	delete(m.sessions, designID)
	m.mu.Unlock()

	return entry.session.Close(ctx)
}

// Discard forgets a session without saving. Used when the design is deleted.
func (m *Manager) Discard(designID string) {
	m.mu.Lock()
	entry, exists := m.sessions[designID]
	delete(m.sessions, designID)
	m.mu.Unlock()

	if exists {
		entry.session.markClosed()
	}
}

// CloseAll closes every session and returns the joined save errors.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))

	for _, entry := range m.sessions {
		sessions = append(sessions, entry.session)
	}

	m.sessions = make(map[string]*openSession)
	m.mu.Unlock()

	var errs []error

	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SessionCount returns the number of open sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
