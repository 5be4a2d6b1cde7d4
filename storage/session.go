package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pipeline-analytics/core/models"

	"github.com/google/uuid"
)

// Session is the scoped artifact-store handle for one run-detail view. It
// is acquired lazily on first need, reused for every artifact fetch of that
// run, and released when the view is torn down or replaced.
type Session struct {
	ID      string
	RunName string
	Opened  time.Time

	store *Store
}

// Fetch reads one of the run's artifacts through the session's store.
func (s *Session) Fetch(ctx context.Context, kind models.ArtifactKind) ([]byte, error) {
	return s.store.Fetch(ctx, s.RunName, kind)
}

// StoreFactory opens a scoped store. Acquisition may fail; the failure is
// reported to the caller rather than aborting the page.
type StoreFactory func() (*Store, error)

// SessionManager hands out one session per run and reuses it across
// sequential fetches, so viewing a run opens one connection, not one per
// file.
type SessionManager struct {
	factory StoreFactory

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager with no open sessions.
func NewSessionManager(factory StoreFactory) *SessionManager {
	return &SessionManager{
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// ForRun returns the existing session for runName or acquires a new one.
func (m *SessionManager) ForRun(runName string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[runName]; ok {
		return s, nil
	}

	store, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("open artifact session for run %s: %w", runName, err)
	}

	s := &Session{
		ID:      uuid.New().String(),
		RunName: runName,
		Opened:  time.Now(),
		store:   store,
	}
	m.sessions[runName] = s
	return s, nil
}

// Release tears down the session for runName. The next ForRun re-acquires
// a fresh one, which also recovers from a reset underlying connection.
func (m *SessionManager) Release(runName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, runName)
}
