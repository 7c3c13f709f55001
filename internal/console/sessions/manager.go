package sessions

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
)

const (
	// DefaultTTL is how long an idle session is retained.
	DefaultTTL = 1 * time.Hour

	cleanupInterval = 5 * time.Minute
)

// ErrSessionNotFound is returned when a session does not exist or has expired.
var ErrSessionNotFound = errors.New("import session not found")

// Manager manages import sessions in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[SessionID]*Entry
	ttl      time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts its eviction loop.
func NewManager(ttl time.Duration) *Manager {
	m := newManager(ttl, time.Now)
	go m.cleanupLoop()
	return m
}

func newManager(ttl time.Duration, now func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[SessionID]*Entry),
		ttl:      ttl,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Create stores a session under a new random id.
func (m *Manager) Create(session *agentimport.Session) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	entry := &Entry{
		ID:         SessionID(uuid.NewString()),
		Session:    session,
		CreatedAt:  now,
		LastAccess: now,
	}
	m.sessions[entry.ID] = entry
	return entry
}

// Get returns the session and refreshes its idle timer.
func (m *Manager) Get(id SessionID) (*agentimport.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	now := m.now().UTC()
	if !ok || entry.Expired(now, m.ttl) {
		return nil, ErrSessionNotFound
	}
	entry.LastAccess = now
	return entry.Session, nil
}

// Delete removes a session.
func (m *Manager) Delete(id SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the eviction loop.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	removed := 0
	for id, entry := range m.sessions {
		if entry.Expired(now, m.ttl) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("evicted idle import sessions", "count", removed)
	}
	return removed
}
