package sessions

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentregistry-dev/agentconsole/internal/agentimport"
	servicetesting "github.com/agentregistry-dev/agentconsole/internal/console/service/testing"
	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSession(t *testing.T) *agentimport.Session {
	t.Helper()
	doc, err := models.ParseAgentImportDocument([]byte(`{"agent_id": 1, "agent_info": {"1": {"name": "a"}}}`))
	require.NoError(t, err)
	s, err := agentimport.NewSession(doc, nil, servicetesting.NewFakePlatform(), nil)
	require.NoError(t, err)
	return s
}

func TestManagerCreateGetDelete(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	session := newTestSession(t)
	entry := m.Create(session)
	assert.NotEmpty(t, entry.ID)

	got, err := m.Get(entry.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	other := m.Create(newTestSession(t))
	assert.NotEqual(t, entry.ID, other.ID)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Delete(entry.ID))
	_, err = m.Get(entry.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(entry.ID), ErrSessionNotFound)
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(10*time.Minute, clock.Now)

	kept := m.Create(newTestSession(t))
	idle := m.Create(newTestSession(t))

	clock.Advance(8 * time.Minute)
	_, err := m.Get(kept.ID)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, 1, m.cleanup())
	assert.Equal(t, 1, m.Len())
	_, err = m.Get(kept.ID)
	require.NoError(t, err)
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m := NewManager(0)
	assert.Equal(t, DefaultTTL, m.ttl)
	m.Close()
	m.Close()
}
