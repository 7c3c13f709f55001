package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// Memory is an in-process AgentRepository. Records are copied on the way in
// and out so callers never share state with the store.
type Memory struct {
	mu     sync.RWMutex
	agents map[string]*models.AgentRecord
	now    func() time.Time
}

var _ AgentRepository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		agents: make(map[string]*models.AgentRecord),
		now:    time.Now,
	}
}

func (m *Memory) CreateAgent(_ context.Context, agent *models.AgentRecord) (*models.AgentRecord, error) {
	if err := validateAgent(agent); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := agent.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, ok := m.agents[rec.ID]; ok {
		return nil, fmt.Errorf("%w: agent %s", ErrAlreadyExists, rec.ID)
	}
	for _, existing := range m.agents {
		if existing.Name == rec.Name {
			return nil, fmt.Errorf("%w: agent named %q", ErrAlreadyExists, rec.Name)
		}
	}
	if rec.Tools == nil {
		rec.Tools = []models.ToolBinding{}
	}
	now := m.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	m.agents[rec.ID] = rec
	return rec.Clone(), nil
}

func (m *Memory) UpdateAgent(_ context.Context, agent *models.AgentRecord) (*models.AgentRecord, error) {
	if err := validateAgent(agent); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.agents[agent.ID]
	if !ok {
		return nil, ErrNotFound
	}
	for id, other := range m.agents {
		if id != agent.ID && other.Name == agent.Name {
			return nil, fmt.Errorf("%w: agent named %q", ErrAlreadyExists, agent.Name)
		}
	}
	rec := agent.Clone()
	if rec.Tools == nil {
		rec.Tools = []models.ToolBinding{}
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = m.now().UTC()
	m.agents[rec.ID] = rec
	return rec.Clone(), nil
}

func (m *Memory) GetAgent(_ context.Context, id string) (*models.AgentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) ListAgents(ctx context.Context, filter *AgentFilter, cursor string, limit int) ([]*models.AgentRecord, string, error) {
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	offset, size, err := page(cursor, limit)
	if err != nil {
		return nil, "", err
	}

	m.mu.RLock()
	all := make([]*models.AgentRecord, 0, len(m.agents))
	for _, rec := range m.agents {
		if matches(rec, filter) {
			all = append(all, rec.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*models.AgentRecord{}, "", nil
	}
	end := min(offset+size, len(all))
	out := all[offset:end]
	return out, nextCursor(offset, size, len(out), end < len(all)), nil
}

func (m *Memory) Close() error { return nil }
