// Package database stores the agent drafts edited through the console.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

// Common database errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabase      = errors.New("database error")
)

// AgentFilter defines filtering options for agent queries
type AgentFilter struct {
	SubstringName *string // case-insensitive match on name or display name
	Enabled       *bool
}

// AgentRepository is the store behind the agent endpoints.
type AgentRepository interface {
	// CreateAgent stores a new agent; an empty ID is generated
	CreateAgent(ctx context.Context, agent *models.AgentRecord) (*models.AgentRecord, error)
	// UpdateAgent replaces the stored agent with the same ID
	UpdateAgent(ctx context.Context, agent *models.AgentRecord) (*models.AgentRecord, error)
	// GetAgent returns one agent or ErrNotFound
	GetAgent(ctx context.Context, id string) (*models.AgentRecord, error)
	// ListAgents returns a page of agents ordered by creation time and the cursor of the next page
	ListAgents(ctx context.Context, filter *AgentFilter, cursor string, limit int) ([]*models.AgentRecord, string, error)
	// Close releases the underlying connections
	Close() error
}

const (
	defaultLimit = 30
	maxLimit     = 100
)

// Open picks a backend from a database URL: "memory" (or empty),
// "sqlite://<path>" or a "postgres://" URL.
func Open(ctx context.Context, databaseURL string) (AgentRepository, error) {
	switch {
	case databaseURL == "" || databaseURL == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgreSQL(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("%w: unsupported database URL %q", ErrInvalidInput, databaseURL)
	}
}

func validateAgent(agent *models.AgentRecord) error {
	if agent == nil {
		return fmt.Errorf("%w: agent is required", ErrInvalidInput)
	}
	if strings.TrimSpace(agent.Name) == "" {
		return fmt.Errorf("%w: agent name is required", ErrInvalidInput)
	}
	return nil
}

// page normalises a cursor and limit into an offset window.
func page(cursor string, limit int) (offset, size int, err error) {
	size = limit
	if size <= 0 {
		size = defaultLimit
	}
	if size > maxLimit {
		size = maxLimit
	}
	if cursor == "" {
		return 0, size, nil
	}
	offset, err = strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("%w: invalid cursor %q", ErrInvalidInput, cursor)
	}
	return offset, size, nil
}

func nextCursor(offset, size, returned int, more bool) string {
	if !more || returned < size {
		return ""
	}
	return strconv.Itoa(offset + returned)
}

func matches(agent *models.AgentRecord, filter *AgentFilter) bool {
	if filter == nil {
		return true
	}
	if filter.SubstringName != nil {
		needle := strings.ToLower(*filter.SubstringName)
		if !strings.Contains(strings.ToLower(agent.Name), needle) &&
			!strings.Contains(strings.ToLower(agent.DisplayName), needle) {
			return false
		}
	}
	if filter.Enabled != nil && agent.Enabled != *filter.Enabled {
		return false
	}
	return true
}

// encodeRecord renders the JSON data column shared by the SQL backends.
func encodeRecord(agent *models.AgentRecord) (string, error) {
	b, err := json.Marshal(agent)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode agent: %v", ErrDatabase, err)
	}
	return string(b), nil
}

func decodeRecord(data []byte) (*models.AgentRecord, error) {
	var rec models.AgentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: failed to decode agent: %v", ErrDatabase, err)
	}
	if rec.Tools == nil {
		rec.Tools = []models.ToolBinding{}
	}
	return &rec, nil
}
