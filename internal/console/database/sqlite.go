package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type migration struct {
	version int
	name    string
	sql     string
}

var sqliteMigrations = []migration{
	{
		version: 1,
		name:    "create agents table",
		sql: `
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	enabled INTEGER NOT NULL DEFAULT 0,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agents_created_at ON agents(created_at, id);
`,
	},
}

// SQLite is an AgentRepository backed by a local SQLite file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ AgentRepository = (*SQLite)(nil)

// OpenSQLite opens (and creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path cannot be empty", ErrInvalidInput)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %q: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := runSQLiteMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &SQLite{db: conn, now: time.Now}, nil
}

func runSQLiteMigrations(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	for _, m := range sqliteMigrations {
		var exists int
		if err := conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.version, err)
		}
		if exists > 0 {
			continue
		}
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.version, m.name, time.Now().UTC().Format(sqliteTimeLayout)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

func (s *SQLite) CreateAgent(ctx context.Context, agent *models.AgentRecord) (*models.AgentRecord, error) {
	if err := validateAgent(agent); err != nil {
		return nil, err
	}
	rec := agent.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Tools == nil {
		rec.Tools = []models.ToolBinding{}
	}
	now := s.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	data, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO agents (id, name, display_name, enabled, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, rec.ID, rec.Name, rec.DisplayName, boolToInt(rec.Enabled), data, now.Format(sqliteTimeLayout), now.Format(sqliteTimeLayout))
	if err != nil {
		if isSQLiteUnique(err) {
			return nil, fmt.Errorf("%w: agent %q", ErrAlreadyExists, rec.Name)
		}
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return rec, nil
}

func (s *SQLite) UpdateAgent(ctx context.Context, agent *models.AgentRecord) (*models.AgentRecord, error) {
	if err := validateAgent(agent); err != nil {
		return nil, err
	}
	existing, err := s.GetAgent(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	rec := agent.Clone()
	if rec.Tools == nil {
		rec.Tools = []models.ToolBinding{}
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = s.now().UTC()

	data, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE agents SET name = ?, display_name = ?, enabled = ?, data = ?, updated_at = ?
WHERE id = ?
`, rec.Name, rec.DisplayName, boolToInt(rec.Enabled), data, rec.UpdatedAt.Format(sqliteTimeLayout), rec.ID)
	if err != nil {
		if isSQLiteUnique(err) {
			return nil, fmt.Errorf("%w: agent %q", ErrAlreadyExists, rec.Name)
		}
		return nil, fmt.Errorf("failed to update agent %q: %w", rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *SQLite) GetAgent(ctx context.Context, id string) (*models.AgentRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM agents WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent %q: %w", id, err)
	}
	return decodeRecord([]byte(data))
}

func (s *SQLite) ListAgents(ctx context.Context, filter *AgentFilter, cursor string, limit int) ([]*models.AgentRecord, string, error) {
	offset, size, err := page(cursor, limit)
	if err != nil {
		return nil, "", err
	}

	var where []string
	var args []any
	if filter != nil {
		if filter.SubstringName != nil {
			where = append(where, `(instr(lower(name), ?) > 0 OR instr(lower(display_name), ?) > 0)`)
			needle := strings.ToLower(*filter.SubstringName)
			args = append(args, needle, needle)
		}
		if filter.Enabled != nil {
			where = append(where, `enabled = ?`)
			args = append(args, boolToInt(*filter.Enabled))
		}
	}
	query := `SELECT data FROM agents`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	// one extra row tells whether another page exists
	query += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, size+1, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*models.AgentRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, "", fmt.Errorf("failed to scan agent: %w", err)
		}
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			return nil, "", err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to list agents: %w", err)
	}
	more := len(out) > size
	if more {
		out = out[:size]
	}
	return out, nextCursor(offset, size, len(out), more), nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteUnique(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
