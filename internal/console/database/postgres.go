package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentregistry-dev/agentconsole/pkg/models"
)

var postgresMigrations = []migration{
	{
		version: 1,
		name:    "create agents table",
		sql: `
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	enabled BOOLEAN NOT NULL DEFAULT FALSE,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agents_created_at ON agents(created_at, id);
`,
	},
}

const uniqueViolation = "23505"

// PostgreSQL is an AgentRepository backed by a pgx connection pool.
type PostgreSQL struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ AgentRepository = (*PostgreSQL)(nil)

// NewPostgreSQL connects to PostgreSQL and applies the schema migrations.
func NewPostgreSQL(ctx context.Context, connectionURI string) (*PostgreSQL, error) {
	config, err := pgxpool.ParseConfig(connectionURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnIdleTime = 30 * time.Minute
	config.MaxConnLifetime = 2 * time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if err := runPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return &PostgreSQL{pool: pool, now: time.Now}, nil
}

func runPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migrations: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	for _, m := range postgresMigrations {
		err := pgx.BeginFunc(ctx, conn.Conn(), func(tx pgx.Tx) error {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return nil
			}
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (db *PostgreSQL) CreateAgent(ctx context.Context, agent *models.AgentRecord) (*models.AgentRecord, error) {
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
	now := db.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	data, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}
	_, err = db.pool.Exec(ctx, `
INSERT INTO agents (id, name, display_name, enabled, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, rec.ID, rec.Name, rec.DisplayName, rec.Enabled, data, now, now)
	if err != nil {
		if isPgUnique(err) {
			return nil, fmt.Errorf("%w: agent %q", ErrAlreadyExists, rec.Name)
		}
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return rec, nil
}

func (db *PostgreSQL) UpdateAgent(ctx context.Context, agent *models.AgentRecord) (*models.AgentRecord, error) {
	if err := validateAgent(agent); err != nil {
		return nil, err
	}
	existing, err := db.GetAgent(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	rec := agent.Clone()
	if rec.Tools == nil {
		rec.Tools = []models.ToolBinding{}
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = db.now().UTC()

	data, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}
	tag, err := db.pool.Exec(ctx, `
UPDATE agents SET name = $1, display_name = $2, enabled = $3, data = $4, updated_at = $5
WHERE id = $6
`, rec.Name, rec.DisplayName, rec.Enabled, data, rec.UpdatedAt, rec.ID)
	if err != nil {
		if isPgUnique(err) {
			return nil, fmt.Errorf("%w: agent %q", ErrAlreadyExists, rec.Name)
		}
		return nil, fmt.Errorf("failed to update agent %q: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (db *PostgreSQL) GetAgent(ctx context.Context, id string) (*models.AgentRecord, error) {
	var data []byte
	err := db.pool.QueryRow(ctx, `SELECT data FROM agents WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent %q: %w", id, err)
	}
	return decodeRecord(data)
}

func (db *PostgreSQL) ListAgents(ctx context.Context, filter *AgentFilter, cursor string, limit int) ([]*models.AgentRecord, string, error) {
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	offset, size, err := page(cursor, limit)
	if err != nil {
		return nil, "", err
	}

	var whereConditions []string
	args := []any{}
	argIndex := 1
	if filter != nil {
		if filter.SubstringName != nil {
			whereConditions = append(whereConditions,
				fmt.Sprintf("(strpos(lower(name), $%d) > 0 OR strpos(lower(display_name), $%d) > 0)", argIndex, argIndex))
			args = append(args, strings.ToLower(*filter.SubstringName))
			argIndex++
		}
		if filter.Enabled != nil {
			whereConditions = append(whereConditions, fmt.Sprintf("enabled = $%d", argIndex))
			args = append(args, *filter.Enabled)
			argIndex++
		}
	}
	query := "SELECT data FROM agents"
	if len(whereConditions) > 0 {
		query += " WHERE " + strings.Join(whereConditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, size+1, offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	out := []*models.AgentRecord{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, "", fmt.Errorf("failed to scan agent: %w", err)
		}
		rec, err := decodeRecord(data)
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

func (db *PostgreSQL) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

func isPgUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
