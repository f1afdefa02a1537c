package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashureev/dbrain/internal/domain"
)

// PgStore is a PostgreSQL-backed task store.
type PgStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, now: time.Now}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS dbrain_tasks (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'Not started',
			due        DATE,
			project    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_dbrain_tasks_due ON dbrain_tasks(due)`)
	return err
}

// Configured reports whether a pool is attached.
func (s *PgStore) Configured() bool { return s.pool != nil }

// Create inserts a new task and returns its ID.
func (s *PgStore) Create(ctx context.Context, fields domain.TaskFields) (string, error) {
	if s.pool == nil {
		return "", ErrNotConfigured
	}
	id := uuid.Must(uuid.NewV7()).String()

	var due *time.Time
	if fields.Due != nil {
		t := fields.Due.Time()
		due = &t
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO dbrain_tasks (id, name, status, due, project, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, fields.Title, domain.StatusNotStarted, due, fields.Project, s.now().Truncate(time.Microsecond))
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return id, nil
}

// Query returns tasks in scope.
func (s *PgStore) Query(ctx context.Context, scope domain.QueryScope) ([]domain.TaskRecord, error) {
	if s.pool == nil {
		return nil, ErrNotConfigured
	}
	query, args := pgQuery(scope, domain.DateOf(s.now()))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.TaskRecord
	for rows.Next() {
		var r domain.TaskRecord
		var due *time.Time
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &due); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if due != nil {
			r.Due = domain.DateOf(*due).ISO()
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func pgQuery(scope domain.QueryScope, today domain.Date) (string, []any) {
	where, args := scopeWhere(scope, today, postgresDialect)
	return fmt.Sprintf(`SELECT id, name, status, due FROM dbrain_tasks WHERE %s %s LIMIT %d`, where, orderByDue, DefaultLimit), args
}
