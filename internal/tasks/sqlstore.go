package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/dbrain/internal/domain"
	"github.com/ashureev/dbrain/internal/shared"
)

// SQLStore keeps tasks in a table of the local SQLite database.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore creates a SQLStore on db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (s *SQLStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS dbrain_tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Not started',
		due TEXT,
		project TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_dbrain_tasks_due ON dbrain_tasks(due);`)
	if err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

// Configured is always true; the local table needs no credentials.
func (s *SQLStore) Configured() bool { return true }

// Create inserts a task and returns its ID.
func (s *SQLStore) Create(ctx context.Context, fields domain.TaskFields) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()

	var due any
	if fields.Due != nil {
		due = fields.Due.ISO()
	}

	err := shared.RetryOnBusy(ctx, shared.DefaultBusyRetry, "create task", func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO dbrain_tasks (id, name, status, due, project, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, fields.Title, domain.StatusNotStarted, due, fields.Project, s.now().UnixNano())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return id, nil
}

// Query returns tasks in scope.
func (s *SQLStore) Query(ctx context.Context, scope domain.QueryScope) ([]domain.TaskRecord, error) {
	where, args := scopeWhere(scope, domain.DateOf(s.now()), sqliteDialect)
	query := fmt.Sprintf(`SELECT id, name, status, due FROM dbrain_tasks WHERE %s %s LIMIT %d`, where, orderByDue, DefaultLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close task rows", "error", closeErr)
		}
	}()

	var out []domain.TaskRecord
	for rows.Next() {
		var r domain.TaskRecord
		var due sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &due); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		r.Due = due.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}
