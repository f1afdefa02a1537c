// Package tasks talks to the structured task backends: Notion, a local
// SQLite table, or Postgres.
package tasks

import (
	"context"
	"errors"

	"github.com/ashureev/dbrain/internal/domain"
)

// DefaultLimit caps the number of records a query returns.
const DefaultLimit = 50

// ErrNotConfigured is returned by backends that lack credentials.
var ErrNotConfigured = errors.New("task service not configured")

// Service creates and queries task records.
type Service interface {
	// Configured reports whether the backend has what it needs to be called.
	Configured() bool
	// Create stores a task and returns a reference to it (URL or ID).
	Create(ctx context.Context, fields domain.TaskFields) (string, error)
	// Query returns tasks matching scope ordered by due date, undated last.
	Query(ctx context.Context, scope domain.QueryScope) ([]domain.TaskRecord, error)
}
