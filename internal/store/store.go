// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/ashureev/dbrain/internal/domain"
)

// SessionLog is the append-only, per-user, per-day record of handled utterances.
type SessionLog interface {
	// AppendSession records one handled utterance. ID and Timestamp are
	// filled in when empty.
	AppendSession(ctx context.Context, entry *domain.SessionEntry) error

	// SessionToday returns userID's entries for the calendar day of now,
	// most recent last.
	SessionToday(ctx context.Context, userID int64, now time.Time) ([]domain.SessionEntry, error)
}

// Repository is the SQLite-backed persistence used by the server.
type Repository interface {
	SessionLog

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// DB exposes the handle so other tables can share the database file.
	DB() *sql.DB

	// Close closes the database connection.
	Close() error
}
