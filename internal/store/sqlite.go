package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ashureev/dbrain/internal/domain"
	"github.com/ashureev/dbrain/internal/shared"
)

var _ Repository = (*SQLiteStore)(nil)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.BusyRetry
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, retry: shared.DefaultBusyRetry}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS session_entries (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		ts INTEGER NOT NULL,
		source TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		tag TEXT NOT NULL DEFAULT '',
		msg_id INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_session_user_day ON session_entries(user_id, day, ts);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle so other packages can keep their own
// tables in the same file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AppendSession inserts one session entry.
func (s *SQLiteStore) AppendSession(ctx context.Context, entry *domain.SessionEntry) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate session id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `
	INSERT INTO session_entries (id, user_id, day, ts, source, text, reference, tag, msg_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := shared.RetryOnBusy(ctx, s.retry, "append session", func() error {
		_, err := s.db.ExecContext(ctx, query,
			entry.ID, entry.UserID, domain.DateOf(entry.Timestamp).ISO(), entry.Timestamp.UnixNano(),
			string(entry.Source), entry.Text, entry.Reference, entry.Tag, entry.MessageID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("append session entry: %w", err)
	}
	return nil
}

// SessionToday returns today's entries for userID, oldest first.
func (s *SQLiteStore) SessionToday(ctx context.Context, userID int64, now time.Time) ([]domain.SessionEntry, error) {
	query := `
		SELECT id, user_id, ts, source, text, reference, tag, msg_id
		FROM session_entries WHERE user_id = ? AND day = ?
		ORDER BY ts, rowid`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.DateOf(now).ISO())
	if err != nil {
		return nil, fmt.Errorf("query session entries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session rows", "error", closeErr)
		}
	}()

	var entries []domain.SessionEntry
	for rows.Next() {
		var e domain.SessionEntry
		var ts int64
		var source string
		if err := rows.Scan(&e.ID, &e.UserID, &ts, &source, &e.Text, &e.Reference, &e.Tag, &e.MessageID); err != nil {
			return nil, fmt.Errorf("scan session entry: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).In(now.Location())
		e.Source = domain.Source(source)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session entries: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
