package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ashureev/dbrain/internal/domain"
)

// SetStatus changes the status of a task.
func (s *SQLStore) SetStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE dbrain_tasks SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLStore(db)
	s.now = func() time.Time { return time.Date(2026, time.March, 11, 10, 0, 0, 0, time.Local) }
	require.NoError(t, s.EnsureTable(context.Background()))
	return s
}

func date(y int, m time.Month, d int) *domain.Date {
	return &domain.Date{Year: y, Month: m, Day: d}
}

func TestSQLStore_CreateAndQuery(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	assert.True(t, s.Configured())

	create := func(title string, due *domain.Date) string {
		id, err := s.Create(ctx, domain.TaskFields{Title: title, Project: "Видео", Due: due})
		require.NoError(t, err)
		require.NotEmpty(t, id)
		return id
	}
	late := create("просрочено", date(2026, time.March, 1))
	doneLate := create("сделано давно", date(2026, time.March, 2))
	create("сегодня", date(2026, time.March, 11))
	create("завтра", date(2026, time.March, 12))
	busy := create("без срока", nil)

	require.NoError(t, s.SetStatus(ctx, doneLate, domain.StatusDone))
	require.NoError(t, s.SetStatus(ctx, busy, domain.StatusInProgress))
	assert.Error(t, s.SetStatus(ctx, "missing", domain.StatusDone))

	names := func(scope domain.QueryScope) []string {
		recs, err := s.Query(ctx, scope)
		require.NoError(t, err)
		var out []string
		for _, r := range recs {
			out = append(out, r.Name)
		}
		return out
	}

	assert.Equal(t, []string{"просрочено"}, names(domain.ScopeOverdue))
	assert.Equal(t, []string{"сегодня"}, names(domain.ScopeToday))
	assert.Equal(t, []string{"завтра"}, names(domain.ScopeTomorrow))
	assert.Equal(t, []string{"без срока"}, names(domain.ScopeInProgress))
	assert.Equal(t, []string{"просрочено", "сегодня", "завтра", "без срока"}, names(domain.ScopeAll))

	recs, err := s.Query(ctx, domain.ScopeOverdue)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, late, recs[0].ID)
	assert.Equal(t, "2026-03-01", recs[0].Due)
	assert.Equal(t, domain.StatusNotStarted, recs[0].Status)
}
