package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/dbrain/internal/domain"
)

var filterToday = domain.Date{Year: 2026, Month: time.March, Day: 11}

func TestScopeWhere_SQLite(t *testing.T) {
	tests := []struct {
		scope domain.QueryScope
		where string
		args  []any
	}{
		{domain.ScopeOverdue, "due IS NOT NULL AND due < ? AND status <> ?", []any{"2026-03-11", "Done"}},
		{domain.ScopeToday, "due = ?", []any{"2026-03-11"}},
		{domain.ScopeTomorrow, "due = ?", []any{"2026-03-12"}},
		{domain.ScopeInProgress, "status = ?", []any{"In progress"}},
		{domain.ScopeAll, "status <> ?", []any{"Done"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.scope), func(t *testing.T) {
			where, args := scopeWhere(tc.scope, filterToday, sqliteDialect)
			assert.Equal(t, tc.where, where)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestPgQuery(t *testing.T) {
	query, args := pgQuery(domain.ScopeOverdue, filterToday)
	assert.Equal(t,
		"SELECT id, name, status, due FROM dbrain_tasks WHERE due IS NOT NULL AND due < $1 AND status <> $2 ORDER BY due IS NULL, due ASC, created_at ASC LIMIT 50",
		query)
	assert.Equal(t, []any{filterToday.Time(), "Done"}, args)

	query, args = pgQuery(domain.ScopeTomorrow, filterToday)
	assert.Contains(t, query, "WHERE due = $1 ORDER BY")
	assert.Equal(t, []any{time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)}, args)
}
