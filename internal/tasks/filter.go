package tasks

import (
	"fmt"
	"strings"

	"github.com/ashureev/dbrain/internal/domain"
)

// dialect adapts the scope filter to a SQL driver.
type dialect struct {
	placeholder func(n int) string
	date        func(domain.Date) any
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	date:        func(d domain.Date) any { return d.ISO() },
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	date:        func(d domain.Date) any { return d.Time() },
}

// scopeWhere builds the WHERE clause selecting scope relative to today.
// Done tasks are excluded from every scope except explicit date matches.
func scopeWhere(scope domain.QueryScope, today domain.Date, d dialect) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(expr, "?", d.placeholder(len(args)), 1))
	}

	switch scope {
	case domain.ScopeOverdue:
		conds = append(conds, "due IS NOT NULL")
		add("due < ?", d.date(today))
		add("status <> ?", domain.StatusDone)
	case domain.ScopeToday:
		add("due = ?", d.date(today))
	case domain.ScopeTomorrow:
		add("due = ?", d.date(today.AddDays(1)))
	case domain.ScopeInProgress:
		add("status = ?", domain.StatusInProgress)
	default:
		add("status <> ?", domain.StatusDone)
	}
	return strings.Join(conds, " AND "), args
}

const orderByDue = "ORDER BY due IS NULL, due ASC, created_at ASC"
