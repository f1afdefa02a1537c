package tasks

import (
	"fmt"
	"html"
	"strings"

	"github.com/ashureev/dbrain/internal/domain"
)

var scopeLabels = map[domain.QueryScope]string{
	domain.ScopeOverdue:    "🔴 Просроченные задачи",
	domain.ScopeToday:      "📅 Задачи на сегодня",
	domain.ScopeTomorrow:   "📅 Задачи на завтра",
	domain.ScopeInProgress: "⏳ Задачи в процессе",
	domain.ScopeAll:        "📋 Активные задачи",
}

// Label returns the header shown for scope.
func Label(scope domain.QueryScope) string {
	if l, ok := scopeLabels[scope]; ok {
		return l
	}
	return "📋 Задачи"
}

// FormatTaskList renders records as chat HTML: a header, one bullet per task
// and a count. Status is shown only for ScopeAll. No records renders a
// distinct "nothing found" message.
func FormatTaskList(records []domain.TaskRecord, scope domain.QueryScope) string {
	label := Label(scope)
	if len(records) == 0 {
		return label + "\n\nЗадач нет 🎉"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s:</b>", label)
	for _, r := range records {
		b.WriteString("\n• ")
		b.WriteString(html.EscapeString(r.Name))
		if r.Due != "" {
			fmt.Fprintf(&b, " <i>(%s)</i>", html.EscapeString(r.Due))
		}
		if r.Status != "" && scope == domain.ScopeAll {
			fmt.Fprintf(&b, " [%s]", html.EscapeString(r.Status))
		}
	}
	fmt.Fprintf(&b, "\n\n<i>Всего: %d</i>", len(records))
	return b.String()
}
