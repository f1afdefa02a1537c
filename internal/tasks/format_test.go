package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/dbrain/internal/domain"
)

func TestFormatTaskList_Empty(t *testing.T) {
	assert.Equal(t, "📅 Задачи на сегодня\n\nЗадач нет 🎉", FormatTaskList(nil, domain.ScopeToday))
	assert.Equal(t, "📋 Активные задачи\n\nЗадач нет 🎉", FormatTaskList([]domain.TaskRecord{}, domain.ScopeAll))
}

func TestFormatTaskList(t *testing.T) {
	records := []domain.TaskRecord{
		{Name: "Позвонить", Status: "In progress", Due: "2026-03-11"},
		{Name: "Купить камеру", Status: "Not started"},
	}

	assert.Equal(t,
		"<b>📋 Активные задачи:</b>\n• Позвонить <i>(2026-03-11)</i> [In progress]\n• Купить камеру [Not started]\n\n<i>Всего: 2</i>",
		FormatTaskList(records, domain.ScopeAll))

	assert.Equal(t,
		"<b>🔴 Просроченные задачи:</b>\n• Позвонить <i>(2026-03-11)</i>\n• Купить камеру\n\n<i>Всего: 2</i>",
		FormatTaskList(records, domain.ScopeOverdue))
}

func TestFormatTaskList_EscapesHTML(t *testing.T) {
	records := []domain.TaskRecord{{Name: "<b> & co", Status: "<i>"}}

	assert.Equal(t,
		"<b>📋 Активные задачи:</b>\n• &lt;b&gt; &amp; co [&lt;i&gt;]\n\n<i>Всего: 1</i>",
		FormatTaskList(records, domain.ScopeAll))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "⏳ Задачи в процессе", Label(domain.ScopeInProgress))
	assert.Equal(t, "📅 Задачи на завтра", Label(domain.ScopeTomorrow))
	assert.Equal(t, "📋 Задачи", Label(domain.QueryScope("weird")))
}
