package agent

import (
	"fmt"
	"strings"

	"github.com/ashureev/dbrain/internal/domain"
)

const (
	sessionContextEntries = 10
	sessionPreviewRunes   = 80
)

const mcpRules = `ПЕРВЫМ ДЕЛОМ: вызови mcp__todoist__user-info чтобы убедиться что MCP работает.

CRITICAL MCP RULE:
- ТЫ ИМЕЕШЬ ДОСТУП к mcp__todoist__* tools — ВЫЗЫВАЙ ИХ НАПРЯМУЮ
- НИКОГДА не пиши "MCP недоступен" или "добавь вручную"
%s- Если tool вернул ошибку — покажи ТОЧНУЮ ошибку в отчёте`

// SessionContext renders the tail of today's session log as a prompt block.
// It returns "" when there is nothing to show.
func SessionContext(entries []domain.SessionEntry) string {
	var lines []string
	for _, e := range domain.RecentEntries(entries, sessionContextEntries) {
		text := truncateRunes(e.Text, sessionPreviewRunes)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s [%s] %s", e.Timestamp.Format("15:04"), e.Source, text))
	}
	if len(lines) == 0 {
		return ""
	}
	return "=== TODAY'S SESSION ===\n" + strings.Join(lines, "\n") + "\n=== END SESSION ===\n\n"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ExecutePrompt wraps a free-form user request for delegated execution.
func ExecutePrompt(today domain.Date, vaultPath, session, reference, request string) string {
	return fmt.Sprintf(`Ты - персональный ассистент d-brain.

CONTEXT:
- Текущая дата: %s
- Vault path: %s

%s=== TODOIST REFERENCE ===
%s
=== END REFERENCE ===

%s

USER REQUEST:
%s

CRITICAL OUTPUT FORMAT:
- Return ONLY raw HTML for Telegram (parse_mode=HTML)
- NO markdown: no **, no ##, no `+"```"+`, no tables, no -
- Start with emoji and <b>header</b>
- Allowed tags: <b>, <i>, <code>, <s>, <u>
- Be concise - Telegram has 4096 char limit

EXECUTION:
1. Analyze the request
2. Call MCP tools directly (mcp__todoist__*, read/write files)
3. Return HTML status report with results`,
		today.ISO(), vaultPath, session, reference, fmt.Sprintf(mcpRules, ""), request)
}

// DailyPrompt asks the agent to process the daily note for day.
func DailyPrompt(day domain.Date, skill string) string {
	return fmt.Sprintf(`Сегодня %[1]s. Выполни ежедневную обработку.

=== SKILL INSTRUCTIONS ===
%[2]s
=== END SKILL ===

%[3]s

CRITICAL OUTPUT FORMAT:
- Return ONLY raw HTML for Telegram (parse_mode=HTML)
- NO markdown: no **, no ## , no `+"```"+`, no tables
- Start directly with 📊 <b>Обработка за %[1]s</b>
- Allowed tags: <b>, <i>, <code>, <s>, <u>
- If entries already processed, return status report in same HTML format`,
		day.ISO(), skill, fmt.Sprintf(mcpRules, "- Для задач: вызови mcp__todoist__add-tasks tool\n"))
}

// WeeklyPrompt asks the agent for the weekly digest.
func WeeklyPrompt(today domain.Date) string {
	return fmt.Sprintf(`Сегодня %s. Сгенерируй недельный дайджест.

%s

WORKFLOW:
1. Собери данные за неделю (daily файлы в vault/daily/, completed tasks через MCP)
2. Проанализируй прогресс по целям (goals/3-weekly.md)
3. Определи победы и вызовы
4. Сгенерируй HTML отчёт

CRITICAL OUTPUT FORMAT:
- Return ONLY raw HTML for Telegram (parse_mode=HTML)
- NO markdown: no **, no ##, no `+"```"+`, no tables
- Start with 📅 <b>Недельный дайджест</b>
- Allowed tags: <b>, <i>, <code>, <s>, <u>
- Be concise - Telegram has 4096 char limit`,
		today.ISO(), fmt.Sprintf(mcpRules, "- Для выполненных задач: вызови mcp__todoist__find-completed-tasks tool\n"))
}
