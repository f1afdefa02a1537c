// Package intent classifies free-form utterances and extracts task fields from them.
//
// Classification is a fixed cascade of ordered rule tables. Each table is a
// list of (pattern, result) pairs so tests can enumerate every rule.
package intent

import (
	"regexp"
	"strings"

	"github.com/ashureev/dbrain/internal/domain"
)

// wordBoundary stands in for \b. RE2's \b only knows ASCII word characters,
// so it never fires between two Cyrillic letters and a space.
const wordBoundary = `(?:^|$|[^\p{L}\p{N}_])`

// compile builds a regexp, expanding \b into a Unicode-aware boundary.
func compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, `\b`, wordBoundary))
}

type intentRule struct {
	pattern *regexp.Regexp
	intent  domain.Intent
}

type scopeRule struct {
	pattern *regexp.Regexp
	scope   domain.QueryScope
}

func intentRules(intent domain.Intent, patterns ...string) []intentRule {
	rules := make([]intentRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, intentRule{pattern: compile(p), intent: intent})
	}
	return rules
}

// Patterns run against lower-cased text.
var (
	createRules = intentRules(domain.IntentCreateTask,
		`\b(добавь|добавить|создай|создать|запиши|записать|поставь|внеси)\s+(задачу|задание|напоминание)\b`,
		`\bзадача[:\s]\s*\S`,
		`\bнапомни\s+(мне\s+)?(о|об|про)\b`,
		`\b(add|create|new)\s+(a\s+)?(task|todo|reminder)\b`,
		`^\s*task:\s*\S`,
		`\bremind\s+me\s+(about|to)\b`,
	)

	queryRules = intentRules(domain.IntentQueryTasks,
		`\b(покажи|покажите|отобрази|выведи|список)\s+.{0,30}(задач|задани)`,
		`\bкакие\s+(у\s+меня\s+)?(задач\p{L}*|задани\p{L}*|дела)\b`,
		`\b(просроченн|незакрыт|активн|не\s+сделан)\p{L}*.{0,20}задач`,
		`\bзадач\p{L}*.{0,20}(просроченн|незакрыт|активн)`,
		`\bчто\s+(у\s+меня\s+)?(стоит|есть|висит|осталось|запланировано)\b`,
		`\bпланы?\s+на\s+(сегодня|завтра|неделю)\b`,
		`\b(найди|найти|поиск)\s+задач`,
		`\bзадач(и|у)?\s+(на\s+)?(сегодня|завтра|эту\s+неделю)\b`,
		`\bчто\s+надо\s+(сделать|успеть)\b`,
		`\b(show|list|display)\s+.{0,30}tasks?\b`,
		`\b(overdue|open|pending)\s+tasks\b`,
		`\bwhat(\s+is|'s)\s+(due|planned)\b`,
	)

	actionRules = intentRules(domain.IntentDelegatedAction,
		`\b(отметь|помети|поставь)\s+.{0,40}(выполнен|готов|сделан|закрыт)`,
		`\b(выполнил[аи]?|сделал[аи]?|закрыл[аи]?)\s+(задачу|это|её|ее)\b`,
		`\bзадача\s+.{0,40}\s+(выполнена|готова|сделана|закрыта)\b`,
		`\bперенеси\s+.{0,60}\s+на\s+`,
		`\b(измени|обнови|сдвинь)\s+(дедлайн|срок)\b`,
		`\bдедлайн\s+.{0,30}(перенеси|сдвинь|измени|поменяй)\b`,
		`\bпоменяй\s+(дедлайн|срок)\b`,
		`\bудали(ть)?\s+задачу\b`,
		`\bmark\s+.{0,40}\s+(as\s+)?(done|complete|completed|finished)\b`,
		`\b(move|reschedule|postpone)\s+.{0,60}\s+to\s+`,
		`\b(change|update)\s+(the\s+)?(deadline|due\s+date)\b`,
	)

	// intentGroups is evaluated in order. Creation phrasing comes first, so
	// the "задача ... выполнена" action rule only fires for text the create
	// group rejects.
	intentGroups = [][]intentRule{createRules, queryRules, actionRules}

	scopeRules = []scopeRule{
		{compile(`\bпросроч`), domain.ScopeOverdue},
		{compile(`\boverdue\b`), domain.ScopeOverdue},
		{compile(`\bзавтра\b`), domain.ScopeTomorrow},
		{compile(`\btomorrow\b`), domain.ScopeTomorrow},
		{compile(`\bсегодня\b|\bсейчас\b|\bна\s+день\b`), domain.ScopeToday},
		{compile(`\btoday\b|\bnow\b`), domain.ScopeToday},
		{compile(`\b(в\s+процессе|активн\p{L}*|незакрыт\p{L}*|не\s+сделан\p{L}*)\b`), domain.ScopeInProgress},
		{compile(`\b(in\s+progress|open|unfinished)\b`), domain.ScopeInProgress},
	}
)

// Leading phrases removed from a task title. Matched case-insensitively at
// position 0 only; the first match wins.
var (
	triggerPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(добавь|добавить|создай|создать|запиши|записать|поставь|внеси)\s+(задачу|задание|напоминание)[,;:\s]*`),
		regexp.MustCompile(`(?i)^напомни\s+(?:мне\s+)?(?:о|об|про)(?:[,;:\s]+|$)`),
		regexp.MustCompile(`(?i)^(add|create|new)\s+(a\s+)?(task|todo|reminder)[,;:\s]*`),
		regexp.MustCompile(`(?i)^remind\s+me\s+(about|to)(?:[,;:\s]+|$)`),
	}
	nounPrefix = regexp.MustCompile(`(?i)^(?:задач[уа]|task)(?:[,;:\s]+|$)`)
)

var (
	explicitProjectRe = regexp.MustCompile(`(?i)^(?:в\s+проект[еу]?|in\s+(?:the\s+)?project)\s+`)
	implicitProjectRe = regexp.MustCompile(`(?i)^(?:в|in)\s+`)
	projectSepRe      = regexp.MustCompile(`^[\s:—\-–,]+`)
	projectWordSepRe  = regexp.MustCompile(`[\s:—\-–]+`)
)

var (
	todayRe    = compile(`(?i)\b(сегодня|today)\b`)
	tomorrowRe = compile(`(?i)\b(завтра|tomorrow)\b`)
	weekdayRe  = compile(`(?i)\b(понедельник|вторник|сред[ауы]|четверг|пятниц[ауы]|суббот[ауы]|воскресенье|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	numericRe  = compile(`\b(\d{1,2})[./](\d{1,2})(?:[./](\d{2,4}))?\b`)
)
