package intent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/dbrain/internal/domain"
)

var classifyCases = []struct {
	text string
	want domain.Intent
}{
	// create
	{"Добавь задачу купить молоко", domain.IntentCreateTask},
	{"задача: позвонить маме", domain.IntentCreateTask},
	{"новая задача: позвонить маме", domain.IntentCreateTask},
	{"у меня задача купить билеты", domain.IntentCreateTask},
	{"срочная задача подготовить отчёт", domain.IntentCreateTask},
	{"эта задача про отчёт выполнена", domain.IntentCreateTask},
	{"Напомни мне о встрече с Иваном", domain.IntentCreateTask},
	{"Add a task buy milk", domain.IntentCreateTask},
	{"task: call mom", domain.IntentCreateTask},
	{"remind me to call the bank", domain.IntentCreateTask},

	// query
	{"покажи мои задачи", domain.IntentQueryTasks},
	{"какие у меня дела на сегодня", domain.IntentQueryTasks},
	{"просроченные задачи", domain.IntentQueryTasks},
	{"есть задачи просроченные?", domain.IntentQueryTasks},
	{"что у меня запланировано", domain.IntentQueryTasks},
	{"планы на завтра", domain.IntentQueryTasks},
	{"найди задачи про отчёт", domain.IntentQueryTasks},
	{"задачи на эту неделю", domain.IntentQueryTasks},
	{"что надо сделать", domain.IntentQueryTasks},
	{"show my tasks", domain.IntentQueryTasks},
	{"overdue tasks", domain.IntentQueryTasks},
	{"what's due this week", domain.IntentQueryTasks},

	// delegated action
	{"отметь звонок выполненным", domain.IntentDelegatedAction},
	{"сделал это", domain.IntentDelegatedAction},
	{"перенеси встречу на пятницу", domain.IntentDelegatedAction},
	{"измени дедлайн отчёта", domain.IntentDelegatedAction},
	{"дедлайн по отчёту перенеси", domain.IntentDelegatedAction},
	{"поменяй срок сдачи", domain.IntentDelegatedAction},
	{"удали задачу про молоко", domain.IntentDelegatedAction},
	{"mark the report as done", domain.IntentDelegatedAction},
	{"move the meeting to friday", domain.IntentDelegatedAction},
	{"change the deadline for the report", domain.IntentDelegatedAction},

	// archive
	{"купить молоко", domain.IntentArchive},
	{"интересная мысль про продукт", domain.IntentArchive},
	{"", domain.IntentArchive},
}

func TestClassify(t *testing.T) {
	for _, tc := range classifyCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.text))
		})
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	for _, tc := range classifyCases {
		assert.Equal(t, Classify(tc.text), Classify(tc.text), tc.text)
	}
}

// Every rule in every table must match at least one case above. A rule
// shadowed by an earlier group counts when it matches text routed there.
func TestClassify_EveryRuleCovered(t *testing.T) {
	groups := map[string][]intentRule{
		"create": createRules,
		"query":  queryRules,
		"action": actionRules,
	}
	for name, rules := range groups {
		for i, rule := range rules {
			covered := false
			for _, tc := range classifyCases {
				if rule.pattern.MatchString(strings.ToLower(tc.text)) {
					covered = true
					break
				}
			}
			assert.True(t, covered, "%s rule %d (%s) has no case", name, i, rule.pattern)
		}
	}
}

func TestClassify_CreateBeatsAction(t *testing.T) {
	// "поставь" also opens an action pattern.
	assert.Equal(t, domain.IntentCreateTask, Classify("поставь задачу: отчёт выполнен к пятнице"))
}

func TestClassify_NounAnywhereCreates(t *testing.T) {
	for _, text := range []string{
		"новая задача: позвонить маме",
		"у меня задача купить билеты",
		"Срочная задача подготовить отчёт",
		"задача по отчёту готова",
	} {
		assert.Equal(t, domain.IntentCreateTask, Classify(text), text)
	}
	assert.Equal(t, domain.IntentArchive, Classify("задачами занимается Петя"))
}

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		text string
		want domain.QueryScope
	}{
		{"покажи просроченные задачи", domain.ScopeOverdue},
		{"show overdue tasks", domain.ScopeOverdue},
		{"просроченные задачи на завтра", domain.ScopeOverdue},
		{"задачи на завтра", domain.ScopeTomorrow},
		{"show tasks for tomorrow", domain.ScopeTomorrow},
		{"какие у меня дела на сегодня", domain.ScopeToday},
		{"что сейчас висит", domain.ScopeToday},
		{"планы на день", domain.ScopeToday},
		{"what's due today", domain.ScopeToday},
		{"задачи в процессе", domain.ScopeInProgress},
		{"активные задачи", domain.ScopeInProgress},
		{"незакрытые задачи", domain.ScopeInProgress},
		{"show tasks in progress", domain.ScopeInProgress},
		{"open tasks", domain.ScopeInProgress},
		{"покажи все задачи", domain.ScopeAll},
		{"show my tasks", domain.ScopeAll},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyQuery(tc.text))
		})
	}
}

func TestCreateTriggerNeverLeaksIntoTitle(t *testing.T) {
	tests := []struct {
		text    string
		trigger string
		want    string
	}{
		{"Добавь задачу купить молоко", "добавь задачу", "купить молоко"},
		{"Создай задание, проверить отчёт", "создай задание", "проверить отчёт"},
		{"Внеси напоминание: оплатить интернет", "внеси напоминание", "оплатить интернет"},
		{"Напомни мне о встрече с Иваном", "напомни мне о", "встрече с Иваном"},
		{"напомни про оплату", "напомни про", "оплату"},
		{"Задача: позвонить маме", "задача:", "позвонить маме"},
		{"Add a task: buy milk", "add a task", "buy milk"},
		{"create task renew passport", "create task", "renew passport"},
		{"remind me to call the bank", "remind me to", "call the bank"},
		{"task: call mom", "task:", "call mom"},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, domain.IntentCreateTask, Classify(tc.text))
			got := ExtractTaskName(tc.text)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, strings.ToLower(got), tc.trigger)
		})
	}
}
