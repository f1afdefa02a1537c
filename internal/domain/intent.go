// Package domain contains core domain types for the dbrain router.
package domain

// Intent is the classified purpose of an utterance.
type Intent string

const (
	// IntentCreateTask creates a task record directly (fast write).
	IntentCreateTask Intent = "create_task"
	// IntentQueryTasks reads task records directly (fast read).
	IntentQueryTasks Intent = "query_tasks"
	// IntentDelegatedAction hands the utterance to the external agent process.
	IntentDelegatedAction Intent = "delegated_action"
	// IntentArchive stores the utterance in the vault. It is the default.
	IntentArchive Intent = "archive"
)

// String returns the intent label.
func (i Intent) String() string { return string(i) }

// QueryScope is the time/status filter applied when reading task records.
type QueryScope string

const (
	ScopeOverdue    QueryScope = "overdue"
	ScopeToday      QueryScope = "today"
	ScopeTomorrow   QueryScope = "tomorrow"
	ScopeInProgress QueryScope = "in_progress"
	ScopeAll        QueryScope = "all"
)

// String returns the scope label.
func (s QueryScope) String() string { return string(s) }
