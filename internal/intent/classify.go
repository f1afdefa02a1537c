package intent

import (
	"strings"

	"github.com/ashureev/dbrain/internal/domain"
)

// Classify assigns exactly one intent to text. It never fails: text that no
// rule matches is archived.
func Classify(text string) domain.Intent {
	t := strings.ToLower(text)
	for _, group := range intentGroups {
		for _, rule := range group {
			if rule.pattern.MatchString(t) {
				return rule.intent
			}
		}
	}
	return domain.IntentArchive
}

// ClassifyQuery picks the query scope for text already classified as
// IntentQueryTasks. ScopeAll is the fallback.
func ClassifyQuery(text string) domain.QueryScope {
	t := strings.ToLower(text)
	for _, rule := range scopeRules {
		if rule.pattern.MatchString(t) {
			return rule.scope
		}
	}
	return domain.ScopeAll
}
