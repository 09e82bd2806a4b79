package classify

import (
	"sort"

	"github.com/timothy-choi/HookHub/hook"
)

// RuleEngine evaluates a prioritised, configurable rule list (spec.md
// §4.5's always-available fallback tier).
type RuleEngine struct {
	rules []Rule
}

// NewRuleEngine builds an engine from rules, pre-sorted descending by
// priority with ties broken by original list order (stable sort).
func NewRuleEngine(rules []Rule) *RuleEngine {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &RuleEngine{rules: sorted}
}

// Evaluate returns the first enabled matching rule's decision and
// explanation, or the conservative RETRY default when nothing matches.
func (e *RuleEngine) Evaluate(statusCode int, errorType ErrorType, errorMessage string) (decision hook.Decision, explanation string) {
	for _, r := range e.rules {
		if r.Matches(statusCode, errorType, errorMessage) {
			return r.Decision, r.GenerateExplanation(statusCode, errorType, errorMessage)
		}
	}
	return hook.Retry, "no classification rule matched; defaulting to retry"
}
