// Package classify implements the two-tier error classifier (spec.md
// §4.5): an optional remote advisor consulted first, falling back to a
// local, prioritised rule engine that is always available.
package classify

import (
	"context"

	"github.com/timothy-choi/HookHub/hook"
)

// Classifier combines the remote advisor and the local rule engine.
type Classifier struct {
	advisor *Advisor
	engine  *RuleEngine
}

// New builds a Classifier. advisor may be nil to disable the remote tier
// entirely, in which case the rule engine always decides.
func New(advisor *Advisor, rules []Rule) *Classifier {
	return &Classifier{advisor: advisor, engine: NewRuleEngine(rules)}
}

// Classify derives the error type from statusCode/errorMessage, consults
// the advisor if configured, and falls back to the rule engine otherwise.
func (c *Classifier) Classify(ctx context.Context, statusCode int, errorMessage string, hc Context) (decision hook.Decision, explanation string, errorType ErrorType) {
	errorType = DeriveErrorType(statusCode, errorMessage)

	if c.advisor != nil {
		if d, exp, ok := c.advisor.Consult(ctx, statusCode, errorType, errorMessage, hc); ok {
			return d, exp, errorType
		}
	}

	decision, explanation = c.engine.Evaluate(statusCode, errorType, errorMessage)
	return decision, explanation, errorType
}
