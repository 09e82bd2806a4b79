package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/timothy-choi/HookHub/hook"
)

// Rule is one entry in the configurable classification rule list
// (spec.md §4.5). Any subset of the match fields may be set; all set
// fields must hold for the rule to match.
type Rule struct {
	Name                string
	ExactStatusCode     *int
	StatusCodeMin       *int
	StatusCodeMax       *int
	ErrorTypePattern    string
	ErrorMessagePattern string
	Decision            hook.Decision
	ExplanationTemplate string
	Priority            int
	Enabled             bool
}

// Matches reports whether the rule's constraints all hold for the given
// failure signature.
func (r Rule) Matches(statusCode int, errorType ErrorType, errorMessage string) bool {
	if !r.Enabled {
		return false
	}
	if r.ExactStatusCode != nil && statusCode != *r.ExactStatusCode {
		return false
	}
	if r.StatusCodeMin != nil && statusCode < *r.StatusCodeMin {
		return false
	}
	if r.StatusCodeMax != nil && statusCode > *r.StatusCodeMax {
		return false
	}
	if r.ErrorTypePattern != "" && !strings.EqualFold(r.ErrorTypePattern, string(errorType)) {
		return false
	}
	if r.ErrorMessagePattern != "" {
		matched, err := regexp.MatchString(r.ErrorMessagePattern, errorMessage)
		if err != nil || !matched {
			return false
		}
	}
	return true
}

// GenerateExplanation substitutes {statusCode}, {errorMessage}, {errorType}
// into the rule's explanation template.
func (r Rule) GenerateExplanation(statusCode int, errorType ErrorType, errorMessage string) string {
	replacer := strings.NewReplacer(
		"{statusCode}", strconv.Itoa(statusCode),
		"{errorMessage}", errorMessage,
		"{errorType}", string(errorType),
	)
	return replacer.Replace(r.ExplanationTemplate)
}
