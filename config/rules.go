package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/timothy-choi/HookHub/classify"
	"github.com/timothy-choi/HookHub/hook"
)

// ruleFile mirrors routes.yaml's shape: a top-level list under a named
// key, loaded with yaml.v3 exactly as the teacher's routes.Loader does.
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

// ruleEntry is the YAML-facing form of classify.Rule; decision is a
// string on the wire (RETRY, FAIL_PERMANENT, PAUSE_WEBHOOK, ESCALATE) and
// parsed with hook.ParseDecision.
type ruleEntry struct {
	Name                string `yaml:"name"`
	ExactStatusCode     *int   `yaml:"exact_status_code"`
	StatusCodeMin       *int   `yaml:"status_code_min"`
	StatusCodeMax       *int   `yaml:"status_code_max"`
	ErrorTypePattern    string `yaml:"error_type_pattern"`
	ErrorMessagePattern string `yaml:"error_message_pattern"`
	Decision            string `yaml:"decision"`
	ExplanationTemplate string `yaml:"explanation_template"`
	Priority            int    `yaml:"priority"`
	Enabled             bool   `yaml:"enabled"`
}

// LoadClassificationRules reads a rule-list override file and returns it
// as classify.Rule values, falling back to classify.DefaultRules() when
// path is empty. An entry with an unparsable decision is rejected rather
// than silently defaulted, since a misconfigured rule can silently mask
// real failures.
func LoadClassificationRules(path string) ([]classify.Rule, error) {
	if path == "" {
		return classify.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading classification rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing classification rules YAML: %w", err)
	}

	rules := make([]classify.Rule, 0, len(file.Rules))
	for _, entry := range file.Rules {
		decision, ok := hook.ParseDecision(entry.Decision)
		if !ok {
			return nil, fmt.Errorf("rule %q: unknown decision %q", entry.Name, entry.Decision)
		}

		rules = append(rules, classify.Rule{
			Name:                entry.Name,
			ExactStatusCode:     entry.ExactStatusCode,
			StatusCodeMin:       entry.StatusCodeMin,
			StatusCodeMax:       entry.StatusCodeMax,
			ErrorTypePattern:    entry.ErrorTypePattern,
			ErrorMessagePattern: entry.ErrorMessagePattern,
			Decision:            decision,
			ExplanationTemplate: entry.ExplanationTemplate,
			Priority:            entry.Priority,
			Enabled:             entry.Enabled,
		})
	}

	return rules, nil
}
