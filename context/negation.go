package context

import (
	"bytes"
	_ "embed"
	"log/slog"
)

//go:embed negation_rules.yaml
var negationRulesYAML []byte

// DefaultNegationRules returns the built-in French negation rules.
func DefaultNegationRules() []Rule {
	rules, err := LoadRules(bytes.NewReader(negationRulesYAML))
	if err != nil {
		panic("context: embedded negation rules are invalid: " + err.Error())
	}
	return rules
}

// NewNegationDetector returns a detector flagging negated segments.
// With no rules the built-in French rules are used.
func NewNegationDetector(outputLabel string, rules []Rule, logger *slog.Logger) (*Detector, error) {
	if len(rules) == 0 {
		rules = DefaultNegationRules()
	}
	return NewDetector(outputLabel, rules, logger)
}
