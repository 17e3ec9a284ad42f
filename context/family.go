package context

import (
	"bytes"
	_ "embed"
	"log/slog"
)

//go:embed family_rules.yaml
var familyRulesYAML []byte

// DefaultFamilyRules returns the built-in French family-reference rules.
func DefaultFamilyRules() []Rule {
	rules, err := LoadRules(bytes.NewReader(familyRulesYAML))
	if err != nil {
		panic("context: embedded family rules are invalid: " + err.Error())
	}
	return rules
}

// NewFamilyDetector returns a detector flagging segments that talk
// about the patient's family rather than the patient. With no rules the
// built-in French rules are used.
func NewFamilyDetector(outputLabel string, rules []Rule, logger *slog.Logger) (*Detector, error) {
	if len(rules) == 0 {
		rules = DefaultFamilyRules()
	}
	return NewDetector(outputLabel, rules, logger)
}
