// Package context detects contextual qualifiers on text segments, such
// as negation or mentions of family history. Each detector appends one
// boolean attribute per segment, with the id of the matching rule kept
// in the attribute metadata.
package context

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/ident"
	"github.com/c360studio/medtext/prov"
)

// Rule is a regexp-based detection rule. A segment matches when Regexp
// matches its text and none of the ExclusionRegexps do.
//
// Rules with UnicodeSensitive false are matched against an ASCII-folded
// copy of the segment text, so their regexps must be plain ASCII.
type Rule struct {
	ID               string   `yaml:"id"`
	Regexp           string   `yaml:"regexp"`
	ExclusionRegexps []string `yaml:"exclusion_regexps"`
	CaseSensitive    bool     `yaml:"case_sensitive"`
	UnicodeSensitive bool     `yaml:"unicode_sensitive"`
}

type compiledRule struct {
	rule       Rule
	ruleID     any
	pattern    *regexp.Regexp
	exclusions []*regexp.Regexp
}

// Detector applies a list of rules to segments and appends a boolean
// attribute to each one. The first matching rule wins; segments matched
// by no rule get a false attribute with empty metadata.
type Detector struct {
	uid         string
	outputLabel string
	rules       []compiledRule
	anyFolded   bool
	logger      *slog.Logger
	prov        *prov.Builder
}

// NewDetector compiles rules into a detector producing attributes with
// the given label.
func NewDetector(outputLabel string, rules []Rule, logger *slog.Logger) (*Detector, error) {
	if outputLabel == "" {
		return nil, fmt.Errorf("output label is required")
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("at least one rule is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Detector{
		uid:         ident.New(),
		outputLabel: outputLabel,
		logger:      logger,
	}
	for i, rule := range rules {
		compiled, err := compileRule(rule, i)
		if err != nil {
			return nil, err
		}
		if !rule.UnicodeSensitive {
			d.anyFolded = true
		}
		d.rules = append(d.rules, compiled)
	}
	return d, nil
}

func compileRule(rule Rule, index int) (compiledRule, error) {
	name := rule.ID
	if name == "" {
		name = fmt.Sprintf("#%d", index)
	}
	if rule.Regexp == "" {
		return compiledRule{}, fmt.Errorf("rule %s: regexp is required", name)
	}
	if !rule.UnicodeSensitive {
		if !isASCII(rule.Regexp) {
			return compiledRule{}, fmt.Errorf(
				"rule %s: unicode insensitive rules require an ASCII regexp", name,
			)
		}
		for _, excl := range rule.ExclusionRegexps {
			if !isASCII(excl) {
				return compiledRule{}, fmt.Errorf(
					"rule %s: unicode insensitive rules require ASCII exclusion regexps", name,
				)
			}
		}
	}

	flags := ""
	if !rule.CaseSensitive {
		flags = "(?i)"
	}
	pattern, err := regexp.Compile(flags + rule.Regexp)
	if err != nil {
		return compiledRule{}, fmt.Errorf("rule %s: %w", name, err)
	}
	compiled := compiledRule{rule: rule, pattern: pattern}
	if rule.ID != "" {
		compiled.ruleID = rule.ID
	} else {
		compiled.ruleID = index
	}
	for _, excl := range rule.ExclusionRegexps {
		ex, err := regexp.Compile(flags + excl)
		if err != nil {
			return compiledRule{}, fmt.Errorf("rule %s: exclusion %q: %w", name, excl, err)
		}
		compiled.exclusions = append(compiled.exclusions, ex)
	}
	return compiled, nil
}

// Description identifies the detector in provenance records.
func (d *Detector) Description() prov.OperationDescription {
	return prov.NewOperationDescription(d.uid, "RuleDetector", map[string]any{
		"output_label": d.outputLabel,
		"rule_count":   len(d.rules),
	})
}

// SetProvBuilder makes the detector record one provenance node per
// attribute it creates.
func (d *Detector) SetProvBuilder(b *prov.Builder) { d.prov = b }

// Run appends one boolean attribute to every segment. Segments are
// modified in place.
func (d *Detector) Run(segments []*annot.Segment) error {
	for _, seg := range segments {
		if err := d.annotate(seg); err != nil {
			return fmt.Errorf("segment %s: %w", seg.UID(), err)
		}
	}
	return nil
}

func (d *Detector) annotate(seg *annot.Segment) error {
	text := seg.Text()
	folded := text
	if d.anyFolded {
		folded = foldASCII(text)
		if !isASCII(folded) {
			d.logger.Warn("segment text still contains non-ASCII characters after folding, unicode insensitive rules may not match",
				"segment_uid", seg.UID())
		}
	}

	var metadata map[string]any
	matched := false
	for _, rule := range d.rules {
		target := text
		if !rule.rule.UnicodeSensitive {
			target = folded
		}
		if rule.matches(target) {
			matched = true
			metadata = map[string]any{"rule_id": rule.ruleID}
			break
		}
	}

	attr, err := annot.NewAttribute(d.outputLabel, matched, &annot.AttributeOpts{Metadata: metadata})
	if err != nil {
		return err
	}
	seg.AddAttr(attr)
	if d.prov != nil {
		d.prov.Add(attr.UID(), d.Description(), []string{seg.UID()})
	}
	return nil
}

func (r compiledRule) matches(text string) bool {
	if !r.pattern.MatchString(text) {
		return false
	}
	for _, excl := range r.exclusions {
		if excl.MatchString(text) {
			return false
		}
	}
	return true
}

// rulesFile is the YAML shape of a rule definition file.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads detection rules from YAML.
func LoadRules(r io.Reader) ([]Rule, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rule definitions: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule definitions contain no rules")
	}
	return file.Rules, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
