// Package segmentation splits segments into smaller processing units.
package segmentation

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/ident"
	"github.com/c360studio/medtext/prov"
	"github.com/c360studio/medtext/span"
)

//go:embed syntagma_separators.yaml
var defaultSeparatorsYAML []byte

// Config holds syntagma tokenizer configuration.
type Config struct {
	// OutputLabel is the label given to produced syntagma segments.
	OutputLabel string `yaml:"output_label"`

	// Separators are the regular expressions splitting syntagmas.
	Separators []string `yaml:"separators"`

	// KeepSeparator attaches each separator to the syntagma that follows
	// it instead of dropping it.
	KeepSeparator bool `yaml:"keep_separator"`

	// UID identifies the tokenizer in provenance records. Generated when
	// empty.
	UID string `yaml:"-"`
}

// DefaultConfig returns the tokenizer defaults, with the embedded separator
// definitions.
func DefaultConfig() Config {
	seps, err := ParseSeparators(strings.NewReader(string(defaultSeparatorsYAML)))
	if err != nil {
		// The embedded file ships with the binary; failing to parse it is
		// a build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded separator definitions: %v", err))
	}
	return Config{
		OutputLabel:   "syntagma",
		Separators:    seps,
		KeepSeparator: true,
	}
}

// Tokenizer splits segments into syntagmas on configured separators,
// deriving each syntagma's spans from its parent segment so provenance
// reaches back to the original document text.
type Tokenizer struct {
	cfg     Config
	pattern *regexp.Regexp
	synIdx  int
	sepIdx  int
	logger  *slog.Logger
	prov    *prov.Builder
}

// New creates a tokenizer from cfg. A zero-value OutputLabel or empty
// separator list falls back to the defaults.
func New(cfg Config, logger *slog.Logger) (*Tokenizer, error) {
	defaults := DefaultConfig()
	if cfg.OutputLabel == "" {
		cfg.OutputLabel = defaults.OutputLabel
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = defaults.Separators
	}
	if cfg.UID == "" {
		cfg.UID = ident.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	for _, sep := range cfg.Separators {
		if _, err := regexp.Compile(sep); err != nil {
			return nil, fmt.Errorf("invalid separator %q: %w", sep, err)
		}
	}
	pattern, err := regexp.Compile(
		"(?P<blanks> *)" +
			"(?P<syntagma>.+?)" +
			"(?P<separator>" + strings.Join(cfg.Separators, "|") + "|$)",
	)
	if err != nil {
		return nil, fmt.Errorf("compile syntagma pattern: %w", err)
	}

	return &Tokenizer{
		cfg:     cfg,
		pattern: pattern,
		synIdx:  pattern.SubexpIndex("syntagma"),
		sepIdx:  pattern.SubexpIndex("separator"),
		logger:  logger,
	}, nil
}

// Description identifies the tokenizer for provenance records.
func (t *Tokenizer) Description() prov.OperationDescription {
	return prov.OperationDescription{
		UID:  t.cfg.UID,
		Name: "SyntagmaTokenizer",
		Config: map[string]any{
			"output_label":   t.cfg.OutputLabel,
			"separators":     t.cfg.Separators,
			"keep_separator": t.cfg.KeepSeparator,
		},
	}
}

// SetProvBuilder makes the tokenizer record provenance for every syntagma
// it produces.
func (t *Tokenizer) SetProvBuilder(b *prov.Builder) { t.prov = b }

// Run returns the syntagmas detected in segments, in reading order.
func (t *Tokenizer) Run(segments []*annot.Segment) ([]*annot.Segment, error) {
	var out []*annot.Segment
	for _, seg := range segments {
		syntagmas, err := t.split(seg)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", seg.UID(), err)
		}
		out = append(out, syntagmas...)
	}
	return out, nil
}

func (t *Tokenizer) split(seg *annot.Segment) ([]*annot.Segment, error) {
	text := seg.Text()
	matches := t.pattern.FindAllStringSubmatchIndex(text, -1)

	var out []*annot.Segment
	carried := false
	start := 0
	for _, m := range matches {
		synStart, synEnd := m[2*t.synIdx], m[2*t.synIdx+1]
		if synStart < 0 || strings.TrimSpace(text[synStart:synEnd]) == "" {
			continue
		}

		if !carried {
			start = synStart
		}
		end := synEnd

		synText, synSpans, err := span.Extract(text, seg.Spans(), []span.Range{{Start: start, End: end}})
		if err != nil {
			return nil, err
		}

		// With KeepSeparator the separator closing this syntagma opens the
		// next one.
		carried = t.cfg.KeepSeparator
		if carried {
			start = m[2*t.sepIdx]
		}

		syntagma, err := annot.NewSegment(t.cfg.OutputLabel, synSpans, synText, nil)
		if err != nil {
			return nil, err
		}
		if t.prov != nil {
			t.prov.Add(syntagma.UID(), t.Description(), []string{seg.UID()})
		}
		out = append(out, syntagma)
	}
	return out, nil
}

// separatorsFile is the YAML shape of a separator definition file.
type separatorsFile struct {
	Syntagmas struct {
		Separators []string `yaml:"separators"`
	} `yaml:"syntagmas"`
}

// ParseSeparators reads syntagma separator definitions from YAML.
func ParseSeparators(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var file separatorsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse separator definitions: %w", err)
	}
	if len(file.Syntagmas.Separators) == 0 {
		return nil, fmt.Errorf("separator definitions contain no separators")
	}
	return file.Syntagmas.Separators, nil
}
