// Package pipeline runs the annotation chain over documents: syntagma
// tokenization followed by context detection, with provenance and
// metrics.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/config"
	"github.com/c360studio/medtext/context"
	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/prov"
	"github.com/c360studio/medtext/segmentation"
)

// Runner annotates documents: the raw text is split into syntagmas,
// then every detector qualifies each syntagma, and the syntagmas are
// added to the document's annotations.
type Runner struct {
	tokenizer *segmentation.Tokenizer
	detectors []*context.Detector
	logger    *slog.Logger
}

// NewRunner builds the annotation chain described by the configuration.
// Override files for separators and detector rules are read at build
// time.
func NewRunner(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tokCfg := segmentation.DefaultConfig()
	tokCfg.OutputLabel = cfg.Pipeline.SyntagmaLabel
	tokCfg.KeepSeparator = cfg.Pipeline.KeepSeparator
	if cfg.Pipeline.SeparatorsFile != "" {
		separators, err := loadSeparators(cfg.Pipeline.SeparatorsFile)
		if err != nil {
			return nil, err
		}
		tokCfg.Separators = separators
	}
	tokenizer, err := segmentation.New(tokCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build syntagma tokenizer: %w", err)
	}

	negationRules, err := loadRules(cfg.Pipeline.NegationRulesFile)
	if err != nil {
		return nil, err
	}
	negation, err := context.NewNegationDetector(cfg.Pipeline.NegationLabel, negationRules, logger)
	if err != nil {
		return nil, fmt.Errorf("build negation detector: %w", err)
	}

	familyRules, err := loadRules(cfg.Pipeline.FamilyRulesFile)
	if err != nil {
		return nil, err
	}
	family, err := context.NewFamilyDetector(cfg.Pipeline.FamilyLabel, familyRules, logger)
	if err != nil {
		return nil, fmt.Errorf("build family detector: %w", err)
	}

	return &Runner{
		tokenizer: tokenizer,
		detectors: []*context.Detector{negation, family},
		logger:    logger,
	}, nil
}

// SetProvBuilder wires one provenance builder through every operation
// of the chain.
func (r *Runner) SetProvBuilder(b *prov.Builder) {
	r.tokenizer.SetProvBuilder(b)
	for _, d := range r.detectors {
		d.SetProvBuilder(b)
	}
}

// Annotate runs the chain over one document, adding syntagma segments
// and their attributes to the document's annotations.
func (r *Runner) Annotate(doc *document.Document) error {
	start := time.Now()

	syntagmas, err := r.tokenizer.Run([]*annot.Segment{doc.RawSegment()})
	if err != nil {
		annotationFailures.Inc()
		return fmt.Errorf("tokenize document %s: %w", doc.UID(), err)
	}

	for _, detector := range r.detectors {
		if err := detector.Run(syntagmas); err != nil {
			annotationFailures.Inc()
			return fmt.Errorf("detect on document %s: %w", doc.UID(), err)
		}
	}

	for _, syntagma := range syntagmas {
		if err := doc.Anns.Add(syntagma); err != nil {
			annotationFailures.Inc()
			return fmt.Errorf("add syntagma to document %s: %w", doc.UID(), err)
		}
		for _, attr := range syntagma.Attrs() {
			attributesProduced.WithLabelValues(attr.Label()).Inc()
		}
	}

	documentsAnnotated.Inc()
	syntagmasProduced.Add(float64(len(syntagmas)))
	annotateDuration.Observe(time.Since(start).Seconds())

	r.logger.Debug("annotated document",
		"doc_uid", doc.UID(),
		"syntagmas", len(syntagmas),
		"took", time.Since(start))
	return nil
}

// AnnotateAll runs the chain over several documents, stopping at the
// first failure.
func (r *Runner) AnnotateAll(docs []*document.Document) error {
	for _, doc := range docs {
		if err := r.Annotate(doc); err != nil {
			return err
		}
	}
	return nil
}

func loadSeparators(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open separators file: %w", err)
	}
	defer f.Close()
	separators, err := segmentation.ParseSeparators(f)
	if err != nil {
		return nil, fmt.Errorf("parse separators file %s: %w", path, err)
	}
	return separators, nil
}

// loadRules reads detector rules from a YAML file; an empty path means
// the detector's built-in rules.
func loadRules(path string) ([]context.Rule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	rules, err := context.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return rules, nil
}
