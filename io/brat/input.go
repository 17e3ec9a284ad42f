package brat

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/ident"
	"github.com/c360studio/medtext/prov"
	"github.com/c360studio/medtext/span"
)

const (
	textExt     = ".txt"
	annExt      = ".ann"
	annConfFile = "annotation.conf"
)

// InputConverter loads brat collections into documents. Each document
// comes from a text file paired with an .ann file sharing its base
// name; either half may be missing.
type InputConverter struct {
	uid    string
	logger *slog.Logger
	prov   *prov.Builder
}

// NewInputConverter returns a converter logging through the given
// logger, or slog.Default when nil.
func NewInputConverter(logger *slog.Logger) *InputConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputConverter{uid: ident.New(), logger: logger}
}

// Description identifies the converter in provenance records.
func (c *InputConverter) Description() prov.OperationDescription {
	return prov.NewOperationDescription(c.uid, "BratInputConverter", nil)
}

// SetProvBuilder makes the converter record one provenance node per
// loaded annotation.
func (c *InputConverter) SetProvBuilder(b *prov.Builder) { c.prov = b }

// LoadDirectory loads every document of a brat collection directory.
// The glob pattern selects files relative to the directory and defaults
// to "*" when empty; subdirectories can be reached with patterns such
// as "**/*".
func (c *InputConverter) LoadDirectory(dirPath, pattern string) ([]*document.Document, error) {
	if pattern == "" {
		pattern = "*"
	}

	bases := map[string]struct{}{}
	for _, ext := range []string{annExt, textExt} {
		matches, err := doublestar.FilepathGlob(filepath.Join(dirPath, pattern+ext))
		if err != nil {
			return nil, fmt.Errorf("glob %s files in %s: %w", ext, dirPath, err)
		}
		for _, match := range matches {
			bases[strings.TrimSuffix(match, ext)] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(bases))
	for base := range bases {
		sorted = append(sorted, base)
	}
	sort.Strings(sorted)

	var docs []*document.Document
	for _, base := range sorted {
		doc, err := c.loadDoc(base)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", base, err)
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		c.logger.Warn("no brat document loaded", "dir", dirPath, "pattern", pattern)
	}
	return docs, nil
}

// LoadFile loads a single document from a text file and its adjacent
// .ann file.
func (c *InputConverter) LoadFile(textPath string) (*document.Document, error) {
	return c.loadDoc(strings.TrimSuffix(textPath, textExt))
}

func (c *InputConverter) loadDoc(basePath string) (*document.Document, error) {
	metadata := map[string]any{}

	var text string
	textPath := basePath + textExt
	if raw, err := os.ReadFile(textPath); err == nil {
		text = string(raw)
		metadata["path_to_text"] = textPath
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	var annFile *AnnFile
	annPath := basePath + annExt
	if f, err := os.Open(annPath); err == nil {
		annFile, err = ParseAnn(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", annPath, err)
		}
		metadata["path_to_ann"] = annPath
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	doc, err := document.New(text, &document.Opts{Metadata: metadata})
	if err != nil {
		return nil, err
	}
	if annFile != nil {
		if err := c.addAnns(doc, annFile); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// addAnns converts parsed brat annotations into document annotations.
// Entities come first so that relations and attributes can resolve the
// uids of their targets.
func (c *InputConverter) addAnns(doc *document.Document, annFile *AnnFile) error {
	byBratID := map[string]annot.Annotation{}

	for _, bratEntity := range annFile.Entities {
		spans := fragmentSpans(bratEntity.Fragments)
		entity, err := annot.NewEntity(bratEntity.Type, spans, bratEntity.Text, &annot.Opts{
			Metadata: map[string]any{"brat_id": bratEntity.ID},
		})
		if err != nil {
			return fmt.Errorf("entity %s: %w", bratEntity.ID, err)
		}
		if err := doc.Anns.Add(entity); err != nil {
			return err
		}
		byBratID[bratEntity.ID] = entity
		c.recordProv(entity.UID(), doc)
	}

	for _, bratRelation := range annFile.Relations {
		subj, ok := byBratID[bratRelation.Subj]
		if !ok {
			return fmt.Errorf("relation %s: unknown entity %s", bratRelation.ID, bratRelation.Subj)
		}
		obj, ok := byBratID[bratRelation.Obj]
		if !ok {
			return fmt.Errorf("relation %s: unknown entity %s", bratRelation.ID, bratRelation.Obj)
		}
		relation, err := annot.NewRelation(bratRelation.Type, subj.UID(), obj.UID(), &annot.Opts{
			Metadata: map[string]any{"brat_id": bratRelation.ID},
		})
		if err != nil {
			return fmt.Errorf("relation %s: %w", bratRelation.ID, err)
		}
		if err := doc.Anns.Add(relation); err != nil {
			return err
		}
		byBratID[bratRelation.ID] = relation
		c.recordProv(relation.UID(), doc)
	}

	for _, bratAttribute := range annFile.Attributes {
		target, ok := byBratID[bratAttribute.Target]
		if !ok {
			return fmt.Errorf("attribute %s: unknown target %s", bratAttribute.ID, bratAttribute.Target)
		}
		// Binary brat attributes have no value and become boolean true.
		var value any = true
		if bratAttribute.Value != "" {
			value = bratAttribute.Value
		}
		attr, err := annot.NewAttribute(bratAttribute.Type, value, &annot.AttributeOpts{
			Metadata: map[string]any{"brat_id": bratAttribute.ID},
		})
		if err != nil {
			return fmt.Errorf("attribute %s: %w", bratAttribute.ID, err)
		}
		target.AddAttr(attr)
		c.recordProv(attr.UID(), doc)
	}
	return nil
}

// fragmentSpans builds the span list of a brat entity. The text of a
// discontinuous entity is its fragments joined by single spaces, so each
// gap between fragments contributes a one-character ModifiedSpan standing
// in for no original text.
func fragmentSpans(fragments []span.Span) []span.AnySpan {
	spans := make([]span.AnySpan, 0, 2*len(fragments)-1)
	for i, sp := range fragments {
		if i > 0 {
			spans = append(spans, span.ModifiedSpan{Length: 1})
		}
		spans = append(spans, sp)
	}
	return spans
}

func (c *InputConverter) recordProv(uid string, doc *document.Document) {
	if c.prov != nil {
		c.prov.Add(uid, c.Description(), []string{doc.RawSegment().UID()})
	}
}
