package doccano

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/ident"
	"github.com/c360studio/medtext/prov"
	"github.com/c360studio/medtext/span"
)

// InputConverter loads doccano JSONL exports into documents.
type InputConverter struct {
	uid    string
	cfg    Config
	logger *slog.Logger
	prov   *prov.Builder
}

// NewInputConverter returns a converter for files using the given
// column names.
func NewInputConverter(cfg Config, logger *slog.Logger) *InputConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputConverter{uid: ident.New(), cfg: cfg.withDefaults(), logger: logger}
}

// Description identifies the converter in provenance records.
func (c *InputConverter) Description() prov.OperationDescription {
	return prov.NewOperationDescription(c.uid, "DoccanoInputConverter", map[string]any{
		"column_text":  c.cfg.ColumnText,
		"column_label": c.cfg.ColumnLabel,
	})
}

// SetProvBuilder makes the converter record one provenance node per
// loaded annotation.
func (c *InputConverter) SetProvBuilder(b *prov.Builder) { c.prov = b }

// LoadRelationExtraction reads a relation-extraction JSONL export: one
// document per line with entities and relations.
func (c *InputConverter) LoadRelationExtraction(r io.Reader) ([]*document.Document, error) {
	var docs []*document.Document
	err := c.eachLine(r, func(lineNo int, data []byte) error {
		var line relationExtractionLine
		raw, err := decodeLine(data, &line)
		if err != nil {
			return err
		}
		text, err := stringColumn(raw, c.cfg.ColumnText)
		if err != nil {
			return err
		}

		metadata := line.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		if line.ID != nil {
			metadata["doccano_id"] = *line.ID
		}
		doc, err := document.New(text, &document.Opts{Metadata: metadata})
		if err != nil {
			return err
		}

		entityUIDs := map[int]string{}
		for _, ent := range line.Entities {
			entity, err := c.entityFromOffsets(text, ent.StartOffset, ent.EndOffset, ent.Label,
				map[string]any{"doccano_id": ent.ID})
			if err != nil {
				return fmt.Errorf("entity %d: %w", ent.ID, err)
			}
			if err := doc.Anns.Add(entity); err != nil {
				return err
			}
			entityUIDs[ent.ID] = entity.UID()
			c.recordProv(entity.UID(), doc)
		}

		for _, rel := range line.Relations {
			from, ok := entityUIDs[rel.FromID]
			if !ok {
				return fmt.Errorf("relation %d: unknown entity %d", rel.ID, rel.FromID)
			}
			to, ok := entityUIDs[rel.ToID]
			if !ok {
				return fmt.Errorf("relation %d: unknown entity %d", rel.ID, rel.ToID)
			}
			relation, err := annot.NewRelation(rel.Type, from, to, &annot.Opts{
				Metadata: map[string]any{"doccano_id": rel.ID},
			})
			if err != nil {
				return fmt.Errorf("relation %d: %w", rel.ID, err)
			}
			if err := doc.Anns.Add(relation); err != nil {
				return err
			}
			c.recordProv(relation.UID(), doc)
		}

		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

// LoadSeqLabeling reads a sequence-labeling JSONL export: one document
// per line with [start, end, label] triples.
func (c *InputConverter) LoadSeqLabeling(r io.Reader) ([]*document.Document, error) {
	var docs []*document.Document
	err := c.eachLine(r, func(lineNo int, data []byte) error {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		text, err := stringColumn(raw, c.cfg.ColumnText)
		if err != nil {
			return err
		}

		var tuples []seqLabelTuple
		if field, ok := raw[c.cfg.ColumnLabel]; ok {
			if err := json.Unmarshal(field, &tuples); err != nil {
				return fmt.Errorf("field %q: %w", c.cfg.ColumnLabel, err)
			}
		}

		doc, err := document.New(text, nil)
		if err != nil {
			return err
		}
		for i, tuple := range tuples {
			entity, err := c.entityFromOffsets(text, tuple.Start, tuple.End, tuple.Label, nil)
			if err != nil {
				return fmt.Errorf("entity %d: %w", i, err)
			}
			if err := doc.Anns.Add(entity); err != nil {
				return err
			}
			c.recordProv(entity.UID(), doc)
		}
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

// LoadTextClassification reads a text-classification JSONL export. The
// category becomes an attribute on each document's raw segment, labeled
// with the configured label column.
func (c *InputConverter) LoadTextClassification(r io.Reader) ([]*document.Document, error) {
	var docs []*document.Document
	err := c.eachLine(r, func(lineNo int, data []byte) error {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		text, err := stringColumn(raw, c.cfg.ColumnText)
		if err != nil {
			return err
		}
		field, ok := raw[c.cfg.ColumnLabel]
		if !ok {
			return fmt.Errorf("missing %q field", c.cfg.ColumnLabel)
		}
		var categories []string
		if err := json.Unmarshal(field, &categories); err != nil {
			return fmt.Errorf("field %q: %w", c.cfg.ColumnLabel, err)
		}
		if len(categories) == 0 {
			return fmt.Errorf("field %q: empty category list", c.cfg.ColumnLabel)
		}

		doc, err := document.New(text, nil)
		if err != nil {
			return err
		}
		attr, err := annot.NewAttribute(c.cfg.ColumnLabel, categories[0], nil)
		if err != nil {
			return err
		}
		doc.RawSegment().AddAttr(attr)
		c.recordProv(attr.UID(), doc)
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

// eachLine runs fn on every non-empty line of a JSONL stream.
func (c *InputConverter) eachLine(r io.Reader, fn func(lineNo int, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		if err := fn(lineNo, data); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// entityFromOffsets builds an entity from doccano character offsets,
// validating them against the document text.
func (c *InputConverter) entityFromOffsets(text string, start, end int, label string, metadata map[string]any) (*annot.Entity, error) {
	if start < 0 || end > len(text) || start >= end {
		return nil, fmt.Errorf("offsets [%d, %d) outside text of length %d",
			start, end, len(text))
	}
	return annot.NewEntity(label, []span.AnySpan{span.Span{Start: start, End: end}}, text[start:end],
		&annot.Opts{Metadata: metadata})
}

func (c *InputConverter) recordProv(uid string, doc *document.Document) {
	if c.prov != nil {
		c.prov.Add(uid, c.Description(), []string{doc.RawSegment().UID()})
	}
}
