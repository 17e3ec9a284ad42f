package doccano

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/span"
)

// OutputConverter writes documents as doccano JSONL exports.
type OutputConverter struct {
	cfg Config
}

// NewOutputConverter returns a converter emitting the given column
// names.
func NewOutputConverter(cfg Config) *OutputConverter {
	return &OutputConverter{cfg: cfg.withDefaults()}
}

// SaveRelationExtraction writes one relation-extraction line per
// document. Entities and relations get sequential numeric ids; span
// provenance is flattened to original-text offsets, and discontinuous
// entities span from their first byte to their last.
func (c *OutputConverter) SaveRelationExtraction(w io.Writer, docs []*document.Document) error {
	encoder := json.NewEncoder(w)
	for _, doc := range docs {
		line := map[string]any{
			c.cfg.ColumnText: doc.Text(),
		}

		entities := []entityLine{}
		relations := []relationLine{}
		nextID := 1
		idByUID := map[string]int{}

		for _, ann := range doc.Anns.All() {
			entity, ok := ann.(*annot.Entity)
			if !ok {
				continue
			}
			start, end, err := entityOffsets(entity)
			if err != nil {
				return fmt.Errorf("document %s: entity %s: %w", doc.UID(), entity.UID(), err)
			}
			entities = append(entities, entityLine{
				ID:          nextID,
				StartOffset: start,
				EndOffset:   end,
				Label:       entity.Label(),
			})
			idByUID[entity.UID()] = nextID
			nextID++
		}

		for _, ann := range doc.Anns.All() {
			relation, ok := ann.(*annot.Relation)
			if !ok {
				continue
			}
			from, okFrom := idByUID[relation.SourceID()]
			to, okTo := idByUID[relation.TargetID()]
			if !okFrom || !okTo {
				// Doccano relations can only join exported entities.
				continue
			}
			relations = append(relations, relationLine{
				ID:     nextID,
				FromID: from,
				ToID:   to,
				Type:   relation.Label(),
			})
			nextID++
		}

		line["entities"] = entities
		line["relations"] = relations
		if len(doc.Metadata()) > 0 {
			line["metadata"] = doc.Metadata()
		}
		if err := encoder.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// SaveSeqLabeling writes one sequence-labeling line per document, with
// every entity as a [start, end, label] triple.
func (c *OutputConverter) SaveSeqLabeling(w io.Writer, docs []*document.Document) error {
	encoder := json.NewEncoder(w)
	for _, doc := range docs {
		tuples := []seqLabelTuple{}
		for _, ann := range doc.Anns.All() {
			entity, ok := ann.(*annot.Entity)
			if !ok {
				continue
			}
			start, end, err := entityOffsets(entity)
			if err != nil {
				return fmt.Errorf("document %s: entity %s: %w", doc.UID(), entity.UID(), err)
			}
			tuples = append(tuples, seqLabelTuple{Start: start, End: end, Label: entity.Label()})
		}
		line := map[string]any{
			c.cfg.ColumnText:  doc.Text(),
			c.cfg.ColumnLabel: tuples,
		}
		if err := encoder.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// SaveTextClassification writes one text-classification line per
// document. The categories are the string values of the raw segment's
// attributes labeled with the configured label column; a document
// without one cannot be expressed in this format and is an error.
func (c *OutputConverter) SaveTextClassification(w io.Writer, docs []*document.Document) error {
	encoder := json.NewEncoder(w)
	for _, doc := range docs {
		categories := []string{}
		for _, attr := range doc.RawSegment().Attrs() {
			if attr.Label() != c.cfg.ColumnLabel {
				continue
			}
			category, ok := attr.Value().(string)
			if !ok {
				return fmt.Errorf("document %s: attribute %s: value %v is not a category string",
					doc.UID(), attr.UID(), attr.Value())
			}
			categories = append(categories, category)
		}
		if len(categories) == 0 {
			return fmt.Errorf("document %s: no %q attribute on the raw segment",
				doc.UID(), c.cfg.ColumnLabel)
		}
		line := map[string]any{
			c.cfg.ColumnText:  doc.Text(),
			c.cfg.ColumnLabel: categories,
		}
		if err := encoder.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// entityOffsets returns the original-text extent of an entity.
func entityOffsets(entity *annot.Entity) (int, int, error) {
	normalized := span.Normalize(entity.Spans())
	if len(normalized) == 0 {
		return 0, 0, fmt.Errorf("no resolvable span")
	}
	return normalized[0].Start, normalized[len(normalized)-1].End, nil
}
