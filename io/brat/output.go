package brat

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/document"
	"github.com/c360studio/medtext/span"
)

// OutputConverter writes documents as a brat collection: one text file
// and one .ann file per document, plus an annotation.conf listing the
// entity types of the whole collection.
type OutputConverter struct {
	// Labels restricts the exported annotations to the given labels.
	// Empty means all.
	Labels []string

	// AttrLabels restricts the exported attributes to the given labels.
	// Empty means all.
	AttrLabels []string

	// KeepSegments exports plain segments as brat entities. brat has no
	// segment concept, so this is off by default.
	KeepSegments bool

	Logger *slog.Logger
}

// Convert writes every document to outputPath, creating the directory
// when needed.
func (c *OutputConverter) Convert(docs []*document.Document, outputPath string) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return err
	}

	entityTypes := map[string]struct{}{}
	for _, doc := range docs {
		textPath := filepath.Join(outputPath, doc.UID()+textExt)
		if err := os.WriteFile(textPath, []byte(doc.Text()), 0o644); err != nil {
			return err
		}

		segments, relations := c.selectAnns(doc, logger)
		for _, seg := range segments {
			entityTypes[strings.ReplaceAll(seg.Label(), " ", "_")] = struct{}{}
		}

		annPath := filepath.Join(outputPath, doc.UID()+annExt)
		if err := os.WriteFile(annPath, []byte(c.renderAnns(segments, relations)), 0o644); err != nil {
			return err
		}
	}

	confPath := filepath.Join(outputPath, annConfFile)
	return os.WriteFile(confPath, []byte(renderAnnotationConf(entityTypes)), 0o644)
}

// selectAnns returns the exportable segments and relations of a
// document, honoring the label filter.
func (c *OutputConverter) selectAnns(doc *document.Document, logger *slog.Logger) ([]*annot.Segment, []*annot.Relation) {
	var segments []*annot.Segment
	var relations []*annot.Relation
	for _, ann := range doc.Anns.All() {
		if ann.UID() == doc.RawSegment().UID() {
			continue
		}
		if len(c.Labels) > 0 && !contains(c.Labels, ann.Label()) {
			continue
		}
		switch a := ann.(type) {
		case *annot.Entity:
			segments = append(segments, &a.Segment)
		case *annot.Segment:
			if c.KeepSegments {
				segments = append(segments, a)
			}
		case *annot.Relation:
			relations = append(relations, a)
		}
	}
	if len(c.Labels) > 0 && len(segments) == 0 && len(relations) == 0 {
		logger.Warn("no annotation matched the label filter",
			"doc_uid", doc.UID(), "labels", strings.Join(c.Labels, ","))
	}
	return segments, relations
}

// renderAnns renders the .ann content for one document. Entities come
// first so relations can reference them, then each annotation's
// attributes.
func (c *OutputConverter) renderAnns(segments []*annot.Segment, relations []*annot.Relation) string {
	var sb strings.Builder
	nextEntity, nextRelation, nextAttribute := 1, 1, 1
	bratIDByUID := map[string]string{}

	writeAttrs := func(attrs []*annot.Attribute, targetID string) {
		for _, attr := range attrs {
			if len(c.AttrLabels) > 0 && !contains(c.AttrLabels, attr.Label()) {
				continue
			}
			// A binary brat attribute asserts presence, so a false
			// boolean has no brat rendition.
			if b, ok := attr.Value().(bool); ok && !b {
				continue
			}
			bratAttr := Attribute{
				ID:     fmt.Sprintf("A%d", nextAttribute),
				Type:   strings.ReplaceAll(attr.Label(), " ", "_"),
				Target: targetID,
				Value:  attributeValueString(attr.Value()),
			}
			sb.WriteString(formatAttribute(bratAttr))
			nextAttribute++
		}
	}

	for _, seg := range segments {
		bratID := fmt.Sprintf("T%d", nextEntity)
		bratIDByUID[seg.UID()] = bratID
		sb.WriteString(formatEntity(Entity{
			ID:        bratID,
			Type:      strings.ReplaceAll(seg.Label(), " ", "_"),
			Fragments: fragmentsOf(seg),
			Text:      seg.Text(),
		}))
		nextEntity++
		writeAttrs(seg.Attrs(), bratID)
	}

	for _, relation := range relations {
		subj, okSubj := bratIDByUID[relation.SourceID()]
		obj, okObj := bratIDByUID[relation.TargetID()]
		if !okSubj || !okObj {
			// Endpoint filtered out or dangling, the relation cannot be
			// expressed in brat.
			continue
		}
		bratID := fmt.Sprintf("R%d", nextRelation)
		sb.WriteString(formatRelation(Relation{
			ID:   bratID,
			Type: strings.ReplaceAll(relation.Label(), " ", "_"),
			Subj: subj,
			Obj:  obj,
		}))
		nextRelation++
		writeAttrs(relation.Attrs(), bratID)
	}
	return sb.String()
}

// fragmentsOf flattens a segment's spans to original-text offsets.
func fragmentsOf(seg *annot.Segment) []span.Span {
	return span.Normalize(seg.Spans())
}

// attributeValueString renders an attribute value for an A line. True
// booleans become binary brat attributes.
func attributeValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		return ""
	case string:
		return strings.ReplaceAll(v, " ", "_")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderAnnotationConf(entityTypes map[string]struct{}) string {
	types := make([]string, 0, len(entityTypes))
	for t := range entityTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	var sb strings.Builder
	sb.WriteString("# Text-based definitions of entity types, relation types and attributes.\n")
	sb.WriteString("\n[entities]\n\n")
	sb.WriteString(strings.Join(types, "\n"))
	sb.WriteString("\n\n[relations]\n\n")
	sb.WriteString("<OVERLAP>\tArg1:<ENTITY>, Arg2:<ENTITY>, <OVL-TYPE>:<ANY>\n")
	sb.WriteString("\n[attributes]\n\n[events]\n")
	return sb.String()
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
