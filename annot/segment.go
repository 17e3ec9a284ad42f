package annot

import (
	"fmt"

	"github.com/c360studio/medtext/span"
)

// Segment is an annotation carrying a snippet of text together with the
// full provenance chain of that text back to the original document.
type Segment struct {
	base
	spans []span.AnySpan
	text  string
}

// NewSegment creates a segment. spans must be non-empty and their total
// length must match the text: a segment whose provenance does not account
// for its own characters is a construction error.
func NewSegment(label string, spans []span.AnySpan, text string, opts *Opts) (*Segment, error) {
	if len(spans) == 0 {
		return nil, fmt.Errorf("segment %q: spans must not be empty", label)
	}
	total := 0
	for _, sp := range spans {
		total += sp.Len()
	}
	if total != len(text) {
		return nil, fmt.Errorf("segment %q: spans cover %d characters but text has %d", label, total, len(text))
	}

	b, err := newBase(label, opts)
	if err != nil {
		return nil, err
	}

	owned := make([]span.AnySpan, len(spans))
	copy(owned, spans)
	return &Segment{base: b, spans: owned, text: text}, nil
}

// Spans returns the segment's spans in left-to-right order.
func (s *Segment) Spans() []span.AnySpan { return s.spans }

// Text returns the segment text.
func (s *Segment) Text() string { return s.text }

// Snippet returns a window of the document's original text around the
// segment, extended by at most maxExtend characters split before and after
// the segment's bounding range. Budget that cannot be spent on one side
// (near a document edge) is reallocated to the other, so the window is never
// shorter than the span plus maxExtend unless the document itself is.
func (s *Segment) Snippet(docText string, maxExtend int) string {
	normalized := span.Normalize(s.spans)
	if len(normalized) == 0 {
		return ""
	}
	start := normalized[0].Start
	end := normalized[len(normalized)-1].End
	for _, sp := range normalized {
		if sp.Start < start {
			start = sp.Start
		}
		if sp.End > end {
			end = sp.End
		}
	}
	if start > len(docText) {
		start = len(docText)
	}
	if end > len(docText) {
		end = len(docText)
	}

	before := start - maxExtend/2
	if before < 0 {
		before = 0
	}
	after := end + (maxExtend - (start - before))
	if after > len(docText) {
		surplus := after - len(docText)
		after = len(docText)
		before -= surplus
		if before < 0 {
			before = 0
		}
	}
	return docText[before:after]
}

// ToDict returns the generic serialized form of the segment.
func (s *Segment) ToDict() map[string]any {
	return s.dict(ClassSegment)
}

func (s *Segment) dict(className string) map[string]any {
	data := s.baseDict(className)
	spans := make([]any, len(s.spans))
	for i, sp := range s.spans {
		spans[i] = sp.ToDict()
	}
	data["spans"] = spans
	data["text"] = s.text
	return data
}

// Entity is a segment denoting a mention of interest: a disease, a drug, a
// dosage. It adds no fields beyond the segment it extends.
type Entity struct {
	Segment
}

// NewEntity creates an entity. Construction rules are those of NewSegment.
func NewEntity(label string, spans []span.AnySpan, text string, opts *Opts) (*Entity, error) {
	seg, err := NewSegment(label, spans, text, opts)
	if err != nil {
		return nil, err
	}
	return &Entity{Segment: *seg}, nil
}

// ToDict returns the generic serialized form of the entity.
func (e *Entity) ToDict() map[string]any {
	return e.dict(ClassEntity)
}
