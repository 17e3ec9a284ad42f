// Package span represents character ranges of annotated text and tracks
// their provenance through text transformations.
//
// A Span points at a slice of the original document text. A ModifiedSpan
// stands in for text that no longer exists verbatim in the original
// (synthesized, normalized or merged text) and carries the original spans it
// replaced. All offsets are byte offsets into UTF-8 text.
package span

import "fmt"

// AnySpan is implemented by Span and ModifiedSpan.
type AnySpan interface {
	// Len returns the number of characters this span covers in the text it
	// belongs to.
	Len() int

	// ToDict returns the generic serialized form of the span.
	ToDict() map[string]any
}

// Span is a slice of text extracted from the original text.
type Span struct {
	// Start is the index of the first character in the original text.
	Start int

	// End is the index of the last character in the original text, plus one.
	End int
}

// NewSpan creates a Span after validating its bounds. A zero-length or
// inverted span is a caller error.
func NewSpan(start, end int) (Span, error) {
	if start < 0 || end <= start {
		return Span{}, fmt.Errorf("invalid span bounds [%d, %d)", start, end)
	}
	return Span{Start: start, End: end}, nil
}

// Len returns the number of characters covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// ToDict returns the generic serialized form of the span.
func (s Span) ToDict() map[string]any {
	return map[string]any{"start": s.Start, "end": s.End}
}

// ModifiedSpan is a slice of text not present in the original text.
//
// ReplacedSpans lists the slices of the original text this span stands in
// for, in order. The list may be empty (fully synthesized text) and its
// total length is not required to match Length: it is provenance, not a
// checksum.
type ModifiedSpan struct {
	// Length is the number of characters in the replacement text.
	Length int

	// ReplacedSpans are the original spans being replaced.
	ReplacedSpans []Span
}

// Len returns the number of characters covered by the span.
func (s ModifiedSpan) Len() int { return s.Length }

// ToDict returns the generic serialized form of the span.
func (s ModifiedSpan) ToDict() map[string]any {
	replaced := make([]any, len(s.ReplacedSpans))
	for i, r := range s.ReplacedSpans {
		replaced[i] = r.ToDict()
	}
	return map[string]any{"length": s.Length, "replaced_spans": replaced}
}

// FromDict reconstructs a span from its generic serialized form. The shape
// of the mapping decides the concrete type: {start, end} is a Span,
// {length, replaced_spans} is a ModifiedSpan.
func FromDict(data map[string]any) (AnySpan, error) {
	if _, ok := data["start"]; ok {
		start, ok := asInt(data["start"])
		if !ok {
			return nil, fmt.Errorf("span: invalid start %v", data["start"])
		}
		end, ok := asInt(data["end"])
		if !ok {
			return nil, fmt.Errorf("span: invalid end %v", data["end"])
		}
		return NewSpan(start, end)
	}

	length, ok := asInt(data["length"])
	if !ok {
		return nil, fmt.Errorf("span: mapping is neither a span nor a modified span: %v", data)
	}
	var replaced []Span
	if raw, ok := data["replaced_spans"].([]any); ok {
		replaced = make([]Span, 0, len(raw))
		for _, entry := range raw {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("span: invalid replaced span %v", entry)
			}
			sub, err := FromDict(m)
			if err != nil {
				return nil, err
			}
			plain, ok := sub.(Span)
			if !ok {
				return nil, fmt.Errorf("span: replaced span must be a plain span, got %T", sub)
			}
			replaced = append(replaced, plain)
		}
	}
	return ModifiedSpan{Length: length, ReplacedSpans: replaced}, nil
}

// asInt converts numeric values as they appear both in freshly built dicts
// (int) and in dicts round-tripped through JSON (float64).
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
