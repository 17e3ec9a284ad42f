package span

import (
	"fmt"
	"strings"
)

// Range is a half-open character range [Start, End) over a text.
type Range struct {
	Start int
	End   int
}

// Extract returns the substring of text covered by the requested ranges,
// concatenated in request order, together with the provenance spans of that
// substring expressed against the original text.
//
// spans is the provenance of text itself. Boundary spans intersecting a
// range are clipped to it. A range that covers part of a ModifiedSpan yields
// a ModifiedSpan with the clipped length and the full replaced provenance:
// once inside replaced text the boundary is no longer expressible as a plain
// span.
//
// A zero-length range is a caller error, not a silent no-op: an empty
// annotation would reference a point with no text.
func Extract(text string, spans []AnySpan, ranges []Range) (string, []AnySpan, error) {
	if err := validateRanges(text, ranges); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var out []AnySpan
	for _, r := range ranges {
		b.WriteString(text[r.Start:r.End])
		out = append(out, spansForRange(spans, r.Start, r.End)...)
	}
	return b.String(), out, nil
}

// Replace substitutes each requested range of text with the corresponding
// replacement string. Replaced ranges become ModifiedSpans carrying the
// normalized original spans they stand in for. Ranges must be ascending and
// non-overlapping. An empty replacement removes the range without leaving a
// zero-length span behind.
func Replace(text string, spans []AnySpan, ranges []Range, replacements []string) (string, []AnySpan, error) {
	if len(ranges) != len(replacements) {
		return "", nil, fmt.Errorf("got %d ranges but %d replacements", len(ranges), len(replacements))
	}
	if err := validateRanges(text, ranges); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var out []AnySpan
	cursor := 0
	for i, r := range ranges {
		if r.Start < cursor {
			return "", nil, fmt.Errorf("ranges must be ascending and non-overlapping, [%d, %d) starts before %d", r.Start, r.End, cursor)
		}
		if r.Start > cursor {
			b.WriteString(text[cursor:r.Start])
			out = append(out, spansForRange(spans, cursor, r.Start)...)
		}
		if replacements[i] != "" {
			b.WriteString(replacements[i])
			out = append(out, ModifiedSpan{
				Length:        len(replacements[i]),
				ReplacedSpans: Normalize(spansForRange(spans, r.Start, r.End)),
			})
		}
		cursor = r.End
	}
	if cursor < len(text) {
		b.WriteString(text[cursor:])
		out = append(out, spansForRange(spans, cursor, len(text))...)
	}
	return b.String(), out, nil
}

// Remove deletes the requested ranges of text. Ranges must be ascending and
// non-overlapping.
func Remove(text string, spans []AnySpan, ranges []Range) (string, []AnySpan, error) {
	replacements := make([]string, len(ranges))
	return Replace(text, spans, ranges, replacements)
}

// Normalize reduces a span sequence to plain original-text spans: each
// ModifiedSpan is replaced by the spans it stands in for, then contiguous
// spans (a.End == b.Start) are merged, including across a former
// ModifiedSpan boundary when its replaced spans happen to abut their
// neighbors. Left-to-right order is preserved and the result is stable
// under repeated application. Used whenever a bounding range over the
// original text is needed.
func Normalize(spans []AnySpan) []Span {
	var flat []Span
	for _, sp := range spans {
		switch s := sp.(type) {
		case Span:
			flat = append(flat, s)
		case ModifiedSpan:
			flat = append(flat, s.ReplacedSpans...)
		}
	}
	if len(flat) == 0 {
		return nil
	}

	merged := []Span{flat[0]}
	for _, s := range flat[1:] {
		last := &merged[len(merged)-1]
		if s.Start == last.End {
			last.End = s.End
		} else {
			merged = append(merged, s)
		}
	}
	return merged
}

// spansForRange emits the portion of spans covering [start, end) of the
// current text, clipping boundary spans.
func spansForRange(spans []AnySpan, start, end int) []AnySpan {
	var out []AnySpan
	offset := 0
	for _, sp := range spans {
		spStart := offset
		spEnd := offset + sp.Len()
		offset = spEnd
		if spEnd <= start || spStart >= end {
			continue
		}
		clipStart := max(start, spStart)
		clipEnd := min(end, spEnd)
		switch s := sp.(type) {
		case Span:
			out = append(out, Span{
				Start: s.Start + (clipStart - spStart),
				End:   s.Start + (clipEnd - spStart),
			})
		case ModifiedSpan:
			replaced := make([]Span, len(s.ReplacedSpans))
			copy(replaced, s.ReplacedSpans)
			out = append(out, ModifiedSpan{Length: clipEnd - clipStart, ReplacedSpans: replaced})
		}
	}
	return out
}

func validateRanges(text string, ranges []Range) error {
	for _, r := range ranges {
		if r.Start < 0 || r.End > len(text) {
			return fmt.Errorf("range [%d, %d) out of bounds for text of length %d", r.Start, r.End, len(text))
		}
		if r.End <= r.Start {
			return fmt.Errorf("zero-length or inverted range [%d, %d)", r.Start, r.End)
		}
	}
	return nil
}
