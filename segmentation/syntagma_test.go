package segmentation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/prov"
	"github.com/c360studio/medtext/span"
)

func segmentFromText(t *testing.T, text string) *annot.Segment {
	t.Helper()
	seg, err := annot.NewSegment("sentence", []span.AnySpan{span.Span{Start: 0, End: len(text)}}, text, nil)
	require.NoError(t, err)
	return seg
}

func TestTokenizer_SplitsOnSeparator(t *testing.T) {
	tok, err := New(Config{
		OutputLabel:   "syntagma",
		Separators:    []string{";"},
		KeepSeparator: false,
	}, nil)
	require.NoError(t, err)

	text := "No sign of covid; patient has asthma"
	syntagmas, err := tok.Run([]*annot.Segment{segmentFromText(t, text)})
	require.NoError(t, err)
	require.Len(t, syntagmas, 2)

	assert.Equal(t, "No sign of covid", syntagmas[0].Text())
	assert.Equal(t, []span.AnySpan{span.Span{Start: 0, End: 16}}, syntagmas[0].Spans())

	assert.Equal(t, "patient has asthma", syntagmas[1].Text())
	assert.Equal(t, []span.AnySpan{span.Span{Start: 18, End: 36}}, syntagmas[1].Spans())
}

func TestTokenizer_KeepSeparator(t *testing.T) {
	tok, err := New(Config{
		OutputLabel:   "syntagma",
		Separators:    []string{";"},
		KeepSeparator: true,
	}, nil)
	require.NoError(t, err)

	text := "No sign of covid; patient has asthma"
	syntagmas, err := tok.Run([]*annot.Segment{segmentFromText(t, text)})
	require.NoError(t, err)
	require.Len(t, syntagmas, 2)

	assert.Equal(t, "No sign of covid", syntagmas[0].Text())
	assert.Equal(t, "; patient has asthma", syntagmas[1].Text())
	assert.Equal(t, []span.AnySpan{span.Span{Start: 16, End: 36}}, syntagmas[1].Spans())
}

func TestTokenizer_SplitsOnNewlines(t *testing.T) {
	tok, err := New(Config{
		Separators:    []string{"\\r?\\n+"},
		KeepSeparator: false,
	}, nil)
	require.NoError(t, err)

	text := "line one\n\nline two"
	syntagmas, err := tok.Run([]*annot.Segment{segmentFromText(t, text)})
	require.NoError(t, err)
	require.Len(t, syntagmas, 2)
	assert.Equal(t, "line one", syntagmas[0].Text())
	assert.Equal(t, "line two", syntagmas[1].Text())
}

func TestTokenizer_SkipsEmptySyntagmas(t *testing.T) {
	tok, err := New(Config{Separators: []string{";"}, KeepSeparator: false}, nil)
	require.NoError(t, err)

	// Trailing whitespace after the last separator is not a syntagma.
	syntagmas, err := tok.Run([]*annot.Segment{segmentFromText(t, "a; b;  ")})
	require.NoError(t, err)
	require.Len(t, syntagmas, 2)
	assert.Equal(t, "a", syntagmas[0].Text())
	assert.Equal(t, "b", syntagmas[1].Text())
}

func TestTokenizer_SpansComposeAcrossExtractions(t *testing.T) {
	// The parent segment is itself an extraction; syntagma spans must point
	// back at the original document, not at the parent.
	original := "HEADER The cat sat; the dog ran"
	parentText, parentSpans, err := span.Extract(
		original,
		[]span.AnySpan{span.Span{Start: 0, End: len(original)}},
		[]span.Range{{Start: 7, End: len(original)}},
	)
	require.NoError(t, err)
	parent, err := annot.NewSegment("sentence", parentSpans, parentText, nil)
	require.NoError(t, err)

	tok, err := New(Config{Separators: []string{";"}, KeepSeparator: false}, nil)
	require.NoError(t, err)

	syntagmas, err := tok.Run([]*annot.Segment{parent})
	require.NoError(t, err)
	require.Len(t, syntagmas, 2)

	assert.Equal(t, "The cat sat", syntagmas[0].Text())
	assert.Equal(t, []span.AnySpan{span.Span{Start: 7, End: 18}}, syntagmas[0].Spans())
	assert.Equal(t, "the dog ran", syntagmas[1].Text())
	assert.Equal(t, []span.AnySpan{span.Span{Start: 20, End: 31}}, syntagmas[1].Spans())
}

func TestTokenizer_RecordsProvenance(t *testing.T) {
	tok, err := New(Config{Separators: []string{";"}}, nil)
	require.NoError(t, err)
	builder := prov.NewBuilder()
	tok.SetProvBuilder(builder)

	parent := segmentFromText(t, "a; b")
	syntagmas, err := tok.Run([]*annot.Segment{parent})
	require.NoError(t, err)
	require.NotEmpty(t, syntagmas)

	node, ok := builder.Node(syntagmas[0].UID())
	require.True(t, ok)
	assert.Equal(t, tok.Description().UID, node.OperationUID)
	assert.Equal(t, []string{parent.UID()}, node.SourceUIDs)
}

func TestParseSeparators(t *testing.T) {
	seps, err := ParseSeparators(strings.NewReader("syntagmas:\n  separators:\n    - \";\"\n    - \"\\\\bmais\\\\b\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{";", "\\bmais\\b"}, seps)

	_, err = ParseSeparators(strings.NewReader("syntagmas: {}\n"))
	assert.Error(t, err)
}

func TestDefaultConfig_SeparatorsCompile(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
}

func TestNew_RejectsInvalidSeparator(t *testing.T) {
	_, err := New(Config{Separators: []string{"("}}, nil)
	assert.Error(t, err)
}
