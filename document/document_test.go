package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/span"
)

func TestNew_RawSegment(t *testing.T) {
	doc, err := New("The cat sat.", nil)
	require.NoError(t, err)

	raw := doc.RawSegment()
	assert.Equal(t, RawLabel, raw.Label())
	assert.Equal(t, "The cat sat.", raw.Text())
	assert.Equal(t, []span.AnySpan{span.Span{Start: 0, End: 12}}, raw.Spans())
	assert.Equal(t, "The cat sat.", doc.Text())

	// The raw segment is reachable like any annotation.
	got := doc.Anns.Get(RawLabel)
	require.Len(t, got, 1)
	assert.Equal(t, raw.UID(), got[0].UID())
}

func TestNew_RawSegmentUIDIsDeterministic(t *testing.T) {
	a, err := New("some text", &Opts{UID: "doc-1"})
	require.NoError(t, err)
	b, err := New("some text", &Opts{UID: "doc-1"})
	require.NoError(t, err)
	c, err := New("some text", &Opts{UID: "doc-2"})
	require.NoError(t, err)

	assert.Equal(t, a.RawSegment().UID(), b.RawSegment().UID())
	assert.NotEqual(t, a.RawSegment().UID(), c.RawSegment().UID())
	assert.NotEqual(t, a.UID(), a.RawSegment().UID())
}

func TestDocument_ExtractAndAddScenario(t *testing.T) {
	doc, err := New("The cat sat.", nil)
	require.NoError(t, err)
	raw := doc.RawSegment()

	text, spans, err := span.Extract(raw.Text(), raw.Spans(), []span.Range{{Start: 4, End: 7}})
	require.NoError(t, err)
	assert.Equal(t, "cat", text)
	assert.Equal(t, []span.AnySpan{span.Span{Start: 4, End: 7}}, spans)

	seg, err := annot.NewSegment("X", spans, text, nil)
	require.NoError(t, err)
	require.NoError(t, doc.Anns.Add(seg))

	got := doc.Anns.Get("X")
	require.Len(t, got, 1)
	assert.Equal(t, seg, got[0])
}

func TestDocument_RoundTrip(t *testing.T) {
	doc, err := New("The cat sat.", &Opts{
		UID:      "doc-rt",
		Metadata: map[string]any{"source": "unit-test"},
	})
	require.NoError(t, err)

	seg, err := annot.NewSegment("X", []span.AnySpan{span.Span{Start: 4, End: 7}}, "cat", nil)
	require.NoError(t, err)
	require.NoError(t, doc.Anns.Add(seg))

	raw, err := json.Marshal(doc.ToDict(true))
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))

	got, err := FromDict(data)
	require.NoError(t, err)
	assert.Equal(t, doc.UID(), got.UID())
	assert.Equal(t, doc.Text(), got.Text())
	assert.Equal(t, doc.Metadata(), got.Metadata())
	assert.Equal(t, doc.RawSegment().UID(), got.RawSegment().UID(),
		"raw segment uid must survive the reload")

	gotSegs := got.Anns.Get("X")
	require.Len(t, gotSegs, 1)
	gotSeg := gotSegs[0].(*annot.Segment)
	assert.Equal(t, seg.UID(), gotSeg.UID())
	assert.Equal(t, seg.Text(), gotSeg.Text())
	assert.Equal(t, seg.Spans(), gotSeg.Spans())
}

func TestDocument_ShallowDict(t *testing.T) {
	doc, err := New("The cat sat.", nil)
	require.NoError(t, err)

	data := doc.ToDict(false)
	_, hasAnns := data["anns"]
	assert.False(t, hasAnns)
	assert.Equal(t, ClassDocument, data["class_name"])
}

func TestNew_RejectsDuplicateInitialAnnotations(t *testing.T) {
	seg1, err := annot.NewSegment("X", []span.AnySpan{span.Span{Start: 0, End: 3}}, "The", &annot.Opts{UID: "dup"})
	require.NoError(t, err)
	seg2, err := annot.NewSegment("Y", []span.AnySpan{span.Span{Start: 4, End: 7}}, "cat", &annot.Opts{UID: "dup"})
	require.NoError(t, err)

	_, err = New("The cat sat.", &Opts{Anns: []annot.Annotation{seg1, seg2}})
	assert.ErrorIs(t, err, annot.ErrDuplicateID)
}
