package annot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/medtext/span"
)

func catSpans() []span.AnySpan {
	return []span.AnySpan{span.Span{Start: 4, End: 7}}
}

func TestNewSegment_Validation(t *testing.T) {
	_, err := NewSegment("word", nil, "cat", nil)
	assert.Error(t, err, "empty spans must be rejected")

	_, err = NewSegment("word", catSpans(), "cats", nil)
	assert.Error(t, err, "span coverage must match text length")

	_, err = NewSegment("", catSpans(), "cat", nil)
	assert.Error(t, err, "label is required")

	seg, err := NewSegment("word", catSpans(), "cat", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, seg.UID())
	assert.Equal(t, "cat", seg.Text())
}

func TestNewSegment_ModifiedSpanCoverage(t *testing.T) {
	spans := []span.AnySpan{
		span.Span{Start: 0, End: 2},
		span.ModifiedSpan{Length: 1, ReplacedSpans: []span.Span{{Start: 2, End: 5}}},
	}
	seg, err := NewSegment("norm", spans, "ab ", nil)
	require.NoError(t, err)
	assert.Len(t, seg.Spans(), 2)
}

func TestSegment_AttrsNeverShared(t *testing.T) {
	a, err := NewSegment("x", catSpans(), "cat", nil)
	require.NoError(t, err)
	b, err := NewSegment("x", catSpans(), "cat", nil)
	require.NoError(t, err)

	attr, err := NewAttribute("negation", false, nil)
	require.NoError(t, err)
	a.AddAttr(attr)

	assert.Len(t, a.Attrs(), 1)
	assert.Empty(t, b.Attrs())
}

func TestSegment_Snippet(t *testing.T) {
	doc := "The cat sat."
	seg, err := NewSegment("word", catSpans(), "cat", nil)
	require.NoError(t, err)

	assert.Equal(t, "e cat s", seg.Snippet(doc, 4))
	assert.Equal(t, doc, seg.Snippet(doc, 100), "budget clips to document bounds")
}

func TestSegment_SnippetReallocatesBudgetAtEdges(t *testing.T) {
	doc := "The cat sat."

	head, err := NewSegment("word", []span.AnySpan{span.Span{Start: 0, End: 3}}, "The", nil)
	require.NoError(t, err)
	assert.Equal(t, "The cat s", head.Snippet(doc, 6), "unused budget before moves after")

	tail, err := NewSegment("word", []span.AnySpan{span.Span{Start: 8, End: 11}}, "sat", nil)
	require.NoError(t, err)
	assert.Equal(t, " cat sat.", tail.Snippet(doc, 6), "unused budget after moves before")
}

func TestSegment_RoundTrip(t *testing.T) {
	attr, err := NewAttribute("negation", true, nil)
	require.NoError(t, err)
	seg, err := NewSegment("word", catSpans(), "cat", &Opts{
		Attrs:    []*Attribute{attr},
		Metadata: map[string]any{"source": "test"},
	})
	require.NoError(t, err)

	got, err := FromDict(seg.ToDict())
	require.NoError(t, err)

	gotSeg, ok := got.(*Segment)
	require.True(t, ok, "class identity must survive the round trip")
	assert.Equal(t, seg.UID(), gotSeg.UID())
	assert.Equal(t, seg.Label(), gotSeg.Label())
	assert.Equal(t, seg.Text(), gotSeg.Text())
	assert.Equal(t, seg.Spans(), gotSeg.Spans())
	assert.Equal(t, seg.Metadata(), gotSeg.Metadata())
	require.Len(t, gotSeg.Attrs(), 1)
	assert.Equal(t, attr.UID(), gotSeg.Attrs()[0].UID())
	assert.Equal(t, attr.Value(), gotSeg.Attrs()[0].Value())
}

func TestEntity_RoundTripKeepsClassIdentity(t *testing.T) {
	ent, err := NewEntity("disease", catSpans(), "cat", nil)
	require.NoError(t, err)

	got, err := FromDict(ent.ToDict())
	require.NoError(t, err)

	gotEnt, ok := got.(*Entity)
	require.True(t, ok)
	assert.Equal(t, ent.UID(), gotEnt.UID())
	assert.Equal(t, "disease", gotEnt.Label())
}

func TestRelation_ConstructionDoesNotResolveEndpoints(t *testing.T) {
	// Endpoints may not exist yet when relations are built out of order;
	// resolution only happens through the container.
	rel, err := NewRelation("caused_by", "uid-never-added", "uid-also-missing", nil)
	require.NoError(t, err)
	assert.Equal(t, "uid-never-added", rel.SourceID())
	assert.Equal(t, "uid-also-missing", rel.TargetID())

	_, err = NewRelation("caused_by", "", "x", nil)
	assert.Error(t, err)
}

func TestRelation_RoundTrip(t *testing.T) {
	rel, err := NewRelation("caused_by", "src-1", "tgt-2", nil)
	require.NoError(t, err)

	got, err := FromDict(rel.ToDict())
	require.NoError(t, err)

	gotRel, ok := got.(*Relation)
	require.True(t, ok)
	assert.Equal(t, rel.UID(), gotRel.UID())
	assert.Equal(t, "src-1", gotRel.SourceID())
	assert.Equal(t, "tgt-2", gotRel.TargetID())
}

func TestFromDict_UnknownClassDegradesToBaseShape(t *testing.T) {
	seg, err := NewSegment("word", catSpans(), "cat", nil)
	require.NoError(t, err)

	data := seg.ToDict()
	data["class_name"] = "FancyNewSegmentKind"

	got, err := FromDict(data)
	require.NoError(t, err)
	_, ok := got.(*Segment)
	assert.True(t, ok, "unknown segment-shaped dicts load as plain segments")

	rel, err := NewRelation("x", "a", "b", nil)
	require.NoError(t, err)
	relData := rel.ToDict()
	relData["class_name"] = "FancyNewRelationKind"

	got, err = FromDict(relData)
	require.NoError(t, err)
	_, ok = got.(*Relation)
	assert.True(t, ok)
}

func TestFromDict_RegisteredExternalClass(t *testing.T) {
	RegisterAnnotationClass("SectionHeading", func(data map[string]any) (Annotation, error) {
		seg, err := segmentFromDict(data)
		if err != nil {
			return nil, err
		}
		seg.Metadata()["decoded_by"] = "SectionHeading"
		return seg, nil
	})

	seg, err := NewSegment("heading", catSpans(), "cat", nil)
	require.NoError(t, err)
	data := seg.ToDict()
	data["class_name"] = "SectionHeading"

	got, err := FromDict(data)
	require.NoError(t, err)
	assert.Equal(t, "SectionHeading", got.Metadata()["decoded_by"])
}

func TestFromDict_UndecodableDict(t *testing.T) {
	_, err := FromDict(map[string]any{"class_name": "Mystery", "label": "x"})
	assert.Error(t, err)
}

func TestSegment_RoundTripThroughJSON(t *testing.T) {
	seg, err := NewSegment("word", catSpans(), "cat", nil)
	require.NoError(t, err)

	raw, err := json.Marshal(seg.ToDict())
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))

	got, err := FromDict(data)
	require.NoError(t, err)
	gotSeg := got.(*Segment)
	assert.Equal(t, seg.UID(), gotSeg.UID())
	assert.Equal(t, seg.Spans(), gotSeg.Spans())
	assert.Equal(t, seg.Text(), gotSeg.Text())
}
