package annot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/medtext/span"
)

func rawSegment(t *testing.T) *Segment {
	t.Helper()
	seg, err := NewSegment("RAW_TEXT", []span.AnySpan{span.Span{Start: 0, End: 12}}, "The cat sat.", nil)
	require.NoError(t, err)
	return seg
}

func TestContainer_RawSegmentAlwaysPresent(t *testing.T) {
	raw := rawSegment(t)
	c := NewContainer(raw)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, raw, c.RawSegment())

	got := c.Get("RAW_TEXT")
	require.Len(t, got, 1)
	assert.Equal(t, raw.UID(), got[0].UID())
}

func TestContainer_AddAndGet(t *testing.T) {
	c := NewContainer(rawSegment(t))

	seg, err := NewSegment("X", []span.AnySpan{span.Span{Start: 4, End: 7}}, "cat", nil)
	require.NoError(t, err)
	require.NoError(t, c.Add(seg))

	byLabel := c.Get("X")
	require.Len(t, byLabel, 1)
	assert.Equal(t, seg, byLabel[0])

	byID, err := c.GetByID(seg.UID())
	require.NoError(t, err)
	assert.Equal(t, seg, byID)
}

func TestContainer_DuplicateID(t *testing.T) {
	c := NewContainer(rawSegment(t))

	a, err := NewSegment("X", []span.AnySpan{span.Span{Start: 4, End: 7}}, "cat", &Opts{UID: "fixed"})
	require.NoError(t, err)
	b, err := NewSegment("Y", []span.AnySpan{span.Span{Start: 8, End: 11}}, "sat", &Opts{UID: "fixed"})
	require.NoError(t, err)

	require.NoError(t, c.Add(a))
	err = c.Add(b)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 2, c.Len(), "failed add must not change the container")
}

func TestContainer_CountAfterNAdds(t *testing.T) {
	c := NewContainer(rawSegment(t))

	const n = 5
	for i := 0; i < n; i++ {
		seg, err := NewSegment("X", []span.AnySpan{span.Span{Start: 0, End: 3}}, "The", nil)
		require.NoError(t, err)
		require.NoError(t, c.Add(seg))
	}
	assert.Equal(t, n+1, c.Len(), "n annotations plus the raw segment")
}

func TestContainer_GetByID_NotFound(t *testing.T) {
	c := NewContainer(rawSegment(t))

	_, err := c.GetByID("never-added")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContainer_InsertionOrderPreserved(t *testing.T) {
	c := NewContainer(rawSegment(t))

	var uids []string
	for _, text := range []string{"The", "cat", "sat"} {
		var sp span.Span
		switch text {
		case "The":
			sp = span.Span{Start: 0, End: 3}
		case "cat":
			sp = span.Span{Start: 4, End: 7}
		case "sat":
			sp = span.Span{Start: 8, End: 11}
		}
		seg, err := NewSegment("token", []span.AnySpan{sp}, text, nil)
		require.NoError(t, err)
		require.NoError(t, c.Add(seg))
		uids = append(uids, seg.UID())
	}

	got := c.Get("token")
	require.Len(t, got, 3)
	for i, ann := range got {
		assert.Equal(t, uids[i], ann.UID())
	}

	all := c.All()
	require.Len(t, all, 4)
	assert.Equal(t, "RAW_TEXT", all[0].Label())
}

func TestContainer_RemoveProtectsRawSegment(t *testing.T) {
	raw := rawSegment(t)
	c := NewContainer(raw)

	err := c.Remove(raw.UID())
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestContainer_Remove(t *testing.T) {
	c := NewContainer(rawSegment(t))

	seg, err := NewSegment("X", []span.AnySpan{span.Span{Start: 4, End: 7}}, "cat", nil)
	require.NoError(t, err)
	require.NoError(t, c.Add(seg))

	require.NoError(t, c.Remove(seg.UID()))
	assert.Empty(t, c.Get("X"))
	_, err = c.GetByID(seg.UID())
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.Remove(seg.UID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContainer_RelationEndpointResolution(t *testing.T) {
	c := NewContainer(rawSegment(t))

	src, err := NewEntity("disease", []span.AnySpan{span.Span{Start: 4, End: 7}}, "cat", nil)
	require.NoError(t, err)
	tgt, err := NewEntity("finding", []span.AnySpan{span.Span{Start: 8, End: 11}}, "sat", nil)
	require.NoError(t, err)
	require.NoError(t, c.Add(src))
	require.NoError(t, c.Add(tgt))

	rel, err := NewRelation("related_to", src.UID(), tgt.UID(), nil)
	require.NoError(t, err)
	require.NoError(t, c.Add(rel))

	gotSrc, err := c.GetByID(rel.SourceID())
	require.NoError(t, err)
	assert.Equal(t, src.UID(), gotSrc.UID())
	gotTgt, err := c.GetByID(rel.TargetID())
	require.NoError(t, err)
	assert.Equal(t, tgt.UID(), gotTgt.UID())

	// A dangling endpoint only fails when resolution is attempted.
	dangling, err := NewRelation("related_to", src.UID(), "never-added", nil)
	require.NoError(t, err)
	require.NoError(t, c.Add(dangling))
	_, err = c.GetByID(dangling.TargetID())
	assert.ErrorIs(t, err, ErrNotFound)
}
