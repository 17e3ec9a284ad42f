package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestDeterministic_SameSeedSameID(t *testing.T) {
	a := Deterministic("doc-1234")
	b := Deterministic("doc-1234")
	assert.Equal(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestDeterministic_DifferentSeeds(t *testing.T) {
	assert.NotEqual(t, Deterministic("doc-1"), Deterministic("doc-2"))
}

func TestDeterministic_ValidUUIDv4(t *testing.T) {
	u, err := uuid.Parse(Deterministic("any-seed"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), u.Version())
	assert.Equal(t, uuid.RFC4122, u.Variant())
}
