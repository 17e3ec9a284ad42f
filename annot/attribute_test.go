package annot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttribute_GeneratesUID(t *testing.T) {
	attr, err := NewAttribute("negation", true, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, attr.UID())
	assert.Equal(t, "negation", attr.Label())
	assert.Equal(t, true, attr.Value())
	assert.NotNil(t, attr.Metadata())
}

func TestNewAttribute_RequiresLabel(t *testing.T) {
	_, err := NewAttribute("", true, nil)
	assert.Error(t, err)
}

func TestNewAttribute_NormalizesValue(t *testing.T) {
	attr, err := NewAttribute("score", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(3), attr.Value())

	attr, err = NewAttribute("codes", []string{"C34", "C78"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"C34", "C78"}, attr.Value())

	attr, err = NewAttribute("detail", map[string]int{"count": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(2)}, attr.Value())
}

func TestNewAttribute_RejectsUnsupportedValue(t *testing.T) {
	_, err := NewAttribute("bad", struct{ X int }{1}, nil)
	assert.Error(t, err)

	_, err = NewAttribute("bad", map[int]string{1: "x"}, nil)
	assert.Error(t, err)
}

func TestAttribute_CopyGetsFreshUID(t *testing.T) {
	attr, err := NewAttribute("negation", true, &AttributeOpts{
		Metadata: map[string]any{"rule_id": "id_neg_no"},
	})
	require.NoError(t, err)

	dup := attr.Copy()
	assert.NotEqual(t, attr.UID(), dup.UID())
	assert.Equal(t, attr.Label(), dup.Label())
	assert.Equal(t, attr.Value(), dup.Value())
	assert.Equal(t, attr.Metadata(), dup.Metadata())

	// The copy owns its metadata.
	dup.Metadata()["rule_id"] = "other"
	assert.Equal(t, "id_neg_no", attr.Metadata()["rule_id"])
}

func TestAttribute_RoundTrip(t *testing.T) {
	attr, err := NewAttribute("dosage", map[string]any{"amount": 2.5, "unit": "mg"}, &AttributeOpts{
		Metadata: map[string]any{"source": "regex"},
	})
	require.NoError(t, err)

	got, err := AttributeFromDict(attr.ToDict())
	require.NoError(t, err)
	assert.Equal(t, attr.UID(), got.UID())
	assert.Equal(t, attr.Label(), got.Label())
	assert.Equal(t, attr.Value(), got.Value())
	assert.Equal(t, attr.Metadata(), got.Metadata())
}

func TestAttribute_RoundTripThroughJSON(t *testing.T) {
	attr, err := NewAttribute("score", 7, nil)
	require.NoError(t, err)

	raw, err := json.Marshal(attr.ToDict())
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))

	got, err := AttributeFromDict(data)
	require.NoError(t, err)
	assert.Equal(t, attr.Value(), got.Value())
	assert.Equal(t, attr.UID(), got.UID())
}
