package annot

import (
	"fmt"

	"github.com/c360studio/medtext/ident"
)

// Attribute is a typed label/value pair attached to an annotation: a
// negation flag on a syntagma, a normalized code on an entity. Attributes
// have no lifecycle of their own outside their owning annotation.
type Attribute struct {
	uid      string
	label    string
	value    any
	metadata map[string]any
}

// AttributeOpts holds the optional fields of an attribute.
type AttributeOpts struct {
	// UID identifies the attribute. Generated when empty.
	UID string

	// Metadata is free-form bookkeeping (e.g. the id of the rule that
	// produced the value).
	Metadata map[string]any
}

// NewAttribute creates an attribute. value must be a simple scalar or a
// nested simple collection; it is normalized per NormalizeValue. References
// to other annotations do not belong in values; use a Relation.
func NewAttribute(label string, value any, opts *AttributeOpts) (*Attribute, error) {
	if label == "" {
		return nil, fmt.Errorf("attribute label is required")
	}
	if opts == nil {
		opts = &AttributeOpts{}
	}

	normalized, err := NormalizeValue(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", label, err)
	}

	uid := opts.UID
	if uid == "" {
		uid = ident.New()
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Attribute{uid: uid, label: label, value: normalized, metadata: metadata}, nil
}

// UID returns the attribute identifier.
func (a *Attribute) UID() string { return a.uid }

// Label returns the attribute label.
func (a *Attribute) Label() string { return a.label }

// Value returns the normalized attribute value.
func (a *Attribute) Value() any { return a.value }

// Metadata returns the attribute metadata map.
func (a *Attribute) Metadata() map[string]any { return a.metadata }

// Copy returns a duplicate of the attribute with a fresh uid. Use it when
// transplanting an attribute onto a different annotation: attributes are
// owned, never aliased between annotations.
func (a *Attribute) Copy() *Attribute {
	metadata := make(map[string]any, len(a.metadata))
	for k, v := range a.metadata {
		metadata[k] = v
	}
	return &Attribute{uid: ident.New(), label: a.label, value: a.value, metadata: metadata}
}

// ToDict returns the generic serialized form of the attribute.
func (a *Attribute) ToDict() map[string]any {
	return map[string]any{
		"class_name": ClassAttribute,
		"uid":        a.uid,
		"label":      a.label,
		"value":      a.value,
		"metadata":   a.metadata,
	}
}
