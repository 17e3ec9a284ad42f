// Package annot holds the text annotation data model: attributes, the
// Segment/Entity/Relation hierarchy, the per-document annotation container
// and the polymorphic serialization registry.
//
// Annotations are created once, added to exactly one document's container
// and never moved between documents. After construction only two mutations
// are allowed: appending attributes and updating metadata.
package annot

import (
	"fmt"

	"github.com/c360studio/medtext/ident"
)

// Annotation is implemented by all text annotation variants: Segment,
// Entity and Relation, plus any externally registered kind.
type Annotation interface {
	// UID is the stable identity of the annotation for its whole life.
	UID() string

	// Label classifies the annotation (e.g. "sentence", "disease").
	Label() string

	// Attrs returns the annotation's attributes in append order. The
	// returned slice is owned by the annotation.
	Attrs() []*Attribute

	// AddAttr appends an attribute.
	AddAttr(a *Attribute)

	// Metadata returns the annotation metadata map.
	Metadata() map[string]any

	// ToDict returns the generic serialized form, including the class name
	// used by FromDict to reconstruct the right variant.
	ToDict() map[string]any
}

// Opts holds the optional construction fields shared by all annotation
// variants.
type Opts struct {
	// UID identifies the annotation. Generated when empty.
	UID string

	// Attrs are initial attributes. The annotation keeps its own slice.
	Attrs []*Attribute

	// Metadata is free-form bookkeeping attached to the annotation.
	Metadata map[string]any
}

// base carries the fields common to every annotation variant.
type base struct {
	uid      string
	label    string
	attrs    []*Attribute
	metadata map[string]any
}

func newBase(label string, opts *Opts) (base, error) {
	if label == "" {
		return base{}, fmt.Errorf("annotation label is required")
	}
	if opts == nil {
		opts = &Opts{}
	}

	uid := opts.UID
	if uid == "" {
		uid = ident.New()
	}

	// Each annotation gets its own attrs slice, even when none are passed:
	// sharing the backing array between annotations would let one
	// annotation's AddAttr leak into another.
	attrs := make([]*Attribute, len(opts.Attrs))
	copy(attrs, opts.Attrs)

	metadata := opts.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return base{uid: uid, label: label, attrs: attrs, metadata: metadata}, nil
}

func (b *base) UID() string              { return b.uid }
func (b *base) Label() string            { return b.label }
func (b *base) Attrs() []*Attribute      { return b.attrs }
func (b *base) AddAttr(a *Attribute)     { b.attrs = append(b.attrs, a) }
func (b *base) Metadata() map[string]any { return b.metadata }

// baseDict returns the serialized form of the common fields.
func (b *base) baseDict(className string) map[string]any {
	attrs := make([]any, len(b.attrs))
	for i, a := range b.attrs {
		attrs[i] = a.ToDict()
	}
	return map[string]any{
		"class_name": className,
		"uid":        b.uid,
		"label":      b.label,
		"attrs":      attrs,
		"metadata":   b.metadata,
	}
}
