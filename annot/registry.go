package annot

import (
	"fmt"
	"sync"
)

// Canonical class names embedded in serialized dicts.
const (
	ClassAttribute = "Attribute"
	ClassSegment   = "Segment"
	ClassEntity    = "Entity"
	ClassRelation  = "Relation"
)

// DecodeFunc reconstructs an annotation from its generic serialized form.
type DecodeFunc func(map[string]any) (Annotation, error)

// AttributeDecodeFunc reconstructs an attribute from its serialized form.
type AttributeDecodeFunc func(map[string]any) (*Attribute, error)

var registry = struct {
	mu          sync.RWMutex
	annotations map[string]DecodeFunc
	attributes  map[string]AttributeDecodeFunc
}{
	annotations: make(map[string]DecodeFunc),
	attributes:  make(map[string]AttributeDecodeFunc),
}

func init() {
	RegisterAnnotationClass(ClassSegment, func(data map[string]any) (Annotation, error) { return segmentFromDict(data) })
	RegisterAnnotationClass(ClassEntity, func(data map[string]any) (Annotation, error) { return entityFromDict(data) })
	RegisterAnnotationClass(ClassRelation, func(data map[string]any) (Annotation, error) { return relationFromDict(data) })
	RegisterAttributeClass(ClassAttribute, attributeFromDict)
}

// RegisterAnnotationClass registers a decoder for a class name, letting
// annotation kinds declared outside this package round-trip through
// FromDict. Call it from an init function or a startup routine so that
// registration happens before the first lookup.
func RegisterAnnotationClass(className string, fn DecodeFunc) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.annotations[className] = fn
}

// RegisterAttributeClass registers an attribute decoder for a class name.
func RegisterAttributeClass(className string, fn AttributeDecodeFunc) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.attributes[className] = fn
}

// FromDict reconstructs whichever annotation variant produced data, looked
// up by the embedded class name. An unrecognized class name is not fatal:
// the dict degrades to the base variant its fields describe (spans make a
// segment, endpoint ids make a relation), so older readers can still load
// newer minor variants.
func FromDict(data map[string]any) (Annotation, error) {
	className := dictString(data, "class_name")

	registry.mu.RLock()
	fn, ok := registry.annotations[className]
	registry.mu.RUnlock()
	if ok {
		return fn(data)
	}

	if _, hasSource := data["source_id"]; hasSource {
		return relationFromDict(data)
	}
	if _, hasSpans := data["spans"]; hasSpans {
		return segmentFromDict(data)
	}
	return nil, fmt.Errorf("cannot decode annotation of class %q", className)
}

// AttributeFromDict reconstructs an attribute, dispatching to a registered
// subclass decoder when the class name matches one, and degrading to the
// base attribute otherwise.
func AttributeFromDict(data map[string]any) (*Attribute, error) {
	className := dictString(data, "class_name")

	registry.mu.RLock()
	fn, ok := registry.attributes[className]
	registry.mu.RUnlock()
	if ok {
		return fn(data)
	}
	return attributeFromDict(data)
}

func attributeFromDict(data map[string]any) (*Attribute, error) {
	label := dictString(data, "label")
	return NewAttribute(label, data["value"], &AttributeOpts{
		UID:      dictString(data, "uid"),
		Metadata: dictMetadata(data),
	})
}

func segmentFromDict(data map[string]any) (*Segment, error) {
	spans, err := dictSpans(data)
	if err != nil {
		return nil, err
	}
	opts, err := dictOpts(data)
	if err != nil {
		return nil, err
	}
	return NewSegment(dictString(data, "label"), spans, dictString(data, "text"), opts)
}

func entityFromDict(data map[string]any) (*Entity, error) {
	spans, err := dictSpans(data)
	if err != nil {
		return nil, err
	}
	opts, err := dictOpts(data)
	if err != nil {
		return nil, err
	}
	return NewEntity(dictString(data, "label"), spans, dictString(data, "text"), opts)
}

func relationFromDict(data map[string]any) (*Relation, error) {
	opts, err := dictOpts(data)
	if err != nil {
		return nil, err
	}
	return NewRelation(
		dictString(data, "label"),
		dictString(data, "source_id"),
		dictString(data, "target_id"),
		opts,
	)
}
