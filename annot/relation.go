package annot

import "fmt"

// Relation is a labeled, directed link between two annotations of the same
// document. Endpoints are plain uid lookup keys, not owning references:
// they are resolved through the container at query time, never at
// construction, because relations may be built before their endpoints are
// added.
type Relation struct {
	base
	sourceID string
	targetID string
}

// NewRelation creates a relation from sourceID to targetID. Endpoint
// existence is deliberately not checked here.
func NewRelation(label, sourceID, targetID string, opts *Opts) (*Relation, error) {
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("relation %q: source and target ids are required", label)
	}
	b, err := newBase(label, opts)
	if err != nil {
		return nil, err
	}
	return &Relation{base: b, sourceID: sourceID, targetID: targetID}, nil
}

// SourceID returns the uid of the annotation the relation starts from.
func (r *Relation) SourceID() string { return r.sourceID }

// TargetID returns the uid of the annotation the relation points to.
func (r *Relation) TargetID() string { return r.targetID }

// ToDict returns the generic serialized form of the relation.
func (r *Relation) ToDict() map[string]any {
	data := r.baseDict(ClassRelation)
	data["source_id"] = r.sourceID
	data["target_id"] = r.targetID
	return data
}
