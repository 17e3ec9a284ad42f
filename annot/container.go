package annot

import "fmt"

// Container indexes the annotations of one document: a uid lookup plus a
// label index preserving insertion order. The document's raw segment is
// injected at construction, is visible through normal lookups, and cannot
// be removed through the public surface available to pipeline code.
type Container struct {
	raw     *Segment
	byUID   map[string]Annotation
	byLabel map[string][]string
	order   []string
}

// NewContainer creates a container seeded with the document's raw segment.
func NewContainer(raw *Segment) *Container {
	c := &Container{
		raw:     raw,
		byUID:   make(map[string]Annotation),
		byLabel: make(map[string][]string),
	}
	c.insert(raw)
	return c
}

// Add inserts an annotation. Adding a uid already present fails with
// ErrDuplicateID: overwriting would silently corrupt provenance.
func (c *Container) Add(ann Annotation) error {
	if _, exists := c.byUID[ann.UID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, ann.UID())
	}
	c.insert(ann)
	return nil
}

func (c *Container) insert(ann Annotation) {
	uid := ann.UID()
	c.byUID[uid] = ann
	c.byLabel[ann.Label()] = append(c.byLabel[ann.Label()], uid)
	c.order = append(c.order, uid)
}

// Get returns the annotations carrying label, in insertion order.
func (c *Container) Get(label string) []Annotation {
	uids := c.byLabel[label]
	anns := make([]Annotation, 0, len(uids))
	for _, uid := range uids {
		anns = append(anns, c.byUID[uid])
	}
	return anns
}

// GetByID returns the single annotation with the given uid, or ErrNotFound.
func (c *Container) GetByID(uid string) (Annotation, error) {
	ann, ok := c.byUID[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return ann, nil
}

// All returns every annotation in insertion order, raw segment included.
func (c *Container) All() []Annotation {
	anns := make([]Annotation, 0, len(c.order))
	for _, uid := range c.order {
		anns = append(anns, c.byUID[uid])
	}
	return anns
}

// Remove deletes the annotation with the given uid. The raw segment
// cannot be removed.
func (c *Container) Remove(uid string) error {
	if uid == c.raw.UID() {
		return fmt.Errorf("raw segment %s cannot be removed", uid)
	}
	ann, ok := c.byUID[uid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, uid)
	}

	delete(c.byUID, uid)
	c.byLabel[ann.Label()] = removeUID(c.byLabel[ann.Label()], uid)
	if len(c.byLabel[ann.Label()]) == 0 {
		delete(c.byLabel, ann.Label())
	}
	c.order = removeUID(c.order, uid)
	return nil
}

// Len returns the number of annotations, raw segment included.
func (c *Container) Len() int { return len(c.order) }

// RawSegment returns the document's raw segment.
func (c *Container) RawSegment() *Segment { return c.raw }

func removeUID(uids []string, uid string) []string {
	for i, u := range uids {
		if u == uid {
			return append(uids[:i], uids[i+1:]...)
		}
	}
	return uids
}
