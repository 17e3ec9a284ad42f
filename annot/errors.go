package annot

import "errors"

// Common annotation container errors.
var (
	// ErrDuplicateID is returned when adding an annotation whose uid is
	// already present in the container. Colliding uids are never silently
	// overwritten: doing so would corrupt provenance.
	ErrDuplicateID = errors.New("annotation uid already exists")

	// ErrNotFound is returned when no annotation matches the requested uid.
	ErrNotFound = errors.New("annotation not found")
)
