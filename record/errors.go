package record

import "errors"

var (
	// ErrInvalidField is returned by SetField for an unknown field key or a
	// value outside the field's allowed set.
	ErrInvalidField = errors.New("invalid record field")

	// ErrStepNotFound is returned by UpdateStep when no step has the given id.
	ErrStepNotFound = errors.New("step not found")

	// ErrInvalidDocument is returned by Replace when the incoming document
	// violates the model invariants. The prior document is kept.
	ErrInvalidDocument = errors.New("invalid record document")

	// ErrMalformedDocument is returned by Decode when the payload is not a
	// structurally valid record. Nothing is applied.
	ErrMalformedDocument = errors.New("malformed record payload")
)
