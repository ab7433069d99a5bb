package engine

import "errors"

// Error kinds surfaced by the engine. All are local, recoverable conditions;
// callers match them with errors.Is.
var (
	// ErrInvalidGrid reports bad grid dimensions or state.
	ErrInvalidGrid = errors.New("invalid grid")
	// ErrOutOfBounds reports an index outside the grid. Out-of-range
	// coordinates are rejected, never wrapped.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrInvalidEvent reports malformed event parameters.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrConcurrentStep reports a reentrant Step call.
	ErrConcurrentStep = errors.New("concurrent step")
)
