package cascade

import "errors"

var (
	// ErrRootNotFound is returned when the cascade root does not exist, deleted or not.
	ErrRootNotFound = errors.New("cascade: root not found")
	// ErrTransient wraps storage failures. The whole transaction has been rolled
	// back and the cascade may be retried.
	ErrTransient = errors.New("cascade: transient storage failure")
	// ErrInvariantViolation signals a defect in the ownership graph or the data:
	// an entity kind is unreachable, or live rows still reference a deleted root.
	ErrInvariantViolation = errors.New("cascade: ownership invariant violated")
	// ErrLockUnavailable is returned when the per-root lock cannot be taken
	// before the context ends.
	ErrLockUnavailable = errors.New("cascade: root lock unavailable")
)
