package lock

import "errors"

// Sentinel errors for lock operations.
var (
	// ErrNotAcquired indicates the lock could not be taken before the context ended.
	ErrNotAcquired = errors.New("lock not acquired")

	// ErrNotHeld indicates a release found the lock expired or owned by someone else.
	ErrNotHeld = errors.New("lock not held")
)
