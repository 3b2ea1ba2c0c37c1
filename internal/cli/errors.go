package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrRedisUnavailable indicates the configured Redis lock server could not be reached.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
