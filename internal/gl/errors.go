package gl

import "errors"

var (
	// ErrUnconfiguredRouting is returned when no account pair is configured
	// for an event kind and currency. The preview still renders with the
	// suspense label so the gap is visible.
	ErrUnconfiguredRouting = errors.New("gl: routing not configured")
	// ErrIncompleteRoute is returned when a configured route misses a kind
	// or an account.
	ErrIncompleteRoute = errors.New("gl: incomplete route")
)
