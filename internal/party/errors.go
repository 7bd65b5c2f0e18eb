package party

import "errors"

var (
	// ErrNilRepository is returned when a resolver is built without a repository.
	ErrNilRepository = errors.New("party: nil repository")
	// ErrPartyNotFound is returned when a party lookup misses.
	ErrPartyNotFound = errors.New("party: not found")
	// ErrUnlinked is returned when a wallet action needs a linked login
	// identity to credit and the party has none.
	ErrUnlinked = errors.New("party: no linked login identity")
)
