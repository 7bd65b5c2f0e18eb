package settlement

import "errors"

var (
	// ErrNothingToSettle is returned when the selected amount is below the
	// materiality threshold for the target currency. It is an explicit
	// no-op signal, never a silent zero.
	ErrNothingToSettle = errors.New("settlement: nothing to settle")
	// ErrStaleSnapshot is returned when a commit references a replay older
	// than the current event state. The caller must replay and re-propose.
	ErrStaleSnapshot = errors.New("settlement: stale snapshot")
	// ErrMixedCurrencyItem is returned when a single net figure is
	// requested for an item whose COD and fee currencies differ. The split
	// must be surfaced, never approximated.
	ErrMixedCurrencyItem = errors.New("settlement: mixed currency item")
	// ErrEmptyPartyID is returned when a selection has no party.
	ErrEmptyPartyID = errors.New("settlement: empty party id")
	// ErrRequestNotFound is returned when a commit references an unknown request.
	ErrRequestNotFound = errors.New("settlement: request not found")
	// ErrNotPending is returned when committing a request that already left
	// the pending state.
	ErrNotPending = errors.New("settlement: request not pending")
)
