package ledger

import "errors"

var (
	// ErrUnknownCurrency is returned when a currency tag is not USD or KHR.
	ErrUnknownCurrency = errors.New("ledger: unknown currency")
	// ErrNilStore is returned when an engine is built without its stores.
	ErrNilStore = errors.New("ledger: nil store")
	// ErrAlreadySettled is returned when a conditional settle hits an item
	// that was settled by a concurrent commit.
	ErrAlreadySettled = errors.New("ledger: item already settled")
	// ErrItemNotFound is returned when a settle references an unknown item.
	ErrItemNotFound = errors.New("ledger: item not found")
)
