package ledger

import (
	"context"
	"time"
)

// Clock provides time for domain services.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now() }

// TransactionStore reads explicit ledger entries.
type TransactionStore interface {
	ListByParty(ctx context.Context, partyID string) ([]Transaction, error)
	ListAll(ctx context.Context) ([]Transaction, error)
}

// TransactionWriter appends ledger entries. Used by the cashback
// redemption path, never by replay.
type TransactionWriter interface {
	Append(ctx context.Context, tx Transaction) error
}

// BookingStore reads bookings with their nested delivery items.
type BookingStore interface {
	ListBookings(ctx context.Context) ([]Booking, error)
}

// SettlementCommitter retires the entry's related items and records the
// SETTLEMENT entry itself in one unit of work. Each item flip is
// conditional on the current status being UNSETTLED; a concurrent commit
// that already settled any referenced item makes the whole call fail with
// ErrAlreadySettled. A failure anywhere leaves both the items and the
// ledger untouched, so the caller can retry the same request.
type SettlementCommitter interface {
	CommitSettlement(ctx context.Context, entry Transaction) error
}
