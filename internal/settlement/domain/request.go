package settlement

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	ledger "parcelops/internal/ledger/domain"
)

const (
	RequestStatusPending   = "PENDING"
	RequestStatusCommitted = "COMMITTED"
	RequestStatusDiscarded = "DISCARDED"
)

// Proposal is the deterministic output of a selection run: the payable
// amount, the item list sorted by (bookingID, itemID), and the snapshot
// version the selection was computed against.
type Proposal struct {
	PartyID         string
	Currency        ledger.Currency
	NetAmount       float64
	Items           []ledger.ItemRef
	Mode            Mode
	SnapshotVersion time.Time
}

// Request is a settlement proposal handed to the approval workflow. It is
// born PENDING; committing it writes a SETTLEMENT ledger transaction and
// flips the referenced items to SETTLED exactly once.
type Request struct {
	ID              string
	PartyID         string
	Currency        ledger.Currency
	NetAmount       float64
	Items           []ledger.ItemRef
	Mode            Mode
	Description     string
	Status          string
	SnapshotVersion time.Time
	CreatedAt       time.Time
}

// NewRequest wraps a proposal into a pending request.
func NewRequest(p Proposal, description string, now time.Time) Request {
	return Request{
		ID:              NewRequestID(),
		PartyID:         p.PartyID,
		Currency:        p.Currency,
		NetAmount:       p.NetAmount,
		Items:           p.Items,
		Mode:            p.Mode,
		Description:     description,
		Status:          RequestStatusPending,
		SnapshotVersion: p.SnapshotVersion,
		CreatedAt:       now,
	}
}

// NewRequestID generates a random request identifier.
func NewRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return "stl-" + hex.EncodeToString(buf[:])
}
