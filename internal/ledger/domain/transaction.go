package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// TransactionKind classifies an explicit wallet ledger entry.
type TransactionKind string

const (
	KindDeposit    TransactionKind = "DEPOSIT"
	KindWithdrawal TransactionKind = "WITHDRAWAL"
	KindEarning    TransactionKind = "EARNING"
	KindRefund     TransactionKind = "REFUND"
	KindSettlement TransactionKind = "SETTLEMENT"
	KindCashback   TransactionKind = "CASHBACK"
)

// TransactionStatus is the approval state of a ledger entry.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusRejected TransactionStatus = "REJECTED"
	StatusFailed   TransactionStatus = "FAILED"
)

// ItemRef identifies a delivery item inside a booking.
type ItemRef struct {
	BookingID string
	ItemID    string
}

// Transaction is an explicit wallet ledger entry. Amount is stored as a
// positive magnitude; the kind determines the sign applied at replay.
type Transaction struct {
	ID           string
	PartyID      string
	Amount       float64
	Currency     Currency
	Kind         TransactionKind
	Status       TransactionStatus
	Timestamp    time.Time
	RelatedItems []ItemRef
	Description  string
}

// NewTransactionID generates a random transaction identifier.
func NewTransactionID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return "txn-" + hex.EncodeToString(buf[:])
}

// CountsTowardBalance reports whether the entry affects replayed balance.
// Terminal negative states are excluded.
func (t Transaction) CountsTowardBalance() bool {
	return t.Status != StatusRejected && t.Status != StatusFailed
}

// ItemBacked reports whether the settlement retires delivery items. The
// balance effect of an item-backed settlement is the retirement of its
// items from replay; folding its debit as well would pay the same items
// out twice.
func (t Transaction) ItemBacked() bool {
	return t.Kind == KindSettlement && len(t.RelatedItems) > 0
}

// SignedAmount applies the sign convention: deposits, earnings, refunds
// and cashback credit the wallet; settlements and withdrawals debit it.
func (t Transaction) SignedAmount() float64 {
	switch t.Kind {
	case KindSettlement, KindWithdrawal:
		return -t.Amount
	default:
		return t.Amount
	}
}
