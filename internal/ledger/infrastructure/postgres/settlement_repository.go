package postgres

import (
	"context"
	"database/sql"
	"errors"

	ledger "parcelops/internal/ledger/domain"
)

// SettlementRepository finalizes a settlement commit: it retires the
// referenced delivery items and inserts the SETTLEMENT ledger entry in
// one database transaction, so the items can never be settled without
// the entry that accounts for them.
type SettlementRepository struct {
	db *sql.DB
}

// NewSettlementRepository constructs a repository.
func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// CommitSettlement flips entry.RelatedItems UNSETTLED -> SETTLED and
// appends the entry itself, all inside a single transaction. Each item
// update is conditional on the current status; an item that was settled
// by a concurrent commit fails the whole call with ErrAlreadySettled and
// nothing is written, leaving the request retryable.
func (r *SettlementRepository) CommitSettlement(ctx context.Context, entry ledger.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("settlement repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, ref := range entry.RelatedItems {
		res, err := tx.ExecContext(ctx, `
UPDATE delivery_items
SET settlement_status = 'SETTLED'
WHERE booking_id = $1 AND item_id = $2 AND settlement_status = 'UNSETTLED'`,
			ref.BookingID, ref.ItemID)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if affected == 0 {
			_ = tx.Rollback()
			return r.settleConflict(ctx, ref)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO wallet_transactions (
	id, party_id, amount, currency, kind, status, occurred_at, description
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		entry.ID, entry.PartyID, entry.Amount, entry.Currency, entry.Kind, entry.Status, entry.Timestamp, entry.Description)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, ref := range entry.RelatedItems {
		_, err := tx.ExecContext(ctx, `
INSERT INTO wallet_transaction_items (transaction_id, booking_id, item_id)
VALUES ($1,$2,$3)`, entry.ID, ref.BookingID, ref.ItemID)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// settleConflict classifies a failed conditional update: the item either
// does not exist or lost the race to a concurrent commit.
func (r *SettlementRepository) settleConflict(ctx context.Context, ref ledger.ItemRef) error {
	var status string
	err := r.db.QueryRowContext(ctx, `
SELECT settlement_status
FROM delivery_items
WHERE booking_id = $1 AND item_id = $2`, ref.BookingID, ref.ItemID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrItemNotFound
	}
	if err != nil {
		return err
	}
	return ledger.ErrAlreadySettled
}
