package postgres

import (
	"context"
	"database/sql"
	"errors"

	ledger "parcelops/internal/ledger/domain"
)

// TransactionRepository persists explicit wallet ledger entries.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository constructs a repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, party_id, amount, currency, kind, status, occurred_at, description`

// ListByParty returns all ledger entries for one party with their related
// item references, ordered by occurrence.
func (r *TransactionRepository) ListByParty(ctx context.Context, partyID string) ([]ledger.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+transactionColumns+`
FROM wallet_transactions
WHERE party_id = $1
ORDER BY occurred_at ASC, id ASC`, partyID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListAll returns every ledger entry, ordered by occurrence.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]ledger.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+transactionColumns+`
FROM wallet_transactions
ORDER BY occurred_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r *TransactionRepository) collect(ctx context.Context, rows *sql.Rows) ([]ledger.Transaction, error) {
	defer rows.Close()

	var result []ledger.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var tx ledger.Transaction
		var description sql.NullString
		if err := rows.Scan(&tx.ID, &tx.PartyID, &tx.Amount, &tx.Currency, &tx.Kind, &tx.Status, &tx.Timestamp, &description); err != nil {
			return nil, err
		}
		if description.Valid {
			tx.Description = description.String
		}
		tx.Timestamp = tx.Timestamp.UTC()
		index[tx.ID] = len(result)
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
SELECT transaction_id, booking_id, item_id
FROM wallet_transaction_items
ORDER BY transaction_id, booking_id, item_id`)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var txID string
		var ref ledger.ItemRef
		if err := itemRows.Scan(&txID, &ref.BookingID, &ref.ItemID); err != nil {
			return nil, err
		}
		if i, ok := index[txID]; ok {
			result[i].RelatedItems = append(result[i].RelatedItems, ref)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Append inserts a ledger entry and its related item references in one
// transaction.
func (r *TransactionRepository) Append(ctx context.Context, entry ledger.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("transaction repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
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
