package postgres

import (
	"context"
	"database/sql"
	"errors"

	aging "parcelops/internal/aging/domain"
)

// ReceivableRepository reads receivable documents for aging runs.
type ReceivableRepository struct {
	db *sql.DB
}

// NewReceivableRepository constructs a repository.
func NewReceivableRepository(db *sql.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

// ListOpen returns every receivable that is not PAID or VOID, with the
// party name joined in for report rows.
func (r *ReceivableRepository) ListOpen(ctx context.Context) ([]aging.Receivable, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("receivable repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT rc.id, rc.party_id, COALESCE(p.name, ''), rc.total, rc.paid,
	rc.currency, rc.exchange_rate, rc.due_date, rc.status
FROM receivables rc
LEFT JOIN parties p ON p.id = rc.party_id
WHERE rc.status NOT IN ('PAID', 'VOID')
ORDER BY rc.party_id ASC, rc.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []aging.Receivable
	for rows.Next() {
		var rc aging.Receivable
		var dueDate sql.NullTime
		if err := rows.Scan(&rc.ID, &rc.PartyID, &rc.PartyName, &rc.Total, &rc.Paid,
			&rc.Currency, &rc.ExchangeRate, &dueDate, &rc.Status); err != nil {
			return nil, err
		}
		if dueDate.Valid {
			rc.DueDate = dueDate.Time.UTC()
		}
		result = append(result, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
