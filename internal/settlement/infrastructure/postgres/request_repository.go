package postgres

import (
	"context"
	"database/sql"
	"errors"

	ledger "parcelops/internal/ledger/domain"
	settlement "parcelops/internal/settlement/domain"
)

// RequestRepository persists settlement requests.
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository constructs a repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Save inserts a request and its item references in one transaction.
func (r *RequestRepository) Save(ctx context.Context, req settlement.Request) error {
	if r == nil || r.db == nil {
		return errors.New("request repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO settlement_requests (
	id, party_id, currency, net_amount, mode, description, status,
	snapshot_version, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		req.ID, req.PartyID, req.Currency, req.NetAmount, req.Mode, req.Description,
		req.Status, req.SnapshotVersion, req.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, ref := range req.Items {
		_, err := tx.ExecContext(ctx, `
INSERT INTO settlement_request_items (request_id, booking_id, item_id)
VALUES ($1,$2,$3)`, req.ID, ref.BookingID, ref.ItemID)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns a request with its item references, or nil when absent.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*settlement.Request, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("request repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, party_id, currency, net_amount, mode, description, status,
	snapshot_version, created_at
FROM settlement_requests
WHERE id = $1
LIMIT 1`, id)

	var req settlement.Request
	var description sql.NullString
	err := row.Scan(&req.ID, &req.PartyID, &req.Currency, &req.NetAmount, &req.Mode,
		&description, &req.Status, &req.SnapshotVersion, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if description.Valid {
		req.Description = description.String
	}
	req.SnapshotVersion = req.SnapshotVersion.UTC()
	req.CreatedAt = req.CreatedAt.UTC()

	items, err := r.listItems(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Items = items
	return &req, nil
}

// UpdateStatus sets the status of a request.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if r == nil || r.db == nil {
		return errors.New("request repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE settlement_requests
SET status = $1
WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return settlement.ErrRequestNotFound
	}
	return nil
}

// ListPending returns pending requests, oldest first.
func (r *RequestRepository) ListPending(ctx context.Context) ([]settlement.Request, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("request repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, party_id, currency, net_amount, mode, description, status,
	snapshot_version, created_at
FROM settlement_requests
WHERE status = $1
ORDER BY created_at ASC, id ASC`, settlement.RequestStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []settlement.Request
	for rows.Next() {
		var req settlement.Request
		var description sql.NullString
		if err := rows.Scan(&req.ID, &req.PartyID, &req.Currency, &req.NetAmount, &req.Mode,
			&description, &req.Status, &req.SnapshotVersion, &req.CreatedAt); err != nil {
			return nil, err
		}
		if description.Valid {
			req.Description = description.String
		}
		req.SnapshotVersion = req.SnapshotVersion.UTC()
		req.CreatedAt = req.CreatedAt.UTC()
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		items, err := r.listItems(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

func (r *RequestRepository) listItems(ctx context.Context, requestID string) ([]ledger.ItemRef, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT booking_id, item_id
FROM settlement_request_items
WHERE request_id = $1
ORDER BY booking_id ASC, item_id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ledger.ItemRef
	for rows.Next() {
		var ref ledger.ItemRef
		if err := rows.Scan(&ref.BookingID, &ref.ItemID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}
