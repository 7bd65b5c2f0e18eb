package postgres

import (
	"context"
	"database/sql"
	"errors"

	"parcelops/internal/party"
)

// PartyRepository reads party identities.
type PartyRepository struct {
	db *sql.DB
}

// NewPartyRepository constructs a repository.
func NewPartyRepository(db *sql.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

// List returns every party.
func (r *PartyRepository) List(ctx context.Context) ([]party.Party, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("party repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, phone, login_id, gross_payout
FROM parties
ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []party.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns one party or nil when absent.
func (r *PartyRepository) GetByID(ctx context.Context, id string) (*party.Party, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("party repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, phone, login_id, gross_payout
FROM parties
WHERE id = $1
LIMIT 1`, id)
	p, err := scanParty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParty(row rowScanner) (party.Party, error) {
	var p party.Party
	var phone sql.NullString
	var loginID sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &phone, &loginID, &p.GrossPayout); err != nil {
		return party.Party{}, err
	}
	if phone.Valid {
		p.Phone = phone.String
	}
	if loginID.Valid {
		p.LoginID = loginID.String
	}
	return p, nil
}
