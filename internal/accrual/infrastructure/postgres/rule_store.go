package postgres

import (
	"context"
	"database/sql"
	"errors"

	accrual "parcelops/internal/accrual/domain"
)

// RuleStore reads accrual rules.
type RuleStore struct {
	db *sql.DB
}

// NewRuleStore constructs a store.
func NewRuleStore(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

// ListRules returns every configured rule.
func (s *RuleStore) ListRules(ctx context.Context) ([]accrual.Rule, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("rule store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, party_id, min_units_per_period, percent, active_from, active_to
FROM accrual_rules
ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []accrual.Rule
	for rows.Next() {
		var rule accrual.Rule
		var activeFrom sql.NullTime
		var activeTo sql.NullTime
		if err := rows.Scan(&rule.ID, &rule.PartyID, &rule.MinUnitsPerPeriod, &rule.Percent, &activeFrom, &activeTo); err != nil {
			return nil, err
		}
		if activeFrom.Valid {
			rule.ActiveFrom = activeFrom.Time.UTC()
		}
		if activeTo.Valid {
			rule.ActiveTo = activeTo.Time.UTC()
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
