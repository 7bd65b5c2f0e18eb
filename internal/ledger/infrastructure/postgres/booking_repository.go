package postgres

import (
	"context"
	"database/sql"
	"errors"

	ledger "parcelops/internal/ledger/domain"
)

// BookingRepository reads bookings with their delivery items.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository constructs a repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListBookings returns every booking with its nested delivery items,
// ordered by booking then item id.
func (r *BookingRepository) ListBookings(ctx context.Context) ([]ledger.Booking, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, counterpart_id, counterpart_phone, status, updated_at
FROM bookings
ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Booking
	index := make(map[string]int)
	for rows.Next() {
		var b ledger.Booking
		var counterpartID sql.NullString
		var phone sql.NullString
		if err := rows.Scan(&b.ID, &counterpartID, &phone, &b.Status, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if counterpartID.Valid {
			b.CounterpartID = counterpartID.String
		}
		if phone.Valid {
			b.CounterpartPhone = phone.String
		}
		b.UpdatedAt = b.UpdatedAt.UTC()
		index[b.ID] = len(result)
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
SELECT booking_id, item_id, status, cod_amount, cod_currency,
	delivery_fee, delivery_fee_currency, taxi_fee, taxi_fee_currency,
	settlement_status, delivered_at
FROM delivery_items
ORDER BY booking_id ASC, item_id ASC`)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var bookingID string
		var item ledger.DeliveryItem
		var taxiCurrency sql.NullString
		var deliveredAt sql.NullTime
		if err := itemRows.Scan(&bookingID, &item.ItemID, &item.Status, &item.CODAmount, &item.CODCurrency,
			&item.DeliveryFee, &item.DeliveryFeeCurrency, &item.TaxiFee, &taxiCurrency,
			&item.SettlementStatus, &deliveredAt); err != nil {
			return nil, err
		}
		if taxiCurrency.Valid {
			item.TaxiFeeCurrency = ledger.Currency(taxiCurrency.String)
		}
		if deliveredAt.Valid {
			item.DeliveredAt = deliveredAt.Time.UTC()
		}
		if i, ok := index[bookingID]; ok {
			result[i].Items = append(result[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
