package ledger

import "time"

// BookingStatus is the workflow state of a booking as supplied by the
// booking store. The engine only cares about cancellation and the
// fee-triggering states.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// ItemStatus is the delivery state of a single parcel item.
type ItemStatus string

const (
	ItemPending   ItemStatus = "PENDING"
	ItemDelivered ItemStatus = "DELIVERED"
	ItemReturned  ItemStatus = "RETURNED"
)

// SettlementStatus marks whether an item has been paid out. The
// transition UNSETTLED -> SETTLED is one-way and happens exactly once.
type SettlementStatus string

const (
	Unsettled SettlementStatus = "UNSETTLED"
	Settled   SettlementStatus = "SETTLED"
)

// DeliveryItem is one parcel inside a booking carrying the implicit
// financial event: COD collected, delivery fee owed, and an optional
// third-party transport fee. Each fee carries its own currency and the
// currencies are never summed across each other.
type DeliveryItem struct {
	ItemID              string
	Status              ItemStatus
	CODAmount           float64
	CODCurrency         Currency
	DeliveryFee         float64
	DeliveryFeeCurrency Currency
	TaxiFee             float64
	TaxiFeeCurrency     Currency
	SettlementStatus    SettlementStatus
	DeliveredAt         time.Time
}

// Live reports whether the item still participates in replay: delivered
// and not yet settled.
func (i DeliveryItem) Live() bool {
	return i.Status == ItemDelivered && i.SettlementStatus != Settled
}

// Booking is a parcel booking with its delivery items and the counterpart
// linkage used for wallet attribution (stable id, phone fallback).
type Booking struct {
	ID               string
	CounterpartID    string
	CounterpartPhone string
	Status           BookingStatus
	Items            []DeliveryItem
	UpdatedAt        time.Time
}

// FeeTriggered reports whether fees apply to the booking's items: the
// booking is not cancelled and has at least one delivered item, or has
// itself reached a completed/confirmed state.
func (b Booking) FeeTriggered() bool {
	if b.Status == BookingCancelled {
		return false
	}
	if b.Status == BookingCompleted || b.Status == BookingConfirmed {
		return true
	}
	for _, item := range b.Items {
		if item.Status == ItemDelivered {
			return true
		}
	}
	return false
}
