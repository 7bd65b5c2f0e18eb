package ledger

import "time"

// Balance holds per-currency wallet totals. The two components are
// accumulated independently; there is no exchange between them.
type Balance struct {
	USD float64
	KHR float64
}

// Add accumulates an amount into the component matching the currency.
func (b *Balance) Add(currency Currency, amount float64) error {
	switch currency {
	case USD:
		b.USD += amount
	case KHR:
		b.KHR += amount
	default:
		return ErrUnknownCurrency
	}
	return nil
}

// Component returns the balance component for a currency.
func (b Balance) Component(currency Currency) (float64, error) {
	switch currency {
	case USD:
		return b.USD, nil
	case KHR:
		return b.KHR, nil
	default:
		return 0, ErrUnknownCurrency
	}
}

// Snapshot is the result of one replay pass. Version is the maximum event
// timestamp observed; a later event invalidates the snapshot for commits.
type Snapshot struct {
	PartyID string
	Balance Balance
	Version time.Time
	TakenAt time.Time
}
