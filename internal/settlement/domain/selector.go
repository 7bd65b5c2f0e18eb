package settlement

import (
	"time"

	ledger "parcelops/internal/ledger/domain"
)

// Mode is the payout mode. NET pays the fee-deducted amount; GROSS adds
// deducted fees back before payout.
type Mode string

const (
	ModeNet   Mode = "NET"
	ModeGross Mode = "GROSS"
)

// ResolveMode applies payout mode precedence: a profile-level gross flag
// set by an administrator is authoritative and cannot be disabled for a
// single session; a session flag can only narrow to NET when no admin
// flag is present.
func ResolveMode(adminGross bool, session Mode) Mode {
	if adminGross {
		return ModeGross
	}
	if session == ModeGross {
		return ModeGross
	}
	return ModeNet
}

// Materiality holds the per-currency minimum payable amount. Selections
// below the threshold resolve to ErrNothingToSettle.
type Materiality struct {
	USD float64
	KHR float64
}

// DefaultMateriality is one cent for USD and one riel for KHR.
func DefaultMateriality() Materiality {
	return Materiality{USD: 0.01, KHR: 1}
}

// Threshold returns the threshold for a currency.
func (m Materiality) Threshold(currency ledger.Currency) float64 {
	if currency == ledger.KHR {
		return m.KHR
	}
	return m.USD
}

// Selector partitions a party's live delivery items into a payable subset
// for one target currency and computes the payable amount. It is a pure
// function of the replay snapshot it is handed.
type Selector struct {
	materiality Materiality
}

// NewSelector constructs a selector.
func NewSelector(materiality Materiality) Selector {
	if materiality.USD <= 0 {
		materiality.USD = DefaultMateriality().USD
	}
	if materiality.KHR <= 0 {
		materiality.KHR = DefaultMateriality().KHR
	}
	return Selector{materiality: materiality}
}

// Eligible reports whether an item participates in a target-currency
// payout: its COD currency equals the target, or its taxi-fee currency
// does. This covers split-currency items where the COD and the transport
// surcharge live in different currencies.
func Eligible(li ledger.LiveItem, target ledger.Currency) bool {
	if li.Item.CODCurrency == target {
		return true
	}
	return li.Item.TaxiFee != 0 && li.Item.TaxiFeeCurrency == target
}

// Select picks the eligible items from a replay snapshot and computes the
// payable amount in the target currency. Items must already be sorted by
// (bookingID, itemID) as produced by replay; selection preserves that
// order so two runs over the same snapshot diff cleanly.
func (s Selector) Select(partyID string, items []ledger.LiveItem, version time.Time, target ledger.Currency, mode Mode) (Proposal, error) {
	if partyID == "" {
		return Proposal{}, ErrEmptyPartyID
	}
	if !target.Valid() {
		return Proposal{}, ledger.ErrUnknownCurrency
	}
	if mode == "" {
		mode = ModeNet
	}

	var selected []ledger.LiveItem
	for _, li := range items {
		if Eligible(li, target) {
			selected = append(selected, li)
		}
	}
	if len(selected) == 0 {
		return Proposal{}, ErrNothingToSettle
	}

	scoped, err := ledger.ReplayItems(selected)
	if err != nil {
		return Proposal{}, err
	}
	amount, err := scoped.Component(target)
	if err != nil {
		return Proposal{}, err
	}
	if mode == ModeGross {
		amount += feeAddBack(selected, target)
	}

	if abs(amount) < s.materiality.Threshold(target) {
		return Proposal{}, ErrNothingToSettle
	}

	refs := make([]ledger.ItemRef, 0, len(selected))
	for _, li := range selected {
		refs = append(refs, li.Ref)
	}

	return Proposal{
		PartyID:         partyID,
		Currency:        target,
		NetAmount:       amount,
		Items:           refs,
		Mode:            mode,
		SnapshotVersion: version,
	}, nil
}

// feeAddBack sums every fee that was deducted from the selected items in
// the target currency. Fees in the other currency stay deducted there.
func feeAddBack(items []ledger.LiveItem, target ledger.Currency) float64 {
	var total float64
	for _, li := range items {
		if !li.FeeApplies {
			continue
		}
		if li.Item.DeliveryFeeCurrency == target {
			total += li.Item.DeliveryFee
		}
		if li.Item.TaxiFeeCurrency == target {
			total += li.Item.TaxiFee
		}
	}
	return total
}

// ItemNet collapses one item into a single net figure when all its
// currency tags agree. Split-currency items cannot be collapsed and
// return ErrMixedCurrencyItem so callers surface the split instead of
// approximating it.
func ItemNet(li ledger.LiveItem) (ledger.Currency, float64, error) {
	currency := li.Item.CODCurrency
	net := li.Item.CODAmount
	if li.FeeApplies {
		if li.Item.DeliveryFee != 0 {
			if li.Item.DeliveryFeeCurrency != currency {
				return "", 0, ErrMixedCurrencyItem
			}
			net -= li.Item.DeliveryFee
		}
		if li.Item.TaxiFee != 0 {
			if li.Item.TaxiFeeCurrency != currency {
				return "", 0, ErrMixedCurrencyItem
			}
			net -= li.Item.TaxiFee
		}
	}
	return currency, net, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
