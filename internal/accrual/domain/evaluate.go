package accrual

import (
	"context"

	ledger "parcelops/internal/ledger/domain"
	"parcelops/internal/party"
)

// RuleStore reads accrual rules.
type RuleStore interface {
	ListRules(ctx context.Context) ([]Rule, error)
}

// Evaluator evaluates cashback rules against replayed delivery activity.
type Evaluator struct {
	rules    RuleStore
	bookings ledger.BookingStore
	resolver *party.Resolver
}

// NewEvaluator constructs an evaluator.
func NewEvaluator(rules RuleStore, bookings ledger.BookingStore, resolver *party.Resolver) (*Evaluator, error) {
	if rules == nil || bookings == nil {
		return nil, ErrNilStore
	}
	if resolver == nil {
		return nil, party.ErrNilRepository
	}
	return &Evaluator{rules: rules, bookings: bookings, resolver: resolver}, nil
}

// Evaluate runs every rule whose activity window intersects the period.
// Delivered items are counted per party within the period; fee totals are
// bucketed by the item's COD currency and never mixed.
func (e *Evaluator) Evaluate(ctx context.Context, period Period) ([]Proposal, error) {
	rules, err := e.rules.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	var active []Rule
	for _, r := range rules {
		if r.ActiveDuring(period) {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	activity, err := e.collectActivity(ctx, period)
	if err != nil {
		return nil, err
	}

	proposals := make([]Proposal, 0, len(active))
	for _, r := range active {
		act := activity[r.PartyID]
		p := Proposal{
			RuleID:  r.ID,
			PartyID: r.PartyID,
			Units:   act.units,
			FeesUSD: act.feesUSD,
			FeesKHR: act.feesKHR,
		}
		if act.units >= r.MinUnitsPerPeriod {
			p.Eligible = true
			p.CashbackUSD = act.feesUSD * r.Percent / 100
			p.CashbackKHR = act.feesKHR * r.Percent / 100
		} else {
			p.Shortfall = r.MinUnitsPerPeriod - act.units
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

type partyActivity struct {
	units   int
	feesUSD float64
	feesKHR float64
}

// collectActivity counts delivered items and sums delivery fees per
// party for the period. A fee joins the bucket of its item's COD
// currency and only when the fee itself is in that same currency; a
// split-currency fee never crosses into the other bucket.
func (e *Evaluator) collectActivity(ctx context.Context, period Period) (map[string]partyActivity, error) {
	bookings, err := e.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	activity := make(map[string]partyActivity)
	for _, b := range bookings {
		attr, err := e.resolver.Resolve(ctx, b.CounterpartID, b.CounterpartPhone)
		if err != nil {
			return nil, err
		}
		if attr.Kind != party.Matched {
			continue
		}
		for _, item := range b.Items {
			if item.Status != ledger.ItemDelivered || !period.Contains(item.DeliveredAt) {
				continue
			}
			act := activity[attr.PartyID]
			act.units++
			if item.DeliveryFeeCurrency == item.CODCurrency {
				switch item.CODCurrency {
				case ledger.USD:
					act.feesUSD += item.DeliveryFee
				case ledger.KHR:
					act.feesKHR += item.DeliveryFee
				}
			}
			activity[attr.PartyID] = act
		}
	}
	return activity, nil
}
