package accrual

import (
	"context"
	"testing"
	"time"

	ledger "parcelops/internal/ledger/domain"
	"parcelops/internal/party"
)

type stubRuleStore struct {
	rules []Rule
}

func (s stubRuleStore) ListRules(_ context.Context) ([]Rule, error) { return s.rules, nil }

type stubBookingStore struct {
	bookings []ledger.Booking
}

func (s stubBookingStore) ListBookings(_ context.Context) ([]ledger.Booking, error) {
	return s.bookings, nil
}

type stubPartyRepo struct {
	parties []party.Party
}

func (s stubPartyRepo) List(_ context.Context) ([]party.Party, error) { return s.parties, nil }

func (s stubPartyRepo) GetByID(_ context.Context, id string) (*party.Party, error) {
	for _, p := range s.parties {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func august() Period {
	return Period{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func deliveredUSD(itemID string, fee float64, at time.Time) ledger.DeliveryItem {
	return ledger.DeliveryItem{
		ItemID:              itemID,
		Status:              ledger.ItemDelivered,
		CODAmount:           100,
		CODCurrency:         ledger.USD,
		DeliveryFee:         fee,
		DeliveryFeeCurrency: ledger.USD,
		SettlementStatus:    ledger.Unsettled,
		DeliveredAt:         at,
	}
}

func newEvaluator(t *testing.T, rules []Rule, bookings []ledger.Booking, parties []party.Party) *Evaluator {
	t.Helper()
	resolver, err := party.NewResolver(stubPartyRepo{parties: parties})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	eval, err := NewEvaluator(stubRuleStore{rules: rules}, stubBookingStore{bookings: bookings}, resolver)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return eval
}

func TestEvaluateEligibleRule(t *testing.T) {
	at := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	items := make([]ledger.DeliveryItem, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, deliveredUSD(itemID(i), 2, at))
	}
	bookings := []ledger.Booking{{ID: "b1", CounterpartID: "p1", Status: ledger.BookingCompleted, Items: items}}
	rules := []Rule{{ID: "r1", PartyID: "p1", MinUnitsPerPeriod: 10, Percent: 5,
		ActiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}}
	parties := []party.Party{{ID: "p1", Name: "Dara"}}

	proposals, err := newEvaluator(t, rules, bookings, parties).Evaluate(context.Background(), august())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(proposals) != 1 {
		t.Fatalf("expected one proposal, got %d", len(proposals))
	}
	p := proposals[0]
	if !p.Eligible || p.Units != 10 || p.Shortfall != 0 {
		t.Fatalf("expected eligible with 10 units, got %+v", p)
	}
	if p.FeesUSD != 20 || p.CashbackUSD != 1 {
		t.Fatalf("expected fees 20 and cashback 1, got %+v", p)
	}
	if p.CashbackKHR != 0 {
		t.Fatalf("expected no KHR cashback, got %+v", p)
	}
}

func TestEvaluateShortfallReported(t *testing.T) {
	at := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	items := make([]ledger.DeliveryItem, 0, 9)
	for i := 0; i < 9; i++ {
		items = append(items, deliveredUSD(itemID(i), 2, at))
	}
	bookings := []ledger.Booking{{ID: "b1", CounterpartID: "p1", Status: ledger.BookingCompleted, Items: items}}
	rules := []Rule{{ID: "r1", PartyID: "p1", MinUnitsPerPeriod: 10, Percent: 5}}
	parties := []party.Party{{ID: "p1", Name: "Dara"}}

	proposals, err := newEvaluator(t, rules, bookings, parties).Evaluate(context.Background(), august())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	p := proposals[0]
	if p.Eligible {
		t.Fatalf("expected ineligible, got %+v", p)
	}
	if p.Units != 9 || p.Shortfall != 1 {
		t.Fatalf("expected 9 units shortfall 1, got %+v", p)
	}
	if p.CashbackUSD != 0 || p.CashbackKHR != 0 {
		t.Fatalf("expected zero cashback, got %+v", p)
	}
	if p.FeesUSD != 18 {
		t.Fatalf("expected fee total still reported, got %+v", p)
	}
}

func TestEvaluatePerCurrencyBuckets(t *testing.T) {
	at := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	khr := ledger.DeliveryItem{
		ItemID: "k1", Status: ledger.ItemDelivered,
		CODAmount: 40000, CODCurrency: ledger.KHR,
		DeliveryFee: 4000, DeliveryFeeCurrency: ledger.KHR,
		SettlementStatus: ledger.Unsettled, DeliveredAt: at,
	}
	bookings := []ledger.Booking{{
		ID: "b1", CounterpartID: "p1", Status: ledger.BookingCompleted,
		Items: []ledger.DeliveryItem{deliveredUSD("u1", 2, at), khr},
	}}
	rules := []Rule{{ID: "r1", PartyID: "p1", MinUnitsPerPeriod: 2, Percent: 10}}
	parties := []party.Party{{ID: "p1", Name: "Dara"}}

	proposals, err := newEvaluator(t, rules, bookings, parties).Evaluate(context.Background(), august())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	p := proposals[0]
	if p.CashbackUSD != 0.2 {
		t.Fatalf("expected usd cashback 0.2, got %+v", p)
	}
	if p.CashbackKHR != 400 {
		t.Fatalf("expected khr cashback 400, got %+v", p)
	}
}

func TestEvaluateIgnoresOutOfPeriodAndInactiveRules(t *testing.T) {
	inPeriod := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	outOfPeriod := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	bookings := []ledger.Booking{{
		ID: "b1", CounterpartID: "p1", Status: ledger.BookingCompleted,
		Items: []ledger.DeliveryItem{deliveredUSD("u1", 2, inPeriod), deliveredUSD("u2", 2, outOfPeriod)},
	}}
	rules := []Rule{
		{ID: "r1", PartyID: "p1", MinUnitsPerPeriod: 1, Percent: 10},
		{ID: "r2", PartyID: "p1", MinUnitsPerPeriod: 1, Percent: 10,
			ActiveTo: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
	}
	parties := []party.Party{{ID: "p1", Name: "Dara"}}

	proposals, err := newEvaluator(t, rules, bookings, parties).Evaluate(context.Background(), august())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(proposals) != 1 || proposals[0].RuleID != "r1" {
		t.Fatalf("expected only the active rule, got %+v", proposals)
	}
	if proposals[0].Units != 1 {
		t.Fatalf("expected one in-period unit, got %+v", proposals[0])
	}
}

func itemID(i int) string {
	return string(rune('a' + i))
}
