package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ledger "parcelops/internal/ledger/domain"
	ledgermem "parcelops/internal/ledger/infrastructure/memory"
	"parcelops/internal/party"
)

func newWalletHandler(t *testing.T) (*WalletHandler, *ledgermem.BookingStore, *ledgermem.PartyRepository) {
	t.Helper()
	txs := ledgermem.NewTransactionStore()
	bookings := ledgermem.NewBookingStore()
	parties := ledgermem.NewPartyRepository()
	resolver, err := party.NewResolver(parties)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	engine, err := ledger.NewEngine(txs, bookings, resolver, ledger.SystemClock{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return NewWalletHandler(engine), bookings, parties
}

func deliveredBooking(id, counterpart string, cod, fee float64) ledger.Booking {
	return ledger.Booking{
		ID:            id,
		CounterpartID: counterpart,
		Status:        ledger.BookingCompleted,
		UpdatedAt:     time.Date(2026, 8, 12, 8, 0, 0, 0, time.UTC),
		Items: []ledger.DeliveryItem{{
			ItemID:              "i1",
			Status:              ledger.ItemDelivered,
			CODAmount:           cod,
			CODCurrency:         ledger.USD,
			DeliveryFee:         fee,
			DeliveryFeeCurrency: ledger.USD,
			SettlementStatus:    ledger.Unsettled,
			DeliveredAt:         time.Date(2026, 8, 12, 8, 0, 0, 0, time.UTC),
		}},
	}
}

func TestWalletListIncludesUnregisteredBuckets(t *testing.T) {
	handler, bookings, parties := newWalletHandler(t)
	ctx := context.Background()
	if err := parties.Put(ctx, party.Party{ID: "p1", Name: "Dara"}); err != nil {
		t.Fatalf("seed party: %v", err)
	}
	if err := bookings.Put(ctx, deliveredBooking("b1", "p1", 100, 10)); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	if err := bookings.Put(ctx, deliveredBooking("b2", "ghost", 25, 5)); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var balances map[string]ledger.Balance
	if err := json.NewDecoder(rec.Body).Decode(&balances); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := balances["party:p1"].USD; got != 90 {
		t.Fatalf("expected party balance 90, got %v", got)
	}
	if got := balances["unregistered:ghost"].USD; got != 20 {
		t.Fatalf("expected unregistered balance 20, got %v", got)
	}
	if n := countUnregistered(balances); n != 1 {
		t.Fatalf("expected one unregistered bucket, got %d", n)
	}
}

func TestWalletBalanceEndpoint(t *testing.T) {
	handler, bookings, parties := newWalletHandler(t)
	ctx := context.Background()
	if err := parties.Put(ctx, party.Party{ID: "p1", Name: "Dara"}); err != nil {
		t.Fatalf("seed party: %v", err)
	}
	if err := bookings.Put(ctx, deliveredBooking("b1", "p1", 100, 10)); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallets/p1/balance", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		PartyID string  `json:"party_id"`
		USD     float64 `json:"usd"`
		KHR     float64 `json:"khr"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.PartyID != "p1" || body.USD != 90 || body.KHR != 0 {
		t.Fatalf("unexpected balance payload: %+v", body)
	}
}
