package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"parcelops/internal/gl"
	ledger "parcelops/internal/ledger/domain"
	ledgermem "parcelops/internal/ledger/infrastructure/memory"
	"parcelops/internal/party"
	settlement "parcelops/internal/settlement/domain"
	settlementmem "parcelops/internal/settlement/infrastructure/memory"
)

type fixture struct {
	service  *Service
	engine   *ledger.Engine
	txs      *ledgermem.TransactionStore
	bookings *ledgermem.BookingStore
	parties  *ledgermem.PartyRepository
	requests *settlementmem.RequestRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	txs := ledgermem.NewTransactionStore()
	bookings := ledgermem.NewBookingStore()
	parties := ledgermem.NewPartyRepository()
	requests := settlementmem.NewRequestRepository()

	resolver, err := party.NewResolver(parties)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	engine, err := ledger.NewEngine(txs, bookings, resolver, ledger.SystemClock{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	routing, err := gl.NewRouting([]gl.Route{
		{Kind: ledger.KindSettlement, Currency: ledger.USD, Debit: "2100 COD Payable USD", Credit: "1000 Cash USD"},
		{Kind: ledger.KindSettlement, Currency: ledger.KHR, Debit: "2101 COD Payable KHR", Credit: "1001 Cash KHR"},
	})
	if err != nil {
		t.Fatalf("new routing: %v", err)
	}
	service, err := NewService(engine, settlement.NewSelector(settlement.DefaultMateriality()), routing,
		parties, ledgermem.NewSettlementCommitter(bookings, txs), requests, nil, ledger.SystemClock{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{service: service, engine: engine, txs: txs, bookings: bookings, parties: parties, requests: requests}
}

func (f *fixture) seedParty(t *testing.T, p party.Party) {
	t.Helper()
	if err := f.parties.Put(context.Background(), p); err != nil {
		t.Fatalf("seed party: %v", err)
	}
}

func (f *fixture) seedBooking(t *testing.T, b ledger.Booking) {
	t.Helper()
	if err := f.bookings.Put(context.Background(), b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func usdBooking(id, counterpart string, cod, fee float64) ledger.Booking {
	return ledger.Booking{
		ID:            id,
		CounterpartID: counterpart,
		Status:        ledger.BookingCompleted,
		UpdatedAt:     time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
		Items: []ledger.DeliveryItem{{
			ItemID:              "i1",
			Status:              ledger.ItemDelivered,
			CODAmount:           cod,
			CODCurrency:         ledger.USD,
			DeliveryFee:         fee,
			DeliveryFeeCurrency: ledger.USD,
			SettlementStatus:    ledger.Unsettled,
			DeliveredAt:         time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
		}},
	}
}

func TestProposeThenCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedParty(t, party.Party{ID: "p1", Name: "Dara", LoginID: "login-1"})
	f.seedBooking(t, usdBooking("b1", "p1", 100, 10))

	result, err := f.service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "weekly payout")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if result.Request.NetAmount != 90 {
		t.Fatalf("expected net 90, got %v", result.Request.NetAmount)
	}
	if !result.RoutingConfigured {
		t.Fatalf("expected configured routing")
	}
	if !gl.Balanced(result.Preview) {
		t.Fatalf("expected balanced preview, got %+v", result.Preview)
	}
	if result.Request.Status != settlement.RequestStatusPending {
		t.Fatalf("expected pending request, got %s", result.Request.Status)
	}

	if err := f.service.Commit(ctx, result.Request.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Items are settled, the SETTLEMENT debit replaces their contribution.
	snap, err := f.engine.Replay(ctx, "p1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if snap.Balance.USD != 0 {
		t.Fatalf("expected zero balance after payout, got %v", snap.Balance.USD)
	}

	committed, err := f.requests.GetByID(ctx, result.Request.ID)
	if err != nil || committed == nil {
		t.Fatalf("get request: %v", err)
	}
	if committed.Status != settlement.RequestStatusCommitted {
		t.Fatalf("expected committed status, got %s", committed.Status)
	}
}

func TestCommitIsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedParty(t, party.Party{ID: "p1", Name: "Dara", LoginID: "login-1"})
	f.seedBooking(t, usdBooking("b1", "p1", 100, 10))

	first, err := f.service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "payout A")
	if err != nil {
		t.Fatalf("propose A: %v", err)
	}
	second, err := f.service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "payout B")
	if err != nil {
		t.Fatalf("propose B: %v", err)
	}

	if err := f.service.Commit(ctx, first.Request.ID); err != nil {
		t.Fatalf("commit A: %v", err)
	}
	err = f.service.Commit(ctx, second.Request.ID)
	if err == nil {
		t.Fatalf("expected second commit over the same items to fail")
	}
	if !errors.Is(err, settlement.ErrStaleSnapshot) && !errors.Is(err, ledger.ErrAlreadySettled) {
		t.Fatalf("expected stale snapshot or already settled, got %v", err)
	}

	// The settled item never reappears in a later selection.
	_, err = f.service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "payout C")
	if !errors.Is(err, settlement.ErrNothingToSettle) {
		t.Fatalf("expected nothing to settle after payout, got %v", err)
	}
}

// failOnceCommitter rejects the first commit wholesale and delegates
// afterwards, modeling a transient database failure.
type failOnceCommitter struct {
	inner ledger.SettlementCommitter
	fail  error
}

func (c *failOnceCommitter) CommitSettlement(ctx context.Context, entry ledger.Transaction) error {
	if c.fail != nil {
		err := c.fail
		c.fail = nil
		return err
	}
	return c.inner.CommitSettlement(ctx, entry)
}

func TestCommitFailureLeavesRequestRetryable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedParty(t, party.Party{ID: "p1", Name: "Dara", LoginID: "login-1"})
	f.seedBooking(t, usdBooking("b1", "p1", 100, 10))

	routing, err := gl.NewRouting([]gl.Route{
		{Kind: ledger.KindSettlement, Currency: ledger.USD, Debit: "2100", Credit: "1000"},
	})
	if err != nil {
		t.Fatalf("new routing: %v", err)
	}
	committer := &failOnceCommitter{
		inner: ledgermem.NewSettlementCommitter(f.bookings, f.txs),
		fail:  errors.New("connection reset"),
	}
	service, err := NewService(f.engine, settlement.NewSelector(settlement.DefaultMateriality()), routing,
		f.parties, committer, f.requests, nil, ledger.SystemClock{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "payout")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if err := service.Commit(ctx, result.Request.ID); err == nil {
		t.Fatalf("expected first commit to fail")
	}

	// Nothing landed: the items are still live and the request pending.
	snap, err := f.engine.Replay(ctx, "p1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if snap.Balance.USD != 90 {
		t.Fatalf("expected balance 90 after failed commit, got %v", snap.Balance.USD)
	}
	pending, err := f.requests.GetByID(ctx, result.Request.ID)
	if err != nil || pending == nil {
		t.Fatalf("get request: %v", err)
	}
	if pending.Status != settlement.RequestStatusPending {
		t.Fatalf("expected pending request after failed commit, got %s", pending.Status)
	}

	// The same request commits cleanly on retry.
	if err := service.Commit(ctx, result.Request.ID); err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	snap, err = f.engine.Replay(ctx, "p1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if snap.Balance.USD != 0 {
		t.Fatalf("expected zero balance after retried commit, got %v", snap.Balance.USD)
	}
}

func TestCommitStaleAfterNewEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedParty(t, party.Party{ID: "p1", Name: "Dara", LoginID: "login-1"})
	f.seedBooking(t, usdBooking("b1", "p1", 100, 10))

	result, err := f.service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "payout")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// A deposit lands between propose and commit.
	err = f.txs.Append(ctx, ledger.Transaction{
		ID: "t1", PartyID: "p1", Amount: 5, Currency: ledger.USD,
		Kind: ledger.KindDeposit, Status: ledger.StatusApproved,
		Timestamp: time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := f.service.Commit(ctx, result.Request.ID); !errors.Is(err, settlement.ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
}

func TestCommitRequiresLinkedLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedParty(t, party.Party{ID: "p1", Name: "Dara"})
	f.seedBooking(t, usdBooking("b1", "p1", 100, 10))

	result, err := f.service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "payout")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := f.service.Commit(ctx, result.Request.ID); !errors.Is(err, party.ErrUnlinked) {
		t.Fatalf("expected ErrUnlinked, got %v", err)
	}
}

func TestProposeAdminGrossFlagIsAuthoritative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedParty(t, party.Party{ID: "p1", Name: "Dara", LoginID: "login-1", GrossPayout: true})
	f.seedBooking(t, usdBooking("b1", "p1", 100, 10))

	// Session asks for NET; the profile-level flag cannot be narrowed away.
	result, err := f.service.Propose(ctx, "p1", ledger.USD, settlement.ModeNet, "payout")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if result.Request.Mode != settlement.ModeGross {
		t.Fatalf("expected gross mode, got %s", result.Request.Mode)
	}
	if result.Request.NetAmount != 100 {
		t.Fatalf("expected gross amount 100, got %v", result.Request.NetAmount)
	}
}

func TestProposeUnconfiguredRoutingSurfaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedParty(t, party.Party{ID: "p1", Name: "Dara", LoginID: "login-1"})

	booking := usdBooking("b1", "p1", 40000, 4000)
	booking.Items[0].CODCurrency = ledger.KHR
	booking.Items[0].DeliveryFeeCurrency = ledger.KHR
	f.seedBooking(t, booking)

	// Rebuild the service with a routing table missing the KHR route.
	routing, err := gl.NewRouting([]gl.Route{
		{Kind: ledger.KindSettlement, Currency: ledger.USD, Debit: "2100", Credit: "1000"},
	})
	if err != nil {
		t.Fatalf("new routing: %v", err)
	}
	resolver, err := party.NewResolver(f.parties)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	engine, err := ledger.NewEngine(f.txs, f.bookings, resolver, ledger.SystemClock{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	service, err := NewService(engine, settlement.NewSelector(settlement.DefaultMateriality()), routing,
		f.parties, ledgermem.NewSettlementCommitter(f.bookings, f.txs), f.requests, nil, ledger.SystemClock{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := service.Propose(ctx, "p1", ledger.KHR, settlement.ModeNet, "payout")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if result.RoutingConfigured {
		t.Fatalf("expected unconfigured routing to be flagged")
	}
	for _, line := range result.Preview {
		if line.Account != gl.UnconfiguredAccount {
			t.Fatalf("expected suspense account, got %+v", line)
		}
	}
}

func TestProposeUnknownParty(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Propose(context.Background(), "ghost", ledger.USD, settlement.ModeNet, "payout")
	if !errors.Is(err, party.ErrPartyNotFound) {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}
}
