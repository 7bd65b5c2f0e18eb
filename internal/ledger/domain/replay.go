package ledger

import (
	"context"
	"sort"
	"time"

	"parcelops/internal/party"
)

// LiveItem is a delivered, unsettled delivery item paired with the
// booking context needed to replay it in isolation.
type LiveItem struct {
	Ref        ItemRef
	Item       DeliveryItem
	FeeApplies bool
}

// Contribute folds the item's financial event into a balance: COD is
// credited in its own currency; when fees apply, the delivery fee and the
// taxi fee are each debited in their own currency. No conversion happens.
func (li LiveItem) Contribute(b *Balance) error {
	if li.Item.CODAmount != 0 {
		if err := b.Add(li.Item.CODCurrency, li.Item.CODAmount); err != nil {
			return err
		}
	}
	if !li.FeeApplies {
		return nil
	}
	if li.Item.DeliveryFee != 0 {
		if err := b.Add(li.Item.DeliveryFeeCurrency, -li.Item.DeliveryFee); err != nil {
			return err
		}
	}
	if li.Item.TaxiFee != 0 {
		if err := b.Add(li.Item.TaxiFeeCurrency, -li.Item.TaxiFee); err != nil {
			return err
		}
	}
	return nil
}

// ReplayItems folds a caller-supplied item subset into a balance. This is
// the scoped replay used by payout selection; it mirrors the per-item
// step of a full replay exactly.
func ReplayItems(items []LiveItem) (Balance, error) {
	var b Balance
	for _, li := range items {
		if err := li.Contribute(&b); err != nil {
			return Balance{}, err
		}
	}
	return b, nil
}

// Engine replays a wallet balance from the two read-only event sources:
// explicit ledger transactions and implicit delivery events. It holds no
// mutable state; every call folds the current snapshot from scratch.
type Engine struct {
	txs      TransactionStore
	bookings BookingStore
	resolver *party.Resolver
	clock    Clock
}

// NewEngine constructs a replay engine.
func NewEngine(txs TransactionStore, bookings BookingStore, resolver *party.Resolver, clock Clock) (*Engine, error) {
	if txs == nil || bookings == nil {
		return nil, ErrNilStore
	}
	if resolver == nil {
		return nil, party.ErrNilRepository
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{txs: txs, bookings: bookings, resolver: resolver, clock: clock}, nil
}

// Replay computes the party's per-currency balance by folding ledger
// transactions and live delivery events. The snapshot version is the
// maximum event timestamp observed.
func (e *Engine) Replay(ctx context.Context, partyID string) (Snapshot, error) {
	txs, items, version, err := e.collect(ctx, partyID)
	if err != nil {
		return Snapshot{}, err
	}

	var b Balance
	for _, tx := range txs {
		if !tx.CountsTowardBalance() || tx.ItemBacked() {
			continue
		}
		if err := b.Add(tx.Currency, tx.SignedAmount()); err != nil {
			return Snapshot{}, err
		}
	}
	for _, li := range items {
		if err := li.Contribute(&b); err != nil {
			return Snapshot{}, err
		}
	}

	return Snapshot{
		PartyID: partyID,
		Balance: b,
		Version: version,
		TakenAt: e.clock.Now(),
	}, nil
}

// LiveItems returns the party's live delivery items sorted by
// (bookingID, itemID) together with the snapshot version, for payout
// selection against a reproducible snapshot.
func (e *Engine) LiveItems(ctx context.Context, partyID string) ([]LiveItem, time.Time, error) {
	_, items, version, err := e.collect(ctx, partyID)
	if err != nil {
		return nil, time.Time{}, err
	}
	return items, version, nil
}

// Version returns the current snapshot version for the party without
// folding a balance. Commits compare it against the proposal's version to
// reject stale settlements.
func (e *Engine) Version(ctx context.Context, partyID string) (time.Time, error) {
	_, _, version, err := e.collect(ctx, partyID)
	return version, err
}

func (e *Engine) collect(ctx context.Context, partyID string) ([]Transaction, []LiveItem, time.Time, error) {
	txs, err := e.txs.ListByParty(ctx, partyID)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	var version time.Time
	for _, tx := range txs {
		if tx.Timestamp.After(version) {
			version = tx.Timestamp
		}
	}

	bookings, err := e.bookings.ListBookings(ctx)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	var items []LiveItem
	for _, b := range bookings {
		attr, err := e.resolver.Resolve(ctx, b.CounterpartID, b.CounterpartPhone)
		if err != nil {
			return nil, nil, time.Time{}, err
		}
		if attr.Kind != party.Matched || attr.PartyID != partyID {
			continue
		}
		if b.UpdatedAt.After(version) {
			version = b.UpdatedAt
		}
		feeApplies := b.FeeTriggered()
		for _, item := range b.Items {
			if !item.Live() {
				continue
			}
			if item.DeliveredAt.After(version) {
				version = item.DeliveredAt
			}
			items = append(items, LiveItem{
				Ref:        ItemRef{BookingID: b.ID, ItemID: item.ItemID},
				Item:       item,
				FeeApplies: feeApplies,
			})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Ref.BookingID != items[j].Ref.BookingID {
			return items[i].Ref.BookingID < items[j].Ref.BookingID
		}
		return items[i].Ref.ItemID < items[j].Ref.ItemID
	})

	return txs, items, version, nil
}

// WalletBalances replays every wallet, including the synthetic
// unregistered buckets, keyed by attribution wallet key. Operators use
// this to see money at risk on bookings with no resolvable party.
func (e *Engine) WalletBalances(ctx context.Context) (map[string]Balance, error) {
	balances := make(map[string]Balance)

	txs, err := e.txs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if !tx.CountsTowardBalance() || tx.ItemBacked() {
			continue
		}
		key := "party:" + tx.PartyID
		b := balances[key]
		if err := b.Add(tx.Currency, tx.SignedAmount()); err != nil {
			return nil, err
		}
		balances[key] = b
	}

	bookings, err := e.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	for _, booking := range bookings {
		attr, err := e.resolver.Resolve(ctx, booking.CounterpartID, booking.CounterpartPhone)
		if err != nil {
			return nil, err
		}
		key := attr.WalletKey()
		feeApplies := booking.FeeTriggered()
		for _, item := range booking.Items {
			if !item.Live() {
				continue
			}
			b := balances[key]
			li := LiveItem{Item: item, FeeApplies: feeApplies}
			if err := li.Contribute(&b); err != nil {
				return nil, err
			}
			balances[key] = b
		}
	}

	return balances, nil
}
