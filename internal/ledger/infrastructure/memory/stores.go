package memory

import (
	"context"
	"sync"

	ledger "parcelops/internal/ledger/domain"
	"parcelops/internal/party"
)

// TransactionStore is an in-memory ledger transaction store.
type TransactionStore struct {
	mu  sync.RWMutex
	txs []ledger.Transaction
}

// NewTransactionStore constructs a store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

// ListByParty returns the party's transactions.
func (s *TransactionStore) ListByParty(ctx context.Context, partyID string) ([]ledger.Transaction, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.Transaction
	for _, tx := range s.txs {
		if tx.PartyID == partyID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ListAll returns every transaction.
func (s *TransactionStore) ListAll(ctx context.Context) ([]ledger.Transaction, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

// Append adds a transaction.
func (s *TransactionStore) Append(ctx context.Context, tx ledger.Transaction) error {
	_ = ctx
	s.mu.Lock()
	s.txs = append(s.txs, tx)
	s.mu.Unlock()
	return nil
}

// BookingStore is an in-memory booking store. It also implements the
// conditional settle used at commit time.
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]*ledger.Booking
	order    []string
}

// NewBookingStore constructs a store.
func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]*ledger.Booking)}
}

// Put inserts or replaces a booking.
func (s *BookingStore) Put(ctx context.Context, b ledger.Booking) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookings[b.ID]; !exists {
		s.order = append(s.order, b.ID)
	}
	stored := b
	stored.Items = make([]ledger.DeliveryItem, len(b.Items))
	copy(stored.Items, b.Items)
	s.bookings[b.ID] = &stored
	return nil
}

// ListBookings returns detached copies of all bookings in insertion order.
func (s *BookingStore) ListBookings(ctx context.Context) ([]ledger.Booking, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Booking, 0, len(s.order))
	for _, id := range s.order {
		b := s.bookings[id]
		detached := *b
		detached.Items = make([]ledger.DeliveryItem, len(b.Items))
		copy(detached.Items, b.Items)
		out = append(out, detached)
	}
	return out, nil
}

// MarkSettled flips the referenced items from UNSETTLED to SETTLED under
// one lock. If any item is missing or already settled, nothing is written
// and the conflict is reported, so two concurrent commits can never both
// claim the same item.
func (s *BookingStore) MarkSettled(ctx context.Context, refs []ledger.ItemRef) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	type target struct {
		booking *ledger.Booking
		index   int
	}
	targets := make([]target, 0, len(refs))
	for _, ref := range refs {
		b, ok := s.bookings[ref.BookingID]
		if !ok {
			return ledger.ErrItemNotFound
		}
		found := -1
		for i := range b.Items {
			if b.Items[i].ItemID == ref.ItemID {
				found = i
				break
			}
		}
		if found < 0 {
			return ledger.ErrItemNotFound
		}
		if b.Items[found].SettlementStatus == ledger.Settled {
			return ledger.ErrAlreadySettled
		}
		targets = append(targets, target{booking: b, index: found})
	}

	for _, t := range targets {
		t.booking.Items[t.index].SettlementStatus = ledger.Settled
	}
	return nil
}

// SettlementCommitter couples the booking and transaction stores so the
// conditional settle and the ledger append land together.
type SettlementCommitter struct {
	bookings *BookingStore
	txs      *TransactionStore
}

// NewSettlementCommitter constructs a committer over the two stores.
func NewSettlementCommitter(bookings *BookingStore, txs *TransactionStore) *SettlementCommitter {
	return &SettlementCommitter{bookings: bookings, txs: txs}
}

// CommitSettlement settles the entry's related items and appends the
// entry. MarkSettled validates every reference before flipping any, so a
// conflict leaves both stores untouched.
func (c *SettlementCommitter) CommitSettlement(ctx context.Context, entry ledger.Transaction) error {
	if err := c.bookings.MarkSettled(ctx, entry.RelatedItems); err != nil {
		return err
	}
	return c.txs.Append(ctx, entry)
}

// PartyRepository is an in-memory party repository.
type PartyRepository struct {
	mu      sync.RWMutex
	parties map[string]party.Party
	order   []string
}

// NewPartyRepository constructs a repository.
func NewPartyRepository() *PartyRepository {
	return &PartyRepository{parties: make(map[string]party.Party)}
}

// Put inserts or replaces a party.
func (r *PartyRepository) Put(ctx context.Context, p party.Party) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.parties[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.parties[p.ID] = p
	return nil
}

// List returns all parties in insertion order.
func (r *PartyRepository) List(ctx context.Context) ([]party.Party, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]party.Party, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.parties[id])
	}
	return out, nil
}

// GetByID returns a party or nil when absent.
func (r *PartyRepository) GetByID(ctx context.Context, id string) (*party.Party, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parties[id]
	if !ok {
		return nil, nil
	}
	found := p
	return &found, nil
}
