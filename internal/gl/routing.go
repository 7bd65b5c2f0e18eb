package gl

import (
	ledger "parcelops/internal/ledger/domain"
)

// AccountPair is the debit/credit account routing for one event kind in
// one currency.
type AccountPair struct {
	Debit  string
	Credit string
}

// UnconfiguredAccount is the suspense label rendered when no route is
// configured. Previews using it also return ErrUnconfiguredRouting so the
// gap is surfaced instead of a guessed account being posted.
const UnconfiguredAccount = "9999 Unconfigured"

type routeKey struct {
	Kind     ledger.TransactionKind
	Currency ledger.Currency
}

// Routing is the chart-of-accounts routing table keyed by
// (event kind, currency).
type Routing struct {
	routes map[routeKey]AccountPair
}

// Route declares one chart-of-accounts route, for building a Routing from
// configuration.
type Route struct {
	Kind     ledger.TransactionKind
	Currency ledger.Currency
	Debit    string
	Credit   string
}

// NewRouting builds a routing table from configured routes. Routes with
// an unknown currency or missing accounts are rejected.
func NewRouting(routes []Route) (*Routing, error) {
	table := make(map[routeKey]AccountPair, len(routes))
	for _, r := range routes {
		if !r.Currency.Valid() {
			return nil, ledger.ErrUnknownCurrency
		}
		if r.Kind == "" || r.Debit == "" || r.Credit == "" {
			return nil, ErrIncompleteRoute
		}
		table[routeKey{Kind: r.Kind, Currency: r.Currency}] = AccountPair{Debit: r.Debit, Credit: r.Credit}
	}
	return &Routing{routes: table}, nil
}

// Lookup resolves the account pair for a kind and currency.
func (r *Routing) Lookup(kind ledger.TransactionKind, currency ledger.Currency) (AccountPair, bool) {
	if r == nil || r.routes == nil {
		return AccountPair{}, false
	}
	pair, ok := r.routes[routeKey{Kind: kind, Currency: currency}]
	return pair, ok
}
