package gl

import (
	ledger "parcelops/internal/ledger/domain"
)

// Line is one side of a double-entry preview.
type Line struct {
	Account string
	Debit   float64
	Credit  float64
}

// PreviewEntries renders the double-entry preview for a financial event:
// exactly two lines, one debit and one credit, always balanced. When the
// routing table has no entry for the kind and currency, the lines carry
// the suspense label and ErrUnconfiguredRouting is returned alongside the
// preview so the caller can surface the gap. This is a preview only;
// posting is the bookkeeping system's concern.
func PreviewEntries(kind ledger.TransactionKind, currency ledger.Currency, amount float64, routing *Routing) ([]Line, error) {
	if !currency.Valid() {
		return nil, ledger.ErrUnknownCurrency
	}
	if amount < 0 {
		amount = -amount
	}

	pair, ok := routing.Lookup(kind, currency)
	var err error
	if !ok {
		pair = AccountPair{Debit: UnconfiguredAccount, Credit: UnconfiguredAccount}
		err = ErrUnconfiguredRouting
	}

	lines := []Line{
		{Account: pair.Debit, Debit: amount},
		{Account: pair.Credit, Credit: amount},
	}
	return lines, err
}

// Balanced reports whether the preview's debit and credit totals match.
func Balanced(lines []Line) bool {
	var debit, credit float64
	for _, l := range lines {
		debit += l.Debit
		credit += l.Credit
	}
	return debit == credit
}
