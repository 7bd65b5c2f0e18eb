package aging

import "time"

// ReceivableStatus is the document state of a receivable.
type ReceivableStatus string

const (
	ReceivableOpen    ReceivableStatus = "OPEN"
	ReceivablePartial ReceivableStatus = "PARTIAL"
	ReceivablePaid    ReceivableStatus = "PAID"
	ReceivableVoid    ReceivableStatus = "VOID"
)

// Receivable is one outstanding document in its native currency, with a
// per-document exchange rate into the report's base currency.
type Receivable struct {
	ID           string
	PartyID      string
	PartyName    string
	Total        float64
	Paid         float64
	Currency     string
	ExchangeRate float64
	DueDate      time.Time
	Status       ReceivableStatus
}

// Open reports whether the document still carries a balance to age.
func (r Receivable) Open() bool {
	return r.Status != ReceivablePaid && r.Status != ReceivableVoid
}
