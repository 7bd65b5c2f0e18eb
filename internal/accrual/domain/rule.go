package accrual

import "time"

// Rule is a periodic volume-based cashback rule for one party. Percent
// applies to the delivery fees charged in the period, separately per
// currency; the rule itself is currency-agnostic.
type Rule struct {
	ID                string
	PartyID           string
	MinUnitsPerPeriod int
	Percent           float64
	ActiveFrom        time.Time
	ActiveTo          time.Time
}

// ActiveDuring reports whether the rule's activity window intersects the
// period. A zero ActiveTo means the rule is open-ended.
func (r Rule) ActiveDuring(p Period) bool {
	if !r.ActiveFrom.IsZero() && r.ActiveFrom.After(p.To) {
		return false
	}
	if !r.ActiveTo.IsZero() && r.ActiveTo.Before(p.From) {
		return false
	}
	return true
}

// Period is a half-open evaluation window [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// Proposal is the evaluation result for one rule. Units and the fee
// totals are always reported, even when ineligible, so an operator can
// see how many more units are needed.
type Proposal struct {
	RuleID      string
	PartyID     string
	Units       int
	Shortfall   int
	Eligible    bool
	FeesUSD     float64
	FeesKHR     float64
	CashbackUSD float64
	CashbackKHR float64
}
