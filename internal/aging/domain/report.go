package aging

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidExchangeRate is returned when an open receivable carries a
// zero or negative exchange rate, which cannot be normalized.
var ErrInvalidExchangeRate = errors.New("aging: invalid exchange rate")

// materialityBase is the smallest base-currency outstanding balance worth
// reporting. Rows at or below it are rounding residue and are skipped.
const materialityBase = 0.01

// Row is one party's aged outstanding balance in the base currency.
type Row struct {
	PartyID    string
	PartyName  string
	Current    float64
	Days1To30  float64
	Days31To60 float64
	Days61To90 float64
	Days90Plus float64
	Total      float64
}

// Report is the full aging run: one row per party plus the grand total,
// all in the base currency.
type Report struct {
	AsOf       time.Time
	Rows       []Row
	GrandTotal float64
}

// ComputeAging buckets every open receivable's outstanding balance by
// days overdue at asOf. Each document is normalized to the base currency
// through its own exchange rate before bucketing; balances at or below
// the materiality floor are dropped. Rows are aggregated per party and
// sorted by party name, then id.
func ComputeAging(receivables []Receivable, asOf time.Time) (Report, error) {
	byParty := make(map[string]*Row)
	var order []string

	for _, r := range receivables {
		if !r.Open() {
			continue
		}
		if r.ExchangeRate <= 0 {
			return Report{}, ErrInvalidExchangeRate
		}
		outstanding := (r.Total - r.Paid) / r.ExchangeRate
		if outstanding <= materialityBase {
			continue
		}

		row, ok := byParty[r.PartyID]
		if !ok {
			row = &Row{PartyID: r.PartyID, PartyName: r.PartyName}
			byParty[r.PartyID] = row
			order = append(order, r.PartyID)
		}
		if row.PartyName == "" {
			row.PartyName = r.PartyName
		}

		days := daysOverdue(r.DueDate, asOf)
		switch {
		case days <= 0:
			row.Current += outstanding
		case days <= 30:
			row.Days1To30 += outstanding
		case days <= 60:
			row.Days31To60 += outstanding
		case days <= 90:
			row.Days61To90 += outstanding
		default:
			row.Days90Plus += outstanding
		}
		row.Total += outstanding
	}

	report := Report{AsOf: asOf, Rows: make([]Row, 0, len(order))}
	for _, id := range order {
		report.Rows = append(report.Rows, *byParty[id])
		report.GrandTotal += byParty[id].Total
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].PartyName != report.Rows[j].PartyName {
			return report.Rows[i].PartyName < report.Rows[j].PartyName
		}
		return report.Rows[i].PartyID < report.Rows[j].PartyID
	})
	return report, nil
}

// daysOverdue is the whole number of days asOf lies past due.
func daysOverdue(due, asOf time.Time) int {
	if due.IsZero() {
		return 0
	}
	delta := asOf.Sub(due)
	if delta < 0 {
		return 0
	}
	return int(delta / (24 * time.Hour))
}
