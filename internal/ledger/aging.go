// Package ledger summarizes a firm's records for statements: business-week
// ranges, aging of outstanding charges, billed/paid totals, and a SQLite
// snapshot export of all three.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/casebook/internal/record"
)

// Bucket is one aging bracket. Max < 0 means open-ended.
type Bucket struct {
	Label string          `json:"label"`
	Min   int             `json:"min_days"`
	Max   int             `json:"max_days"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Contains reports whether an age in days falls in the bracket.
func (b Bucket) Contains(days int) bool {
	return days >= b.Min && (b.Max < 0 || days <= b.Max)
}

// Brackets are the aging brackets, youngest first.
var Brackets = []Bucket{
	{Label: "0-30 days", Min: 0, Max: 30},
	{Label: "31-60 days", Min: 31, Max: 60},
	{Label: "61-90 days", Min: 61, Max: 90},
	{Label: "90+ days", Min: 91, Max: -1},
}

// Aging buckets every record not marked Paid by the age of its appearance
// date at asOf. Records with unparsable dates, or dated after asOf, are left
// out. Unparsable charges count with a zero amount.
func Aging(records []record.CaseRecord, asOf time.Time) []Bucket {
	buckets := make([]Bucket, len(Brackets))
	for i, b := range Brackets {
		b.Total = decimal.Zero
		buckets[i] = b
	}

	day := dateOf(asOf)
	for _, r := range records {
		if r.PaidStatus == record.PaidPaid {
			continue
		}
		d, err := record.ParseDate(r.AppearanceDate)
		if err != nil {
			continue
		}
		age := int(day.Sub(d).Hours() / 24)
		for i := range buckets {
			if buckets[i].Contains(age) {
				buckets[i].Count++
				buckets[i].Total = buckets[i].Total.Add(charge(r))
				break
			}
		}
	}
	return buckets
}

// Summary totals a firm's records.
type Summary struct {
	Cases       int             `json:"cases"`
	Open        int             `json:"open"`
	Billed      decimal.Decimal `json:"billed"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// Summarize totals billed charges and the part marked Paid. Partial payments
// count as outstanding: the table does not record the amount received.
func Summarize(records []record.CaseRecord) Summary {
	s := Summary{Billed: decimal.Zero, Paid: decimal.Zero}
	for _, r := range records {
		amt := charge(r)
		s.Cases++
		s.Billed = s.Billed.Add(amt)
		if r.PaidStatus == record.PaidPaid {
			s.Paid = s.Paid.Add(amt)
		} else {
			s.Open++
		}
	}
	s.Outstanding = s.Billed.Sub(s.Paid)
	return s
}

func charge(r record.CaseRecord) decimal.Decimal {
	d, err := r.Charge()
	if err != nil {
		return decimal.Zero
	}
	return d
}

// dateOf drops the clock time, keeping t's calendar day, as UTC midnight so it
// compares with record.ParseDate results.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
