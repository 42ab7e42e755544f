package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/roach88/casebook/internal/record"
)

// Load returns every non-blank record of firm's table in file order.
// It does not take the firm's lock.
func (s *Store) Load(ctx context.Context, firm string) ([]record.CaseRecord, error) {
	f, err := s.Firm(firm)
	if err != nil {
		return nil, err
	}
	t, err := s.readTable(f.Name)
	if err != nil {
		return nil, err
	}

	idx := t.Index()
	records := make([]record.CaseRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.Blank() {
			continue
		}
		records = append(records, rowRecord(idx, row))
	}
	return records, nil
}

// FindByKey returns the record with the given key. Index numbers compare
// case-insensitively and dates by canonical string.
func (s *Store) FindByKey(ctx context.Context, firm, indexNumber, appearanceDate string) (record.CaseRecord, bool, error) {
	records, err := s.Load(ctx, firm)
	if err != nil {
		return record.CaseRecord{}, false, err
	}
	want := record.Key{IndexNumber: indexNumber, AppearanceDate: appearanceDate}
	for _, r := range records {
		if r.Key().Matches(want) {
			return r, true, nil
		}
	}
	return record.CaseRecord{}, false, nil
}

// FindByInvoiceNumber returns the record carrying invoiceNumber.
func (s *Store) FindByInvoiceNumber(ctx context.Context, firm, invoiceNumber string) (record.CaseRecord, bool, error) {
	records, err := s.Load(ctx, firm)
	if err != nil {
		return record.CaseRecord{}, false, err
	}
	want := strings.TrimSpace(invoiceNumber)
	if want == "" {
		return record.CaseRecord{}, false, nil
	}
	for _, r := range records {
		if r.InvoiceNumber == want {
			return r, true, nil
		}
	}
	return record.CaseRecord{}, false, nil
}

// QueryByDateRange returns records whose appearance date falls within
// [start, end], both inclusive by calendar day, sorted ascending by date.
// Records with unparsable dates are excluded. Records on the same date keep
// their table order.
func (s *Store) QueryByDateRange(ctx context.Context, firm string, start, end time.Time) ([]record.CaseRecord, error) {
	records, err := s.Load(ctx, firm)
	if err != nil {
		return nil, err
	}

	from, to := record.FormatDate(start), record.FormatDate(end)

	type dated struct {
		date string
		rec  record.CaseRecord
	}
	var hits []dated
	for _, r := range records {
		d, ok := record.CanonicalDate(r.AppearanceDate)
		if !ok || d < from || d > to {
			continue
		}
		hits = append(hits, dated{date: d, rec: r})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].date < hits[j].date })

	out := make([]record.CaseRecord, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out, nil
}
