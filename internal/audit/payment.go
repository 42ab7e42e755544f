package audit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/casebook/internal/clock"
	"github.com/roach88/casebook/internal/record"
)

// PaymentColumns is the payment log header.
var PaymentColumns = []string{
	"timestamp",
	"invoice_number",
	"case_caption",
	"old_status",
	"new_status",
	"payment_date",
}

// PaymentEntry is one payment status change.
type PaymentEntry struct {
	Timestamp     time.Time         `json:"timestamp"`
	InvoiceNumber string            `json:"invoice_number"`
	CaseCaption   string            `json:"case_caption"`
	OldStatus     record.PaidStatus `json:"old_status"`
	NewStatus     record.PaidStatus `json:"new_status"`
	PaymentDate   string            `json:"payment_date,omitempty"`
}

func (e PaymentEntry) cells() []string {
	return []string{
		e.Timestamp.Format(TimestampLayout),
		e.InvoiceNumber,
		e.CaseCaption,
		string(e.OldStatus),
		string(e.NewStatus),
		e.PaymentDate,
	}
}

// PaymentLog appends to per-firm payment logs.
type PaymentLog struct {
	path   func(firm string) string
	clock  clock.Clock
	logger *slog.Logger
}

// NewPaymentLog returns a PaymentLog writing firm's entries to path(firm).
func NewPaymentLog(path func(firm string) string, opts ...Option) *PaymentLog {
	o := resolve(opts)
	return &PaymentLog{path: path, clock: o.clock, logger: o.logger}
}

// Append writes one entry to firm's payment log, stamping it if needed.
func (l *PaymentLog) Append(firm string, e PaymentEntry) (PaymentEntry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.clock.Now()
	}
	if err := appendRow(l.path(firm), PaymentColumns, e.cells()); err != nil {
		l.logger.Error("payment log append failed", "firm", firm, "invoice", e.InvoiceNumber, "error", err)
		return PaymentEntry{}, fmt.Errorf("append payment entry: %w", err)
	}
	return e, nil
}

// Read returns firm's payment entries in file order. A missing log is empty.
func (l *PaymentLog) Read(firm string) ([]PaymentEntry, error) {
	t, err := readLog(l.path(firm))
	if err != nil || t == nil {
		return nil, err
	}
	idx := t.Index()
	var out []PaymentEntry
	for _, row := range t.Rows {
		if row.Blank() {
			continue
		}
		get := cellGetter(idx, row.Cells)
		out = append(out, PaymentEntry{
			Timestamp:     parseTimestamp(get("timestamp")),
			InvoiceNumber: get("invoice_number"),
			CaseCaption:   get("case_caption"),
			OldStatus:     record.PaidStatus(get("old_status")),
			NewStatus:     record.PaidStatus(get("new_status")),
			PaymentDate:   get("payment_date"),
		})
	}
	return out, nil
}
