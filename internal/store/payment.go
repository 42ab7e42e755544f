package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/casebook/internal/audit"
	"github.com/roach88/casebook/internal/record"
)

// PaymentUpdate changes the payment state of an invoiced record.
type PaymentUpdate struct {
	InvoiceNumber string
	Status        record.PaidStatus
	// PaymentDate is optional. Marking Paid without a date, on a record with
	// no stored payment date, records today's date.
	PaymentDate string
	// Notes replaces the record's notes when non-nil.
	Notes *string
}

// Payment is the outcome of MarkPayment.
type Payment struct {
	Record record.CaseRecord  `json:"record"`
	Entry  audit.PaymentEntry `json:"entry"`
}

// MarkPayment sets paid_status (and payment_date, notes) on the record with
// the given invoice number, under the firm's lock, then appends the change to
// the firm's payment log while the lock is still held.
func (s *Store) MarkPayment(ctx context.Context, firm string, p PaymentUpdate) (Payment, error) {
	f, err := s.Firm(firm)
	if err != nil {
		return Payment{}, err
	}

	number := strings.TrimSpace(p.InvoiceNumber)
	status := record.PaidStatus(strings.TrimSpace(string(p.Status)))
	if status == "" || !status.Valid() {
		return Payment{}, &Error{
			Code:    CodeValidationFailed,
			Message: fmt.Sprintf("paid_status %q not in %v", p.Status, record.PaidStatuses),
			Firm:    f.Name,
			Field:   record.ColPaidStatus,
		}
	}
	date := strings.TrimSpace(p.PaymentDate)
	if date != "" {
		canonical, ok := record.CanonicalDate(date)
		if !ok {
			return Payment{}, &Error{
				Code:    CodeValidationFailed,
				Message: fmt.Sprintf("payment_date %q is not YYYY-MM-DD", date),
				Firm:    f.Name,
				Field:   record.ColPaymentDate,
			}
		}
		date = canonical
	}

	var out Payment
	err = s.lock.With(ctx, f.Name, func() error {
		t, err := s.readTable(f.Name)
		if err != nil {
			return err
		}
		idx := t.Index()

		pos := -1
		for i, row := range t.Rows {
			if !row.Blank() && number != "" && rowRecord(idx, row).InvoiceNumber == number {
				pos = i
				break
			}
		}
		if pos < 0 {
			return &Error{
				Code:    CodeInvoiceNotFound,
				Message: fmt.Sprintf("invoice %q not found in %s's dataset", number, f.Name),
				Firm:    f.Name,
			}
		}

		rec := rowRecord(idx, t.Rows[pos])
		old := rec.PaidStatus

		rec.PaidStatus = status
		switch {
		case date != "":
			rec.PaymentDate = date
		case status == record.PaidPaid && strings.TrimSpace(rec.PaymentDate) == "":
			rec.PaymentDate = record.FormatDate(s.clock.Now())
		}
		if p.Notes != nil {
			rec.Notes = *p.Notes
		}

		setRecord(idx, &t.Rows[pos], rec)
		if err := s.writeTable(f.Name, t); err != nil {
			return err
		}

		entry, err := s.payments.Append(f.Name, audit.PaymentEntry{
			InvoiceNumber: number,
			CaseCaption:   rec.CaseCaption,
			OldStatus:     old,
			NewStatus:     status,
			PaymentDate:   rec.PaymentDate,
		})
		if err != nil {
			return fmt.Errorf("payment on %s committed but not logged: %w", number, err)
		}
		out = Payment{Record: rec, Entry: entry}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	s.logger.Info("payment marked", "firm", f.Name, "invoice", number, "from", out.Entry.OldStatus, "to", status)
	return out, nil
}
