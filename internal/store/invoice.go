package store

import (
	"context"

	"github.com/roach88/casebook/internal/config"
	"github.com/roach88/casebook/internal/record"
)

// Assignment is one invoice number issued by AssignMissing.
type Assignment struct {
	Key           record.Key `json:"key"`
	CaseCaption   string     `json:"case_caption"`
	InvoiceNumber string     `json:"invoice_number"`
}

// NextInvoiceNumber takes the firm's lock and issues the next number from
// its counter. The number is not attached to any record.
func (s *Store) NextInvoiceNumber(ctx context.Context, firm string) (string, error) {
	f, err := s.Firm(firm)
	if err != nil {
		return "", err
	}
	var number string
	err = s.lock.With(ctx, f.Name, func() error {
		number, err = s.next(f)
		return err
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// AssignMissing gives every record without an invoice number the next number
// from the firm's counter, in table order, under one hold of the firm's lock.
// It returns the assignments made, empty when nothing was missing.
//
// Counter updates are persisted as each number is issued. If the table write
// fails afterwards, the issued numbers are skipped, never reused.
func (s *Store) AssignMissing(ctx context.Context, firm string) ([]Assignment, error) {
	f, err := s.Firm(firm)
	if err != nil {
		return nil, err
	}

	var assigned []Assignment
	err = s.lock.With(ctx, f.Name, func() error {
		t, err := s.readTable(f.Name)
		if err != nil {
			return err
		}
		idx := t.Index()

		for i := range t.Rows {
			if t.Rows[i].Blank() {
				continue
			}
			rec := rowRecord(idx, t.Rows[i])
			if rec.HasInvoiceNumber() {
				continue
			}
			number, err := s.next(f)
			if err != nil {
				return err
			}
			rec.InvoiceNumber = number
			setRecord(idx, &t.Rows[i], rec)
			assigned = append(assigned, Assignment{
				Key:           rec.Key(),
				CaseCaption:   rec.CaseCaption,
				InvoiceNumber: number,
			})
		}

		if len(assigned) == 0 {
			return nil
		}
		return s.writeTable(f.Name, t)
	})
	if err != nil {
		return nil, err
	}

	if len(assigned) > 0 {
		s.logger.Info("invoice numbers assigned", "firm", f.Name, "count", len(assigned),
			"first", assigned[0].InvoiceNumber, "last", assigned[len(assigned)-1].InvoiceNumber)
	}
	return assigned, nil
}

// next must run with the firm's lock held.
func (s *Store) next(f config.FirmConfig) (string, error) {
	return s.counter.Next(f.Firm(), s.cfg.InvoiceNumbering.Format, s.cfg.InvoiceNumbering.Reset())
}
