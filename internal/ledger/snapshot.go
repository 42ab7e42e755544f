package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/casebook/internal/record"
)

// Snapshot is a firm's ledger as of one day.
type Snapshot struct {
	ID        string              `json:"id"`
	Firm      string              `json:"firm"`
	AsOf      string              `json:"as_of"`
	CreatedAt time.Time           `json:"created_at"`
	Summary   Summary             `json:"summary"`
	Aging     []Bucket            `json:"aging"`
	Records   []record.CaseRecord `json:"records,omitempty"`
}

// NewSnapshot computes the summary and aging of records as of asOf.
// Records keep their table order.
func NewSnapshot(firm string, records []record.CaseRecord, asOf time.Time) (Snapshot, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Snapshot{}, fmt.Errorf("generate snapshot id: %w", err)
	}
	return Snapshot{
		ID:        id.String(),
		Firm:      firm,
		AsOf:      record.FormatDate(asOf),
		CreatedAt: time.Now().UTC(),
		Summary:   Summarize(records),
		Aging:     Aging(records, asOf),
		Records:   records,
	}, nil
}

// Export writes a snapshot of records to the database at path, creating the
// database and its directory as needed.
func Export(ctx context.Context, path, firm string, records []record.CaseRecord, asOf time.Time) (Snapshot, error) {
	snap, err := NewSnapshot(firm, records, asOf)
	if err != nil {
		return Snapshot{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("prepare ledger directory: %w", err)
	}

	db, err := Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer db.Close()

	if err := db.Write(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Write stores snap in one transaction.
func (d *DB) Write(ctx context.Context, snap Snapshot) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	defer tx.Rollback()

	s := snap.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT INTO summary
		(id, firm, as_of, created_at, case_count, open_count, billed, paid, outstanding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.ID,
		snap.Firm,
		snap.AsOf,
		snap.CreatedAt.UTC().Format(time.RFC3339),
		s.Cases,
		s.Open,
		record.FormatAmount(s.Billed),
		record.FormatAmount(s.Paid),
		record.FormatAmount(s.Outstanding),
	)
	if err != nil {
		return fmt.Errorf("write snapshot summary: %w", err)
	}

	for i, b := range snap.Aging {
		var maxDays any
		if b.Max >= 0 {
			maxDays = b.Max
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO aging (export_id, seq, label, min_days, max_days, case_count, total)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, snap.ID, i, b.Label, b.Min, maxDays, b.Count, record.FormatAmount(b.Total))
		if err != nil {
			return fmt.Errorf("write snapshot aging %q: %w", b.Label, err)
		}
	}

	for i, r := range snap.Records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cases
			(export_id, seq, appearance_date, invoice_number, index_number, case_caption, court,
			 outcome, case_status, charge_amount, invoice_sent_date, paid_status, payment_date, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			snap.ID, i,
			r.AppearanceDate, r.InvoiceNumber, r.IndexNumber, r.CaseCaption, r.Court,
			r.Outcome, string(r.CaseStatus), r.ChargeAmount, r.InvoiceSentDate,
			string(r.PaidStatus), r.PaymentDate, r.Notes,
		)
		if err != nil {
			return fmt.Errorf("write snapshot case %s: %w", r.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Latest returns firm's most recent snapshot with its aging and cases.
func (d *DB) Latest(ctx context.Context, firm string) (Snapshot, bool, error) {
	var (
		snap                      Snapshot
		created                   string
		billed, paid, outstanding string
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT id, firm, as_of, created_at, case_count, open_count, billed, paid, outstanding
		FROM summary
		WHERE firm = ?
		ORDER BY id DESC
		LIMIT 1
	`, firm).Scan(&snap.ID, &snap.Firm, &snap.AsOf, &created,
		&snap.Summary.Cases, &snap.Summary.Open, &billed, &paid, &outstanding)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read snapshot summary: %w", err)
	}

	if snap.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return Snapshot{}, false, fmt.Errorf("read snapshot %s: created_at: %w", snap.ID, err)
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&snap.Summary.Billed, billed},
		{&snap.Summary.Paid, paid},
		{&snap.Summary.Outstanding, outstanding},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return Snapshot{}, false, fmt.Errorf("read snapshot %s: %w", snap.ID, err)
		}
	}

	if snap.Aging, err = d.readAging(ctx, snap.ID); err != nil {
		return Snapshot{}, false, err
	}
	if snap.Records, err = d.readCases(ctx, snap.ID); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (d *DB) readAging(ctx context.Context, id string) ([]Bucket, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT label, min_days, max_days, case_count, total
		FROM aging WHERE export_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read snapshot aging: %w", err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var (
			b       Bucket
			maxDays sql.NullInt64
			total   string
		)
		if err := rows.Scan(&b.Label, &b.Min, &maxDays, &b.Count, &total); err != nil {
			return nil, fmt.Errorf("scan snapshot aging: %w", err)
		}
		b.Max = -1
		if maxDays.Valid {
			b.Max = int(maxDays.Int64)
		}
		if b.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("scan snapshot aging %q: %w", b.Label, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (d *DB) readCases(ctx context.Context, id string) ([]record.CaseRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT appearance_date, invoice_number, index_number, case_caption, court, outcome,
		       case_status, charge_amount, invoice_sent_date, paid_status, payment_date, notes
		FROM cases WHERE export_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read snapshot cases: %w", err)
	}
	defer rows.Close()

	var out []record.CaseRecord
	for rows.Next() {
		var (
			r            record.CaseRecord
			status, paid string
		)
		if err := rows.Scan(&r.AppearanceDate, &r.InvoiceNumber, &r.IndexNumber, &r.CaseCaption,
			&r.Court, &r.Outcome, &status, &r.ChargeAmount, &r.InvoiceSentDate, &paid,
			&r.PaymentDate, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan snapshot case: %w", err)
		}
		r.CaseStatus = record.CaseStatus(status)
		r.PaidStatus = record.PaidStatus(paid)
		out = append(out, r)
	}
	return out, rows.Err()
}
