package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/casebook/internal/audit"
	"github.com/roach88/casebook/internal/clock"
	"github.com/roach88/casebook/internal/config"
	"github.com/roach88/casebook/internal/firmlock"
	"github.com/roach88/casebook/internal/invoice"
	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/table"
	"github.com/roach88/casebook/internal/validate"
)

// Lock serializes mutations of one firm. fn runs while the firm's lock is
// held, and the lock is released however fn exits.
type Lock interface {
	With(ctx context.Context, firm string, fn func() error) error
}

// Store provides record operations over the firms of one configuration.
type Store struct {
	cfg      *config.Config
	lock     Lock
	counter  *invoice.Sequencer
	audit    *audit.Log
	payments *audit.PaymentLog
	clock    clock.Clock
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLock replaces the default OS file lock.
func WithLock(l Lock) Option {
	return func(s *Store) { s.lock = l }
}

// WithClock sets the clock used for invoice years, payment dates and audit
// timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store for cfg. Unless WithLock is given, firm locks are OS
// advisory locks on each firm's sentinel, tuned by cfg.Lock.
func New(cfg *config.Config, opts ...Option) *Store {
	s := &Store{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = clock.Or(s.clock)
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.lock == nil {
		s.lock = firmlock.New(cfg.LockPath,
			firmlock.WithTimeout(cfg.Lock.Timeout),
			firmlock.WithRetryInterval(cfg.Lock.RetryInterval),
			firmlock.WithClock(s.clock),
			firmlock.WithLogger(s.logger),
		)
	}
	s.counter = invoice.NewSequencer(cfg.CounterPath,
		invoice.WithClock(s.clock),
		invoice.WithLogger(s.logger),
	)
	s.audit = audit.NewLog(cfg.AuditLogPath(),
		audit.WithClock(s.clock),
		audit.WithLogger(s.logger),
	)
	s.payments = audit.NewPaymentLog(cfg.PaymentLogPath,
		audit.WithClock(s.clock),
		audit.WithLogger(s.logger),
	)
	return s
}

// Config returns the store's configuration.
func (s *Store) Config() *config.Config { return s.cfg }

// AuditLog returns the shared audit log.
func (s *Store) AuditLog() *audit.Log { return s.audit }

// PaymentLog returns the per-firm payment logs.
func (s *Store) PaymentLog() *audit.PaymentLog { return s.payments }

// Firm resolves a firm name case-insensitively to its configuration.
func (s *Store) Firm(name string) (config.FirmConfig, error) {
	f, ok := s.cfg.Lookup(name)
	if !ok {
		return config.FirmConfig{}, &Error{
			Code:    CodeFirmNotFound,
			Message: fmt.Sprintf("firm %q is not configured (known: %s)", strings.TrimSpace(name), strings.Join(s.cfg.FirmNames(), ", ")),
			Firm:    strings.TrimSpace(name),
		}
	}
	return f, nil
}

// readTable loads firm's table and checks its header.
func (s *Store) readTable(firm string) (*table.Table, error) {
	path := s.cfg.TablePath(firm)
	t, err := table.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &Error{
			Code:    CodeDatasetNotFound,
			Message: fmt.Sprintf("dataset not found: %s (run 'casebook init' first)", path),
			Firm:    firm,
			Err:     err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", firm, err)
	}
	if v := validate.Header(t); v != nil {
		return nil, &Error{
			Code:    CodeValidationFailed,
			Message: v.Message,
			Firm:    firm,
			Rule:    v.Code,
			Err:     &validate.Error{Violations: []validate.Violation{*v}},
		}
	}
	return t, nil
}

func (s *Store) writeTable(firm string, t *table.Table) error {
	if err := t.Write(s.cfg.TablePath(firm)); err != nil {
		return fmt.Errorf("save %s: %w", firm, err)
	}
	return nil
}

// rowRecord converts a data row using the table's column index.
func rowRecord(idx map[string]int, row table.Row) record.CaseRecord {
	var r record.CaseRecord
	for _, col := range record.Columns {
		if i, ok := idx[col]; ok && i < len(row.Cells) {
			r.Set(col, strings.TrimSpace(row.Cells[i]))
		}
	}
	return r
}

// setRecord writes r's schema columns into row, keeping any extra columns.
func setRecord(idx map[string]int, row *table.Row, r record.CaseRecord) {
	for _, col := range record.Columns {
		i, ok := idx[col]
		if !ok {
			continue
		}
		for len(row.Cells) <= i {
			row.Cells = append(row.Cells, "")
		}
		v, _ := r.Get(col)
		row.Cells[i] = v
	}
}

// keyIndex maps normalized keys to row positions in t.Rows. The first row
// wins for keys that are already duplicated on disk.
func keyIndex(t *table.Table, idx map[string]int) map[record.Key]int {
	keys := make(map[record.Key]int, len(t.Rows))
	for i, row := range t.Rows {
		if row.Blank() {
			continue
		}
		k := rowRecord(idx, row).Key().Normalized()
		if _, dup := keys[k]; !dup {
			keys[k] = i
		}
	}
	return keys
}

func validationError(firm string, key record.Key, errs []record.FieldError) *Error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return &Error{
		Code:    CodeValidationFailed,
		Message: strings.Join(msgs, "; "),
		Firm:    firm,
		Key:     key.String(),
		Field:   errs[0].Field,
	}
}
