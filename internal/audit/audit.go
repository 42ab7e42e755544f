// Package audit keeps the append-only change history: the shared audit log
// of field-level edits across all firms, and each firm's payment log.
//
// Logs are CSV files that are only ever appended to. Each row goes out in a
// single write on an O_APPEND descriptor, so concurrent writers from
// different firms interleave whole rows, never partial ones. A new log is
// created together with its header atomically.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/casebook/internal/clock"
	"github.com/roach88/casebook/internal/identity"
	"github.com/roach88/casebook/internal/record"
)

// TimestampLayout is how log timestamps are written.
const TimestampLayout = "2006-01-02 15:04:05"

// Columns is the audit log header.
var Columns = []string{
	"timestamp",
	"user",
	"hostname",
	"action",
	"firm",
	"case_key",
	"field_name",
	"old_value",
	"new_value",
	"reason",
}

// Action names the kind of edit.
type Action string

const (
	ActionEditCharge  Action = "EDIT_CHARGE"
	ActionEditCourt   Action = "EDIT_COURT"
	ActionEditOutcome Action = "EDIT_OUTCOME"
	ActionEditStatus  Action = "EDIT_STATUS"
	ActionEditNotes   Action = "EDIT_NOTES"
)

// EditActions maps each editable field to its audit action.
var EditActions = map[string]Action{
	record.ColChargeAmount: ActionEditCharge,
	record.ColCourt:        ActionEditCourt,
	record.ColOutcome:      ActionEditOutcome,
	record.ColCaseStatus:   ActionEditStatus,
	record.ColNotes:        ActionEditNotes,
}

// Entry is one audit row.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Hostname  string    `json:"hostname"`
	Action    Action    `json:"action"`
	Firm      string    `json:"firm"`
	CaseKey   string    `json:"case_key"`
	Field     string    `json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Reason    string    `json:"reason,omitempty"`
}

func (e Entry) cells() []string {
	return []string{
		e.Timestamp.Format(TimestampLayout),
		e.User,
		e.Hostname,
		string(e.Action),
		e.Firm,
		e.CaseKey,
		e.Field,
		e.OldValue,
		e.NewValue,
		e.Reason,
	}
}

// Log appends to the shared audit log.
type Log struct {
	path   string
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Log or PaymentLog.
type Option func(*options)

type options struct {
	clock  clock.Clock
	logger *slog.Logger
}

// WithClock sets the timestamp clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func resolve(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.clock = clock.Or(o.clock)
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// NewLog returns a Log writing to path.
func NewLog(path string, opts ...Option) *Log {
	o := resolve(opts)
	return &Log{path: path, clock: o.clock, logger: o.logger}
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Append writes one entry. A zero Timestamp is filled from the clock and a
// blank User or Hostname from the actor on ctx. The completed entry is
// returned.
func (l *Log) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.clock.Now()
	}
	if e.User == "" || e.Hostname == "" {
		actor := identity.FromContext(ctx)
		if e.User == "" {
			e.User = actor.User
		}
		if e.Hostname == "" {
			e.Hostname = actor.Hostname
		}
	}
	if e.Action == "" {
		return Entry{}, fmt.Errorf("audit entry has no action")
	}

	if err := appendRow(l.path, Columns, e.cells()); err != nil {
		l.logger.Error("audit append failed", "firm", e.Firm, "case_key", e.CaseKey, "field", e.Field, "error", err)
		return Entry{}, fmt.Errorf("append audit entry: %w", err)
	}
	l.logger.Debug("audit entry appended", "firm", e.Firm, "action", e.Action, "case_key", e.CaseKey)
	return e, nil
}

// Edit records a field edit on the record identified by key.
func (l *Log) Edit(ctx context.Context, firm string, key record.Key, field, oldValue, newValue, reason string) (Entry, error) {
	action, ok := EditActions[field]
	if !ok {
		return Entry{}, fmt.Errorf("field %q has no audit action", field)
	}
	return l.Append(ctx, Entry{
		Action:   action,
		Firm:     firm,
		CaseKey:  key.String(),
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
		Reason:   reason,
	})
}
