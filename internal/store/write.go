package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/casebook/internal/audit"
	"github.com/roach88/casebook/internal/record"
)

// Action reports what an upsert did.
type Action string

const (
	Inserted Action = "inserted"
	Updated  Action = "updated"
)

// Result is the outcome of one upsert in a batch.
type Result struct {
	Key    record.Key `json:"key"`
	Action Action     `json:"action"`
}

// Upsert inserts or updates the record identified by u's key, under the
// firm's lock. On update only the fields set in u are overwritten. On insert
// the new row carries u's fields and leaves the rest empty; u must set the
// required fields (case_caption, charge_amount).
func (s *Store) Upsert(ctx context.Context, firm string, u record.Update) (Action, error) {
	results, err := s.UpsertBatch(ctx, firm, []record.Update{u})
	if err != nil {
		return "", err
	}
	return results[0].Action, nil
}

// UpsertBatch applies updates in order under a single hold of the firm's
// lock and writes the table once. Every update is checked before anything is
// written: one invalid update fails the whole batch. Later updates in the
// batch see earlier ones, so a key repeated in the batch is inserted once and
// then updated.
func (s *Store) UpsertBatch(ctx context.Context, firm string, updates []record.Update) ([]Result, error) {
	f, err := s.Firm(firm)
	if err != nil {
		return nil, err
	}
	for _, u := range updates {
		if errs := u.Validate(false); len(errs) > 0 {
			return nil, validationError(f.Name, u.Key(), errs)
		}
	}

	var results []Result
	err = s.lock.With(ctx, f.Name, func() error {
		t, err := s.readTable(f.Name)
		if err != nil {
			return err
		}
		idx := t.Index()
		keys := keyIndex(t, idx)

		results = make([]Result, 0, len(updates))
		for _, u := range updates {
			key := u.Key().Normalized()
			if pos, ok := keys[key]; ok {
				rec := rowRecord(idx, t.Rows[pos])
				u.ApplyTo(&rec)
				setRecord(idx, &t.Rows[pos], rec)
				results = append(results, Result{Key: rec.Key(), Action: Updated})
				continue
			}

			if errs := u.Validate(true); len(errs) > 0 {
				return validationError(f.Name, u.Key(), errs)
			}
			rec := u.NewRecord()
			row := t.Append(nil)
			setRecord(idx, &row, rec)
			t.Rows[len(t.Rows)-1] = row
			keys[key] = len(t.Rows) - 1
			results = append(results, Result{Key: rec.Key(), Action: Inserted})
		}

		return s.writeTable(f.Name, t)
	})
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		s.logger.Info("case "+string(r.Action), "firm", f.Name, "key", r.Key.String())
	}
	return results, nil
}

// EditableFields lists the fields EditField accepts.
func EditableFields() []string {
	fields := make([]string, 0, len(audit.EditActions))
	for f := range audit.EditActions {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Change is the outcome of EditField.
type Change struct {
	Firm     string      `json:"firm"`
	Key      record.Key  `json:"key"`
	Field    string      `json:"field"`
	OldValue string      `json:"old_value"`
	NewValue string      `json:"new_value"`
	Reason   string      `json:"reason,omitempty"`
	Audit    audit.Entry `json:"audit"`
}

// EditField changes one editable field of an existing record and records the
// change in the audit log.
//
// Failures, checked in this order and before any mutation:
//   - FIELD_NOT_FOUND: field is not editable
//   - CASE_NOT_FOUND: no record has the key
//   - REASON_REQUIRED: charge_amount edit on an invoiced record without a reason
//   - VALIDATION_FAILED: charge_amount not a non-negative number, or
//     case_status not an allowed status
//
// The audit entry is appended after the table write commits. If the append
// fails the edit stays committed and the returned error says so.
func (s *Store) EditField(ctx context.Context, firm, indexNumber, appearanceDate, field, value, reason string) (Change, error) {
	field = strings.TrimSpace(field)
	if _, ok := audit.EditActions[field]; !ok {
		return Change{}, &Error{
			Code:    CodeFieldNotFound,
			Message: fmt.Sprintf("field %q is not editable (allowed: %s)", field, strings.Join(EditableFields(), ", ")),
			Field:   field,
		}
	}

	f, err := s.Firm(firm)
	if err != nil {
		return Change{}, err
	}
	want := record.Key{IndexNumber: indexNumber, AppearanceDate: appearanceDate}
	reason = strings.TrimSpace(reason)

	var change Change
	err = s.lock.With(ctx, f.Name, func() error {
		t, err := s.readTable(f.Name)
		if err != nil {
			return err
		}
		idx := t.Index()
		pos, ok := keyIndex(t, idx)[want.Normalized()]
		if !ok {
			return &Error{
				Code:    CodeCaseNotFound,
				Message: fmt.Sprintf("no case with index %q on %s", strings.TrimSpace(indexNumber), strings.TrimSpace(appearanceDate)),
				Firm:    f.Name,
				Key:     want.String(),
			}
		}
		rec := rowRecord(idx, t.Rows[pos])

		if field == record.ColChargeAmount && rec.InvoiceSent() && reason == "" {
			return &Error{
				Code:    CodeReasonRequired,
				Message: fmt.Sprintf("invoice was sent on %s; editing charge_amount requires a reason", rec.InvoiceSentDate),
				Firm:    f.Name,
				Key:     rec.Key().String(),
				Field:   field,
			}
		}

		coerced, err := coerce(field, value)
		if err != nil {
			return &Error{
				Code:    CodeValidationFailed,
				Message: err.Error(),
				Firm:    f.Name,
				Key:     rec.Key().String(),
				Field:   field,
			}
		}

		old, _ := rec.Get(field)
		rec.Set(field, coerced)
		setRecord(idx, &t.Rows[pos], rec)
		if err := s.writeTable(f.Name, t); err != nil {
			return err
		}

		change = Change{
			Firm:     f.Name,
			Key:      rec.Key(),
			Field:    field,
			OldValue: old,
			NewValue: coerced,
			Reason:   reason,
		}
		return nil
	})
	if err != nil {
		return Change{}, err
	}

	s.logger.Info("case field edited", "firm", f.Name, "key", change.Key.String(), "field", field)

	entry, err := s.audit.Edit(ctx, f.Name, change.Key, field, change.OldValue, change.NewValue, reason)
	if err != nil {
		return change, fmt.Errorf("edit of %s on %s committed but not audited: %w", field, change.Key, err)
	}
	change.Audit = entry
	return change, nil
}

// coerce validates value for field and returns its stored form.
func coerce(field, value string) (string, error) {
	switch field {
	case record.ColChargeAmount:
		d, err := record.ParseAmount(value)
		if err != nil {
			return "", err
		}
		if d.IsNegative() {
			return "", fmt.Errorf("charge_amount %q is negative", strings.TrimSpace(value))
		}
		return record.FormatAmount(d), nil
	case record.ColCaseStatus:
		status := record.CaseStatus(strings.TrimSpace(value))
		if status == "" || !status.Valid() {
			return "", fmt.Errorf("case_status %q not in %v", value, record.CaseStatuses)
		}
		return string(status), nil
	default:
		return value, nil
	}
}
