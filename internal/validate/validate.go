// Package validate checks a firm's record table against the case schema.
//
// Validation collects every violation in one pass. The only short circuit is
// a broken header: when schema columns are missing, row checks are skipped and
// a single MISSING_COLUMNS violation is returned.
package validate

import (
	"fmt"
	"strings"

	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/table"
)

// Violation codes.
const (
	CodeMissingColumns    = "MISSING_COLUMNS"     // header lacks schema columns
	CodeRequiredField     = "REQUIRED_FIELD"      // required cell blank
	CodeInvalidDate       = "INVALID_DATE"        // appearance_date not YYYY-MM-DD
	CodeInvalidAmount     = "INVALID_AMOUNT"      // charge_amount not a non-negative number
	CodeInvalidCaseStatus = "INVALID_CASE_STATUS" // case_status outside the allowed set
	CodeInvalidPaidStatus = "INVALID_PAID_STATUS" // paid_status outside the allowed set
	CodeDuplicateKey      = "DUPLICATE_KEY"       // (index_number, appearance_date) repeated
)

// Violation is one rule failure. Row is the 1-based table row (0 for header
// problems). FirstRow is set for duplicates and points at the earlier row.
type Violation struct {
	Row      int    `json:"row,omitempty"`
	FirstRow int    `json:"first_row,omitempty"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func (v Violation) Error() string {
	if v.Row > 0 {
		return fmt.Sprintf("[%s] row %d: %s", v.Code, v.Row, v.Message)
	}
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// Error wraps a non-empty violation list as a single failure.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 1 {
		return "validation failed: " + e.Violations[0].Error()
	}
	return fmt.Sprintf("validation failed: %d violations (first: %s)", len(e.Violations), e.Violations[0].Error())
}

// Check returns nil for a valid table or an *Error carrying every violation.
func Check(t *table.Table) error {
	if vs := Table(t); len(vs) > 0 {
		return &Error{Violations: vs}
	}
	return nil
}

// Header reports missing schema columns, or nil.
func Header(t *table.Table) *Violation {
	missing := t.Missing(record.Columns)
	if len(missing) == 0 {
		return nil
	}
	return &Violation{
		Code:    CodeMissingColumns,
		Message: fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")),
	}
}

// Table validates a whole table. An empty result means valid.
func Table(t *table.Table) []Violation {
	if v := Header(t); v != nil {
		return []Violation{*v}
	}

	idx := t.Index()
	cell := func(row table.Row, col string) string {
		return strings.TrimSpace(row.Cells[idx[col]])
	}

	var errs []Violation
	seen := make(map[record.Key]int)

	for _, row := range t.Rows {
		if row.Blank() {
			continue
		}

		for _, col := range record.RequiredColumns {
			if cell(row, col) == "" {
				errs = append(errs, Violation{
					Row:     row.Line,
					Field:   col,
					Code:    CodeRequiredField,
					Message: fmt.Sprintf("missing required field '%s'", col),
				})
			}
		}

		if ad := cell(row, record.ColAppearanceDate); ad != "" {
			if _, err := record.ParseDate(ad); err != nil {
				errs = append(errs, Violation{
					Row:     row.Line,
					Field:   record.ColAppearanceDate,
					Code:    CodeInvalidDate,
					Message: fmt.Sprintf("appearance_date '%s' is not YYYY-MM-DD", ad),
				})
			}
		}

		if amt := cell(row, record.ColChargeAmount); amt != "" {
			d, err := record.ParseAmount(amt)
			switch {
			case err != nil:
				errs = append(errs, Violation{
					Row:     row.Line,
					Field:   record.ColChargeAmount,
					Code:    CodeInvalidAmount,
					Message: fmt.Sprintf("charge_amount '%s' is not a number", amt),
				})
			case d.IsNegative():
				errs = append(errs, Violation{
					Row:     row.Line,
					Field:   record.ColChargeAmount,
					Code:    CodeInvalidAmount,
					Message: fmt.Sprintf("charge_amount '%s' is negative", amt),
				})
			}
		}

		if cs := cell(row, record.ColCaseStatus); cs != "" && !record.CaseStatus(cs).Valid() {
			errs = append(errs, Violation{
				Row:     row.Line,
				Field:   record.ColCaseStatus,
				Code:    CodeInvalidCaseStatus,
				Message: fmt.Sprintf("case_status '%s' not in %v", cs, record.CaseStatuses),
			})
		}

		if ps := cell(row, record.ColPaidStatus); ps != "" && !record.PaidStatus(ps).Valid() {
			errs = append(errs, Violation{
				Row:     row.Line,
				Field:   record.ColPaidStatus,
				Code:    CodeInvalidPaidStatus,
				Message: fmt.Sprintf("paid_status '%s' not in %v", ps, record.PaidStatuses),
			})
		}

		key := record.Key{
			IndexNumber:    cell(row, record.ColIndexNumber),
			AppearanceDate: cell(row, record.ColAppearanceDate),
		}.Normalized()
		if first, dup := seen[key]; dup {
			errs = append(errs, Violation{
				Row:      row.Line,
				FirstRow: first,
				Field:    record.ColIndexNumber,
				Code:     CodeDuplicateKey,
				Message: fmt.Sprintf("duplicate key (%s, %s), first seen at row %d",
					key.IndexNumber, key.AppearanceDate, first),
			})
			continue
		}
		seen[key] = row.Line
	}

	return errs
}
