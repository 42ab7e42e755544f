package store

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes store errors.
type Code string

const (
	// CodeFirmNotFound indicates the firm is not in the configuration.
	CodeFirmNotFound Code = "FIRM_NOT_FOUND"

	// CodeDatasetNotFound indicates the firm's table does not exist.
	CodeDatasetNotFound Code = "DATASET_NOT_FOUND"

	// CodeDatasetExists indicates Create would overwrite an existing table.
	CodeDatasetExists Code = "DATASET_EXISTS"

	// CodeValidationFailed indicates a schema, type or enum violation.
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// CodeCaseNotFound indicates no record has the requested key.
	CodeCaseNotFound Code = "CASE_NOT_FOUND"

	// CodeFieldNotFound indicates the field is not editable.
	CodeFieldNotFound Code = "FIELD_NOT_FOUND"

	// CodeReasonRequired indicates a charge edit after invoicing without a reason.
	CodeReasonRequired Code = "REASON_REQUIRED"

	// CodeInvoiceNotFound indicates no record carries the invoice number.
	CodeInvoiceNotFound Code = "INVOICE_NOT_FOUND"
)

// Error is a typed store failure. Firm, Key, Field and Rule carry whatever
// context applies.
type Error struct {
	Code    Code
	Message string
	Firm    string
	Key     string
	Field   string
	Rule    string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.Firm != "" {
		ctx = append(ctx, "firm="+e.Firm)
	}
	if e.Key != "" {
		ctx = append(ctx, "key="+e.Key)
	}
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	if e.Rule != "" {
		ctx = append(ctx, "rule="+e.Rule)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsCode reports whether err is or wraps a store *Error with code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first store *Error in err's chain, or "".
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
