package record

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Column names of a firm's record table, in canonical header order.
const (
	ColAppearanceDate  = "appearance_date"
	ColInvoiceNumber   = "invoice_number"
	ColIndexNumber     = "index_number"
	ColCaseCaption     = "case_caption"
	ColCourt           = "court"
	ColOutcome         = "outcome"
	ColCaseStatus      = "case_status"
	ColChargeAmount    = "charge_amount"
	ColInvoiceSentDate = "invoice_sent_date"
	ColPaidStatus      = "paid_status"
	ColPaymentDate     = "payment_date"
	ColNotes           = "notes"
)

// Columns is the canonical header of a record table.
var Columns = []string{
	ColAppearanceDate,
	ColInvoiceNumber,
	ColIndexNumber,
	ColCaseCaption,
	ColCourt,
	ColOutcome,
	ColCaseStatus,
	ColChargeAmount,
	ColInvoiceSentDate,
	ColPaidStatus,
	ColPaymentDate,
	ColNotes,
}

// RequiredColumns must be non-blank on every data row.
var RequiredColumns = []string{
	ColCaseCaption,
	ColIndexNumber,
	ColAppearanceDate,
	ColChargeAmount,
}

// CaseRecord is one row of a firm's table: a single billable appearance.
type CaseRecord struct {
	AppearanceDate  string     `json:"appearance_date"`
	InvoiceNumber   string     `json:"invoice_number,omitempty"`
	IndexNumber     string     `json:"index_number"`
	CaseCaption     string     `json:"case_caption"`
	Court           string     `json:"court,omitempty"`
	Outcome         string     `json:"outcome,omitempty"`
	CaseStatus      CaseStatus `json:"case_status,omitempty"`
	ChargeAmount    string     `json:"charge_amount"`
	InvoiceSentDate string     `json:"invoice_sent_date,omitempty"`
	PaidStatus      PaidStatus `json:"paid_status,omitempty"`
	PaymentDate     string     `json:"payment_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// Key returns the record's composite key.
func (r CaseRecord) Key() Key {
	return Key{IndexNumber: r.IndexNumber, AppearanceDate: r.AppearanceDate}
}

// Charge parses the charge amount. A blank amount is an error.
func (r CaseRecord) Charge() (decimal.Decimal, error) {
	return ParseAmount(r.ChargeAmount)
}

// InvoiceSent reports whether the invoice for this record has gone out.
func (r CaseRecord) InvoiceSent() bool {
	return strings.TrimSpace(r.InvoiceSentDate) != ""
}

// HasInvoiceNumber reports whether a number was already assigned.
func (r CaseRecord) HasInvoiceNumber() bool {
	return strings.TrimSpace(r.InvoiceNumber) != ""
}

// Get returns the cell value for a column name.
func (r CaseRecord) Get(column string) (string, bool) {
	switch column {
	case ColAppearanceDate:
		return r.AppearanceDate, true
	case ColInvoiceNumber:
		return r.InvoiceNumber, true
	case ColIndexNumber:
		return r.IndexNumber, true
	case ColCaseCaption:
		return r.CaseCaption, true
	case ColCourt:
		return r.Court, true
	case ColOutcome:
		return r.Outcome, true
	case ColCaseStatus:
		return string(r.CaseStatus), true
	case ColChargeAmount:
		return r.ChargeAmount, true
	case ColInvoiceSentDate:
		return r.InvoiceSentDate, true
	case ColPaidStatus:
		return string(r.PaidStatus), true
	case ColPaymentDate:
		return r.PaymentDate, true
	case ColNotes:
		return r.Notes, true
	}
	return "", false
}

// Set assigns the cell value for a column name. Values are stored verbatim;
// callers that need validation go through Update.
func (r *CaseRecord) Set(column, value string) bool {
	switch column {
	case ColAppearanceDate:
		r.AppearanceDate = value
	case ColInvoiceNumber:
		r.InvoiceNumber = value
	case ColIndexNumber:
		r.IndexNumber = value
	case ColCaseCaption:
		r.CaseCaption = value
	case ColCourt:
		r.Court = value
	case ColOutcome:
		r.Outcome = value
	case ColCaseStatus:
		r.CaseStatus = CaseStatus(value)
	case ColChargeAmount:
		r.ChargeAmount = value
	case ColInvoiceSentDate:
		r.InvoiceSentDate = value
	case ColPaidStatus:
		r.PaidStatus = PaidStatus(value)
	case ColPaymentDate:
		r.PaymentDate = value
	case ColNotes:
		r.Notes = value
	default:
		return false
	}
	return true
}

// Firm is the slice of firm configuration the core consumes.
type Firm struct {
	Name     string
	Initials string
}
