package record

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Update is a field update set for one record. The key fields are always
// required; every other field is applied only when non-nil, so omitted fields
// keep their stored values.
type Update struct {
	IndexNumber    string
	AppearanceDate string

	InvoiceNumber   *string
	CaseCaption     *string
	Court           *string
	Outcome         *string
	CaseStatus      *CaseStatus
	ChargeAmount    *decimal.Decimal
	InvoiceSentDate *string
	PaidStatus      *PaidStatus
	PaymentDate     *string
	Notes           *string
}

// Some returns a pointer to v, for building Update values inline.
func Some[T any](v T) *T {
	return &v
}

// FieldError describes one problem with a field value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Key returns the update's target key.
func (u Update) Key() Key {
	return Key{IndexNumber: u.IndexNumber, AppearanceDate: u.AppearanceDate}
}

// Validate checks the update in isolation. insert adds the checks that only
// apply when the key is new: a new row must carry every required field.
func (u Update) Validate(insert bool) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(u.IndexNumber) == "" {
		errs = append(errs, FieldError{Field: ColIndexNumber, Message: "required"})
	}
	if strings.TrimSpace(u.AppearanceDate) == "" {
		errs = append(errs, FieldError{Field: ColAppearanceDate, Message: "required"})
	} else if _, err := ParseDate(u.AppearanceDate); err != nil {
		errs = append(errs, FieldError{Field: ColAppearanceDate, Message: err.Error()})
	}

	if u.CaseCaption != nil && strings.TrimSpace(*u.CaseCaption) == "" {
		errs = append(errs, FieldError{Field: ColCaseCaption, Message: "must not be blank"})
	}
	if u.ChargeAmount != nil && u.ChargeAmount.IsNegative() {
		errs = append(errs, FieldError{Field: ColChargeAmount, Message: "must not be negative"})
	}
	if u.CaseStatus != nil && !u.CaseStatus.Valid() {
		errs = append(errs, FieldError{Field: ColCaseStatus, Message: fmt.Sprintf("%q not in %v", *u.CaseStatus, CaseStatuses)})
	}
	if u.PaidStatus != nil && !u.PaidStatus.Valid() {
		errs = append(errs, FieldError{Field: ColPaidStatus, Message: fmt.Sprintf("%q not in %v", *u.PaidStatus, PaidStatuses)})
	}
	for _, d := range []struct {
		field string
		value *string
	}{
		{ColInvoiceSentDate, u.InvoiceSentDate},
		{ColPaymentDate, u.PaymentDate},
	} {
		if d.value == nil || strings.TrimSpace(*d.value) == "" {
			continue
		}
		if _, err := ParseDate(*d.value); err != nil {
			errs = append(errs, FieldError{Field: d.field, Message: err.Error()})
		}
	}

	if insert {
		if u.CaseCaption == nil {
			errs = append(errs, FieldError{Field: ColCaseCaption, Message: "required for a new record"})
		}
		if u.ChargeAmount == nil {
			errs = append(errs, FieldError{Field: ColChargeAmount, Message: "required for a new record"})
		}
	}

	return errs
}

// NewRecord builds the row inserted for a key that is not yet present.
// Unspecified fields are left empty.
func (u Update) NewRecord() CaseRecord {
	date := strings.TrimSpace(u.AppearanceDate)
	if canonical, ok := CanonicalDate(date); ok {
		date = canonical
	}
	r := CaseRecord{
		IndexNumber:    strings.TrimSpace(u.IndexNumber),
		AppearanceDate: date,
	}
	u.ApplyTo(&r)
	return r
}

// ApplyTo overwrites the fields present in the update. Key cells of an
// existing record are left as stored.
func (u Update) ApplyTo(r *CaseRecord) {
	if u.InvoiceNumber != nil {
		r.InvoiceNumber = strings.TrimSpace(*u.InvoiceNumber)
	}
	if u.CaseCaption != nil {
		r.CaseCaption = *u.CaseCaption
	}
	if u.Court != nil {
		r.Court = *u.Court
	}
	if u.Outcome != nil {
		r.Outcome = *u.Outcome
	}
	if u.CaseStatus != nil {
		r.CaseStatus = CaseStatus(strings.TrimSpace(string(*u.CaseStatus)))
	}
	if u.ChargeAmount != nil {
		r.ChargeAmount = FormatAmount(*u.ChargeAmount)
	}
	if u.InvoiceSentDate != nil {
		r.InvoiceSentDate = canonicalOrBlank(*u.InvoiceSentDate)
	}
	if u.PaidStatus != nil {
		r.PaidStatus = PaidStatus(strings.TrimSpace(string(*u.PaidStatus)))
	}
	if u.PaymentDate != nil {
		r.PaymentDate = canonicalOrBlank(*u.PaymentDate)
	}
	if u.Notes != nil {
		r.Notes = *u.Notes
	}
}

// Fields lists the column names the update sets, in canonical order.
func (u Update) Fields() []string {
	set := map[string]bool{
		ColInvoiceNumber:   u.InvoiceNumber != nil,
		ColCaseCaption:     u.CaseCaption != nil,
		ColCourt:           u.Court != nil,
		ColOutcome:         u.Outcome != nil,
		ColCaseStatus:      u.CaseStatus != nil,
		ColChargeAmount:    u.ChargeAmount != nil,
		ColInvoiceSentDate: u.InvoiceSentDate != nil,
		ColPaidStatus:      u.PaidStatus != nil,
		ColPaymentDate:     u.PaymentDate != nil,
		ColNotes:           u.Notes != nil,
	}
	var fields []string
	for _, col := range Columns {
		if set[col] {
			fields = append(fields, col)
		}
	}
	return fields
}

func canonicalOrBlank(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if canonical, ok := CanonicalDate(s); ok {
		return canonical
	}
	return s
}
