package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical on-disk date format.
const DateLayout = "2006-01-02"

// Datetime layouts accepted as "already a date" and reduced to their date part.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate parses a canonical date or a datetime whose date part is used.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
}

// CanonicalDate returns s in YYYY-MM-DD form if it parses.
func CanonicalDate(s string) (string, bool) {
	t, err := ParseDate(s)
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}

// FormatDate renders t as a canonical date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseAmount parses a charge amount. Blank input is an error.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("charge_amount is blank")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("charge_amount %q is not a number", s)
	}
	return d, nil
}

// FormatAmount renders a charge with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
