package record

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key identifies one record within a firm: (index_number, appearance_date).
type Key struct {
	IndexNumber    string `json:"index_number"`
	AppearanceDate string `json:"appearance_date"`
}

// String renders the key the way the audit log stores it: "index|date".
func (k Key) String() string {
	return k.IndexNumber + "|" + k.AppearanceDate
}

// Normalized returns the comparison form of the key: folded, trimmed index
// number and canonical date (or the trimmed raw date if it does not parse).
func (k Key) Normalized() Key {
	date := strings.TrimSpace(k.AppearanceDate)
	if canonical, ok := CanonicalDate(date); ok {
		date = canonical
	}
	return Key{
		IndexNumber:    FoldIndex(k.IndexNumber),
		AppearanceDate: date,
	}
}

// Matches reports whether two keys identify the same record.
func (k Key) Matches(other Key) bool {
	return k.Normalized() == other.Normalized()
}

// FoldIndex is the case-insensitive comparison form of an index number.
func FoldIndex(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// EqualFold compares two strings under Unicode case folding, ignoring
// surrounding whitespace.
func EqualFold(a, b string) bool {
	return FoldIndex(a) == FoldIndex(b)
}
