package record

import (
	"fmt"
	"strings"
)

// CaseStatus is the procedural state of a case. The zero value is blank.
type CaseStatus string

const (
	StatusOpen      CaseStatus = "Open"
	StatusAdjourned CaseStatus = "Adjourned"
	StatusClosed    CaseStatus = "Closed"
	StatusSettled   CaseStatus = "Settled"
	StatusDismissed CaseStatus = "Dismissed"
)

// CaseStatuses lists the allowed non-blank case statuses.
var CaseStatuses = []CaseStatus{StatusOpen, StatusAdjourned, StatusClosed, StatusSettled, StatusDismissed}

// Valid reports whether s is blank or one of CaseStatuses.
func (s CaseStatus) Valid() bool {
	if strings.TrimSpace(string(s)) == "" {
		return true
	}
	for _, allowed := range CaseStatuses {
		if CaseStatus(strings.TrimSpace(string(s))) == allowed {
			return true
		}
	}
	return false
}

// ParseCaseStatus trims s and checks membership. Blank is allowed.
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(strings.TrimSpace(s))
	if !status.Valid() {
		return "", fmt.Errorf("case_status %q not in %v", s, CaseStatuses)
	}
	return status, nil
}

// PaidStatus is the payment state of an invoiced record. The zero value is blank.
type PaidStatus string

const (
	PaidPaid    PaidStatus = "Paid"
	PaidUnpaid  PaidStatus = "Unpaid"
	PaidPartial PaidStatus = "Partial"
)

// PaidStatuses lists the allowed non-blank paid statuses.
var PaidStatuses = []PaidStatus{PaidPaid, PaidUnpaid, PaidPartial}

// Valid reports whether s is blank or one of PaidStatuses.
func (s PaidStatus) Valid() bool {
	if strings.TrimSpace(string(s)) == "" {
		return true
	}
	for _, allowed := range PaidStatuses {
		if PaidStatus(strings.TrimSpace(string(s))) == allowed {
			return true
		}
	}
	return false
}

// ParsePaidStatus trims s and checks membership. Blank is allowed.
func ParsePaidStatus(s string) (PaidStatus, error) {
	status := PaidStatus(strings.TrimSpace(s))
	if !status.Valid() {
		return "", fmt.Errorf("paid_status %q not in %v", s, PaidStatuses)
	}
	return status, nil
}
