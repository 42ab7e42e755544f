// Package invoice assigns sequential invoice numbers from a per-firm
// persistent counter and renders them through a numbering template.
package invoice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTemplate renders initials, four-digit year and a three-digit
// sequence, e.g. AL2026001.
const DefaultTemplate = "{initials}{year}{number:03d}"

// numberRe matches {number}, {number:03d} and {number:3d}.
var numberRe = regexp.MustCompile(`\{number(?::(0?)(\d+)d)?\}`)

// Format renders an invoice number.
//
// Supported tokens:
//   - {initials}: the firm's initials
//   - {year}: the counter year
//   - {number}: the sequence number
//   - {number:0Nd}: the sequence zero-padded to N digits
//   - {number:Nd}: the sequence space-padded to N digits
//
// Any brace left after substitution is an error.
func Format(template, initials string, year, number int) (string, error) {
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}
	if number <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", number)
	}
	if !numberRe.MatchString(template) {
		return "", fmt.Errorf("invoice number template %q has no {number} token", template)
	}

	out := strings.ReplaceAll(template, "{initials}", initials)
	out = strings.ReplaceAll(out, "{year}", strconv.Itoa(year))

	out = numberRe.ReplaceAllStringFunc(out, func(m string) string {
		match := numberRe.FindStringSubmatch(m)
		if match[2] == "" {
			return strconv.Itoa(number)
		}
		width, err := strconv.Atoi(match[2])
		if err != nil || width <= 0 {
			return m
		}
		if match[1] == "0" {
			return fmt.Sprintf("%0*d", width, number)
		}
		return fmt.Sprintf("%*d", width, number)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}
	return out, nil
}

// CheckTemplate reports whether template renders for a sample firm.
func CheckTemplate(template string) error {
	_, err := Format(template, "XX", 2000, 1)
	return err
}
