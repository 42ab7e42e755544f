package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/table"
)

// Read returns the audit entries at path in file order. A missing log has no
// entries. Rows whose timestamp does not parse keep a zero Timestamp.
func Read(path string) ([]Entry, error) {
	t, err := readLog(path)
	if err != nil || t == nil {
		return nil, err
	}
	idx := t.Index()
	var out []Entry
	for _, row := range t.Rows {
		if row.Blank() {
			continue
		}
		get := cellGetter(idx, row.Cells)
		out = append(out, Entry{
			Timestamp: parseTimestamp(get("timestamp")),
			User:      get("user"),
			Hostname:  get("hostname"),
			Action:    Action(get("action")),
			Firm:      get("firm"),
			CaseKey:   get("case_key"),
			Field:     get("field_name"),
			OldValue:  get("old_value"),
			NewValue:  get("new_value"),
			Reason:    get("reason"),
		})
	}
	return out, nil
}

// Filter selects audit entries. Zero-valued fields match everything. Since
// and Until compare calendar days, both inclusive.
type Filter struct {
	Firm   string
	Field  string
	Action Action
	Since  time.Time
	Until  time.Time
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.Firm != "" && !record.EqualFold(f.Firm, e.Firm) {
		return false
	}
	if f.Field != "" && f.Field != e.Field {
		return false
	}
	if f.Action != "" && f.Action != e.Action {
		return false
	}
	if !f.Since.IsZero() || !f.Until.IsZero() {
		if e.Timestamp.IsZero() {
			return false
		}
		day := dayOf(e.Timestamp)
		if !f.Since.IsZero() && day.Before(dayOf(f.Since)) {
			return false
		}
		if !f.Until.IsZero() && day.After(dayOf(f.Until)) {
			return false
		}
	}
	return true
}

// Apply returns the entries that match, preserving order.
func (f Filter) Apply(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Export writes entries as an audit-format CSV, header included.
func Export(w io.Writer, entries []Entry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, Columns)
	for _, e := range entries {
		rows = append(rows, e.cells())
	}
	data, err := encodeRows(rows...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readLog(path string) (*table.Table, error) {
	t, err := table.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}
	return t, nil
}

func cellGetter(idx map[string]int, cells []string) func(string) string {
	return func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{TimestampLayout, record.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
