// Package table reads and writes the tabular files casebook keeps on the
// shared data root: a header row followed by data rows, CSV encoded.
//
// Blank rows (every cell empty) are preserved on read and write so row
// positions reported by validation stay stable, but they are never data.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// HeaderLine is the 1-based file line of the header row.
const HeaderLine = 1

// Table is a header plus rows, in file order.
type Table struct {
	Header []string
	Rows   []Row
}

// Row is one data row. Line is its 1-based record position in the file: the
// header is record 1, so the first data row is 2.
type Row struct {
	Line  int
	Cells []string
}

// Blank reports whether every cell in the row is empty or whitespace.
func (r Row) Blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// New returns an empty table with the given header.
func New(header []string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Header: h}
}

// Read loads a table from path. A missing file returns an error matching
// os.ErrNotExist.
func Read(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return Parse(data)
}

// Parse decodes CSV bytes into a table. Rows are padded to the header width.
func Parse(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	t := &Table{}
	line := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse table: %w", err)
		}
		line++
		if line == HeaderLine {
			t.Header = trimAll(rec)
			continue
		}
		t.Rows = append(t.Rows, Row{Line: line, Cells: pad(rec, len(t.Header))})
	}
	return t, nil
}

// Index maps header names to column positions. Duplicate names keep the
// first position.
func (t *Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// Missing returns the names in want that are not in the header, in want order.
func (t *Table) Missing(want []string) []string {
	idx := t.Index()
	var missing []string
	for _, name := range want {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Append adds a data row and returns it. Cells are padded to the header width.
func (t *Table) Append(cells []string) Row {
	line := HeaderLine + 1
	if n := len(t.Rows); n > 0 {
		line = t.Rows[n-1].Line + 1
	}
	row := Row{Line: line, Cells: pad(cells, len(t.Header))}
	t.Rows = append(t.Rows, row)
	return row
}

// Encode renders the table as CSV.
func (t *Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row.Cells); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", row.Line, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return buf.Bytes(), nil
}

// Write replaces the file at path with the table contents. The data is written
// to a temporary file in the same directory, synced, then renamed over path.
func (t *Table) Write(path string) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o644)
}

// WriteFileAtomic writes data to a sibling temp file and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	committed = true
	return nil
}

func pad(cells []string, width int) []string {
	if len(cells) >= width {
		return cells
	}
	out := make([]string, width)
	copy(out, cells)
	return out
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
