package audit

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// appendRow appends one CSV row to path, creating the file with header first
// if it does not exist. Each call issues exactly one write.
func appendRow(path string, header, cells []string) error {
	line, err := encodeRows(cells)
	if err != nil {
		return err
	}
	if err := ensureHeader(path, header); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write log: %w", err)
	}
	return f.Close()
}

// ensureHeader creates path holding only the header row. The file appears
// atomically via a hard link from a temp file, so no appender can ever see it
// without its header. Filesystems without hard links fall back to O_EXCL.
func ensureHeader(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare log directory: %w", err)
	}
	data, err := encodeRows(header)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write log header: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write log header: %w", err)
	}

	err = os.Link(tmpName, path)
	switch {
	case err == nil, errors.Is(err, os.ErrExist):
		return nil
	default:
		return createExclusive(path, data)
	}
}

func createExclusive(path string, header []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	if _, err := f.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write log header: %w", err)
	}
	return f.Close()
}

func encodeRows(rows ...[]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("encode log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode log row: %w", err)
	}
	return buf.Bytes(), nil
}
