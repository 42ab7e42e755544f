package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/table"
	"github.com/roach88/casebook/internal/validate"
)

// Create writes an empty, header-only table for firm and returns its path.
// An existing table is an error unless overwrite is set, which erases it.
func (s *Store) Create(ctx context.Context, firm string, overwrite bool) (string, error) {
	f, err := s.Firm(firm)
	if err != nil {
		return "", err
	}
	path := s.cfg.TablePath(f.Name)

	err = s.lock.With(ctx, f.Name, func() error {
		if _, err := os.Stat(path); err == nil && !overwrite {
			return &Error{
				Code:    CodeDatasetExists,
				Message: fmt.Sprintf("dataset already exists: %s (use --force to overwrite)", path),
				Firm:    f.Name,
			}
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat dataset: %w", err)
		}
		return s.writeTable(f.Name, table.New(record.Columns))
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("dataset created", "firm", f.Name, "path", path, "overwrite", overwrite)
	return path, nil
}

// CreateAll creates the table of every configured firm, in configuration
// order, stopping at the first failure. It returns the paths created so far.
func (s *Store) CreateAll(ctx context.Context, overwrite bool) ([]string, error) {
	var created []string
	for _, name := range s.cfg.FirmNames() {
		path, err := s.Create(ctx, name, overwrite)
		if err != nil {
			return created, err
		}
		created = append(created, path)
	}
	return created, nil
}

// Validate runs every table rule against firm's dataset without taking the
// lock. An empty result means the table is valid.
func (s *Store) Validate(ctx context.Context, firm string) ([]validate.Violation, error) {
	f, err := s.Firm(firm)
	if err != nil {
		return nil, err
	}
	t, err := table.Read(s.cfg.TablePath(f.Name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &Error{
			Code:    CodeDatasetNotFound,
			Message: fmt.Sprintf("dataset not found: %s", s.cfg.TablePath(f.Name)),
			Firm:    f.Name,
			Err:     err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", f.Name, err)
	}
	return validate.Table(t), nil
}
