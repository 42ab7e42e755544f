package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/casebook/internal/clock"
	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/table"
)

// Counter is the persisted per-firm numbering state.
type Counter struct {
	Year       int `json:"year"`
	LastNumber int `json:"last_number"`
}

// PathFunc maps a firm name to its counter file.
type PathFunc func(firm string) string

// Sequencer reads and advances firm counters.
//
// Sequencer performs an unguarded read-increment-write. Callers must hold the
// firm's lock for the duration of Next.
type Sequencer struct {
	path   PathFunc
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock sets the clock that decides the current year.
func WithClock(c clock.Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) { s.logger = logger }
}

// NewSequencer creates a Sequencer storing counters at path(firm).
func NewSequencer(path PathFunc, opts ...Option) *Sequencer {
	s := &Sequencer{path: path}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = clock.Or(s.clock)
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Load returns the stored counter, or {current year, 0} if none exists yet.
// A corrupt counter file is an error; it is never silently reset.
func (s *Sequencer) Load(firm string) (Counter, error) {
	data, err := os.ReadFile(s.path(firm))
	if errors.Is(err, os.ErrNotExist) {
		return Counter{Year: s.clock.Now().Year()}, nil
	}
	if err != nil {
		return Counter{}, fmt.Errorf("read invoice counter for %s: %w", firm, err)
	}
	var c Counter
	if err := json.Unmarshal(data, &c); err != nil {
		return Counter{}, fmt.Errorf("parse invoice counter for %s: %w", firm, err)
	}
	if c.LastNumber < 0 {
		return Counter{}, fmt.Errorf("invoice counter for %s has negative last_number %d", firm, c.LastNumber)
	}
	return c, nil
}

// Save persists c atomically.
func (s *Sequencer) Save(firm string, c Counter) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode invoice counter: %w", err)
	}
	if err := table.WriteFileAtomic(s.path(firm), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save invoice counter for %s: %w", firm, err)
	}
	return nil
}

// Next advances firm's counter and returns the formatted invoice number.
//
// With yearlyReset the sequence restarts at 1 when the calendar year moves
// past the stored year. A stored year ahead of the clock is kept as is, so a
// skewed clock can never reissue numbers. The template is rendered before
// the counter is saved: a bad template consumes no number.
func (s *Sequencer) Next(firm record.Firm, template string, yearlyReset bool) (string, error) {
	if template == "" {
		template = DefaultTemplate
	}

	c, err := s.Load(firm.Name)
	if err != nil {
		return "", err
	}

	if year := s.clock.Now().Year(); yearlyReset && year > c.Year {
		s.logger.Info("invoice counter year reset", "firm", firm.Name, "from", c.Year, "to", year, "last_number", c.LastNumber)
		c = Counter{Year: year}
	}
	c.LastNumber++

	number, err := Format(template, firm.Initials, c.Year, c.LastNumber)
	if err != nil {
		return "", err
	}
	if err := s.Save(firm.Name, c); err != nil {
		return "", err
	}

	s.logger.Debug("invoice number issued", "firm", firm.Name, "number", number)
	return number, nil
}
