package invoice

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/testutil"
)

var acme = record.Firm{Name: "Acme Law", Initials: "AL"}

func newSequencer(t *testing.T, clk *testutil.FakeClock) (*Sequencer, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewSequencer(func(firm string) string {
		return filepath.Join(dir, firm, "invoice_counter.json")
	}, WithClock(clk))
	return s, dir
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		number   int
		want     string
	}{
		{"default", DefaultTemplate, 1, "AL2026001"},
		{"overflow keeps digits", DefaultTemplate, 1234, "AL20261234"},
		{"plain number", "{initials}-{year}-{number}", 42, "AL-2026-42"},
		{"wide zero pad", "INV{number:06d}", 7, "INV000007"},
		{"space pad", "{initials}{number:4d}", 7, "AL   7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.template, "AL", 2026, tt.number)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	_, err := Format("", "AL", 2026, 1)
	assert.ErrorContains(t, err, "empty")

	_, err = Format("{initials}{year}", "AL", 2026, 1)
	assert.ErrorContains(t, err, "{number}")

	_, err = Format("{initials}{month}{number}", "AL", 2026, 1)
	assert.ErrorContains(t, err, "unresolved token")

	_, err = Format(DefaultTemplate, "AL", 2026, 0)
	assert.ErrorContains(t, err, "invalid invoice sequence")

	assert.NoError(t, CheckTemplate(DefaultTemplate))
	assert.Error(t, CheckTemplate("{initials}"))
}

func TestNext_FirstNumber(t *testing.T) {
	s, dir := newSequencer(t, testutil.Date(2026, time.January, 5))

	got, err := s.Next(acme, DefaultTemplate, true)
	require.NoError(t, err)
	assert.Equal(t, "AL2026001", got)

	data, err := os.ReadFile(filepath.Join(dir, "Acme Law", "invoice_counter.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"year": 2026, "last_number": 1}`, string(data))
}

func TestNext_Monotonic(t *testing.T) {
	s, _ := newSequencer(t, testutil.Date(2026, time.March, 1))

	var got []string
	for i := 0; i < 5; i++ {
		n, err := s.Next(acme, "{number}", true)
		require.NoError(t, err)
		got = append(got, n)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, got)
}

func TestNext_PersistsAcrossSequencers(t *testing.T) {
	clk := testutil.Date(2026, time.March, 1)
	s, dir := newSequencer(t, clk)

	_, err := s.Next(acme, DefaultTemplate, true)
	require.NoError(t, err)

	again := NewSequencer(func(firm string) string {
		return filepath.Join(dir, firm, "invoice_counter.json")
	}, WithClock(clk))
	got, err := again.Next(acme, DefaultTemplate, true)
	require.NoError(t, err)
	assert.Equal(t, "AL2026002", got)
}

func TestNext_YearlyReset(t *testing.T) {
	clk := testutil.Date(2026, time.December, 31)
	s, _ := newSequencer(t, clk)

	for i := 0; i < 3; i++ {
		_, err := s.Next(acme, DefaultTemplate, true)
		require.NoError(t, err)
	}

	clk.Advance(24 * time.Hour)
	got, err := s.Next(acme, DefaultTemplate, true)
	require.NoError(t, err)
	assert.Equal(t, "AL2027001", got)
}

func TestNext_NoResetWhenDisabled(t *testing.T) {
	clk := testutil.Date(2026, time.December, 31)
	s, _ := newSequencer(t, clk)

	_, err := s.Next(acme, DefaultTemplate, false)
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	got, err := s.Next(acme, DefaultTemplate, false)
	require.NoError(t, err)
	assert.Equal(t, "AL2026002", got, "without reset the stored year and sequence carry on")
}

func TestNext_FutureStoredYearKept(t *testing.T) {
	clk := testutil.Date(2026, time.June, 1)
	s, _ := newSequencer(t, clk)
	require.NoError(t, s.Save(acme.Name, Counter{Year: 2027, LastNumber: 4}))

	got, err := s.Next(acme, DefaultTemplate, true)
	require.NoError(t, err)
	assert.Equal(t, "AL2027005", got)
}

func TestNext_FirmsIndependent(t *testing.T) {
	s, _ := newSequencer(t, testutil.Date(2026, time.June, 1))
	bolt := record.Firm{Name: "Bolt & Co", Initials: "BC"}

	a, err := s.Next(acme, DefaultTemplate, true)
	require.NoError(t, err)
	b, err := s.Next(bolt, DefaultTemplate, true)
	require.NoError(t, err)

	assert.Equal(t, "AL2026001", a)
	assert.Equal(t, "BC2026001", b)
}

func TestNext_BadTemplateConsumesNothing(t *testing.T) {
	s, _ := newSequencer(t, testutil.Date(2026, time.June, 1))

	_, err := s.Next(acme, "{initials}{bogus}{number}", true)
	require.Error(t, err)

	c, err := s.Load(acme.Name)
	require.NoError(t, err)
	assert.Equal(t, 0, c.LastNumber)
}

func TestLoad_CorruptCounter(t *testing.T) {
	s, dir := newSequencer(t, testutil.Date(2026, time.June, 1))
	path := filepath.Join(dir, acme.Name, "invoice_counter.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{year:"), 0o644))

	_, err := s.Next(acme, DefaultTemplate, true)
	assert.ErrorContains(t, err, "parse invoice counter")
}
