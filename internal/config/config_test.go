package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
data_root: shared
firms:
  - name: Acme Law
    initials: AL
    billing_email: billing@acme.test
  - name: Bolt & Co
    initials: BC
invoice_numbering:
  format: "{initials}{year}{number:03d}"
  yearly_reset: false
lock:
  timeout: 5s
  retry_interval: 250ms
log:
  level: debug
  format: json
`

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "casebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, filepath.Join(dir, "shared"), cfg.Root())
	require.Len(t, cfg.Firms, 2)
	assert.Equal(t, "billing@acme.test", cfg.Firms[0].BillingEmail)
	assert.False(t, cfg.InvoiceNumbering.Reset())
	assert.Equal(t, 5*time.Second, cfg.Lock.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Lock.RetryInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `
firms:
  - name: Acme Law
    initials: AL
`)
	t.Setenv("CASEBOOK_LOCK_TIMEOUT", "90s")
	t.Setenv("CASEBOOK_DATA_ROOT", "/mnt/billing")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/billing", cfg.Root())
	assert.Equal(t, 90*time.Second, cfg.Lock.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Lock.RetryInterval)
	assert.Equal(t, "{initials}{year}{number:03d}", cfg.InvoiceNumbering.Format)
	assert.True(t, cfg.InvoiceNumbering.Reset(), "yearly_reset defaults to true")
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "missing.yaml")
}

func TestRead_EnvOnlyWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CASEBOOK_DATA_ROOT", "/srv/data")

	cfg, err := Read("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, "/srv/data", cfg.Root())

	_, err = Load("")
	assert.Error(t, err, "an env-only config has no firms")
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no firms",
			yaml:    "firms: []\n",
			wantErr: "firms",
		},
		{
			name:    "separator in name",
			yaml:    "firms:\n  - name: Acme/Law\n    initials: AL\n",
			wantErr: "name",
		},
		{
			name:    "blank name",
			yaml:    "firms:\n  - name: \"  \"\n    initials: AL\n",
			wantErr: "name",
		},
		{
			name:    "bad initials",
			yaml:    "firms:\n  - name: Acme Law\n    initials: A-L\n",
			wantErr: "initials",
		},
		{
			name:    "duplicate names",
			yaml:    "firms:\n  - name: Acme Law\n    initials: AL\n  - name: ACME LAW\n    initials: AX\n",
			wantErr: "duplicate firm name",
		},
		{
			name:    "duplicate initials",
			yaml:    "firms:\n  - name: Acme Law\n    initials: AL\n  - name: Alder\n    initials: al\n",
			wantErr: "initials",
		},
		{
			name:    "template without number",
			yaml:    "firms:\n  - name: Acme Law\n    initials: AL\ninvoice_numbering:\n  format: \"{initials}{year}\"\n",
			wantErr: "format",
		},
		{
			name:    "unknown log level",
			yaml:    "firms:\n  - name: Acme Law\n    initials: AL\nlog:\n  level: loud\n",
			wantErr: "level",
		},
		{
			name:    "negative timeout",
			yaml:    "firms:\n  - name: Acme Law\n    initials: AL\nlock:\n  timeout: -1s\n",
			wantErr: "lock.timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeYAML(t, t.TempDir(), tt.yaml)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	cfg, err := Load(writeYAML(t, t.TempDir(), validYAML))
	require.NoError(t, err)

	f, ok := cfg.Lookup("  acme law ")
	require.True(t, ok)
	assert.Equal(t, "Acme Law", f.Name)
	assert.Equal(t, "AL", f.Firm().Initials)

	_, ok = cfg.Lookup("Nobody")
	assert.False(t, ok)
	assert.Equal(t, []string{"Acme Law", "Bolt & Co"}, cfg.FirmNames())
}

func TestAddFirm(t *testing.T) {
	cfg, err := Load(writeYAML(t, t.TempDir(), validYAML))
	require.NoError(t, err)

	require.NoError(t, cfg.AddFirm(FirmConfig{Name: " Cole LLP ", Initials: "CL"}))
	f, ok := cfg.Lookup("cole llp")
	require.True(t, ok)
	assert.Equal(t, "Cole LLP", f.Name)

	err = cfg.AddFirm(FirmConfig{Name: "acme law", Initials: "ZZ"})
	assert.ErrorContains(t, err, "duplicate firm name")
	assert.Len(t, cfg.Firms, 3, "failed add leaves firms unchanged")
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeYAML(t, dir, validYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.AddFirm(FirmConfig{Name: "Cole LLP", Initials: "CL"}))

	out := filepath.Join(dir, "saved.yaml")
	require.NoError(t, cfg.Save(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 5s")
	assert.Contains(t, string(data), "yearly_reset: false")

	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.FirmNames(), again.FirmNames())
	assert.Equal(t, cfg.Lock, again.Lock)
	assert.Equal(t, cfg.InvoiceNumbering.Reset(), again.InvoiceNumbering.Reset())
}

func TestPaths(t *testing.T) {
	cfg := &Config{DataRoot: "/data"}

	assert.Equal(t, filepath.FromSlash("/data/invoice/Acme Law/master_Acme Law.csv"), cfg.TablePath("Acme Law"))
	assert.Equal(t, filepath.FromSlash("/data/invoice/Acme Law/master_Acme Law.lock"), cfg.LockPath("Acme Law"))
	assert.Equal(t, filepath.FromSlash("/data/invoice/Acme Law/invoice_counter.json"), cfg.CounterPath("Acme Law"))
	assert.Equal(t, filepath.FromSlash("/data/invoice/Acme Law/payment_log.csv"), cfg.PaymentLogPath("Acme Law"))
	assert.Equal(t, filepath.FromSlash("/data/invoice/audit_log.csv"), cfg.AuditLogPath())
}
