// Package fixture builds on-disk casebook workspaces for tests in packages
// above config: a temp data root, a loaded config naming its firms, and a
// fixed acting identity.
package fixture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/casebook/internal/config"
	"github.com/roach88/casebook/internal/identity"
)

// TestActor is the identity stamped on holder metadata and audit rows in tests.
var TestActor = identity.Actor{User: "pat", Hostname: "desk-7"}

// Context returns a background context carrying TestActor.
func Context() context.Context {
	return identity.WithActor(context.Background(), TestActor)
}

// AcmeLaw is the firm most tests work against.
var AcmeLaw = config.FirmConfig{Name: "Acme Law", Initials: "AL", BillingEmail: "billing@acme.test"}

// BoltAndCo is a second firm for isolation tests.
var BoltAndCo = config.FirmConfig{Name: "Bolt & Co", Initials: "BC"}

// Workspace is a temporary data root plus the config file that points at it.
type Workspace struct {
	Dir        string
	ConfigPath string
	Config     *config.Config
}

// NewWorkspace writes a casebook.yaml naming firms (AcmeLaw when none are
// given) under a fresh temp dir and loads it. Lock waits are short so
// contention tests finish quickly.
func NewWorkspace(t testing.TB, firms ...config.FirmConfig) *Workspace {
	t.Helper()
	if len(firms) == 0 {
		firms = []config.FirmConfig{AcmeLaw}
	}

	var b strings.Builder
	b.WriteString("data_root: data\nfirms:\n")
	for _, f := range firms {
		b.WriteString("  - name: \"" + f.Name + "\"\n")
		b.WriteString("    initials: \"" + f.Initials + "\"\n")
		if f.BillingEmail != "" {
			b.WriteString("    billing_email: \"" + f.BillingEmail + "\"\n")
		}
	}
	b.WriteString("lock:\n  timeout: 2s\n  retry_interval: 10ms\n")

	dir := t.TempDir()
	path := filepath.Join(dir, "casebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return &Workspace{Dir: dir, ConfigPath: path, Config: cfg}
}

// WriteTable replaces firm's record table with content, creating its folder.
func (w *Workspace) WriteTable(t testing.TB, firm, content string) string {
	t.Helper()
	path := w.Config.TablePath(firm)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ReadFile returns the content of path, failing the test if it is unreadable.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
