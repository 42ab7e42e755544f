// Package config loads the casebook configuration: data root, firms,
// invoice numbering and lock tuning.
//
// The configuration is an explicit value. Every store entry point receives
// the *Config it should use; nothing here is process-global.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/casebook/internal/record"
)

// Config is the root configuration.
type Config struct {
	DataRoot         string          `yaml:"data_root"         env:"CASEBOOK_DATA_ROOT" env-default:"./data"`
	Firms            []FirmConfig    `yaml:"firms"`
	InvoiceNumbering NumberingConfig `yaml:"invoice_numbering"`
	Lock             LockConfig      `yaml:"lock"`
	Log              LogConfig       `yaml:"log"`

	// path is the file the config was read from, empty for env-only configs.
	path string
}

// FirmConfig describes one firm. Only Name and Initials are used by the
// store; the rest is contact metadata for statements.
type FirmConfig struct {
	Name         string `yaml:"name"                    json:"name"`
	Initials     string `yaml:"initials"                json:"initials"`
	ContactName  string `yaml:"contact_name,omitempty"  json:"contact_name,omitempty"`
	BillingEmail string `yaml:"billing_email,omitempty" json:"billing_email,omitempty"`
	Address      string `yaml:"address,omitempty"       json:"address,omitempty"`
}

// Firm returns the name and initials pair the store consumes.
func (f FirmConfig) Firm() record.Firm {
	return record.Firm{Name: f.Name, Initials: f.Initials}
}

// NumberingConfig controls invoice number generation.
type NumberingConfig struct {
	Format string `yaml:"format" env:"CASEBOOK_INVOICE_FORMAT" env-default:"{initials}{year}{number:03d}"`
	// YearlyReset defaults to true when omitted.
	YearlyReset *bool `yaml:"yearly_reset,omitempty"`
}

// Reset reports whether sequences restart each calendar year.
func (n NumberingConfig) Reset() bool {
	return n.YearlyReset == nil || *n.YearlyReset
}

// LockConfig tunes firm lock acquisition.
type LockConfig struct {
	Timeout       time.Duration `yaml:"timeout"        env:"CASEBOOK_LOCK_TIMEOUT" env-default:"30s"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"CASEBOOK_LOCK_RETRY"   env-default:"2s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  json:"level"  env:"CASEBOOK_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" json:"format" env:"CASEBOOK_LOG_FORMAT" env-default:"text"`
}

// Path returns the file the config was read from, or "".
func (c *Config) Path() string { return c.path }

// Root returns the data root. A relative data_root is resolved against the
// config file's directory, or the working directory for env-only configs.
func (c *Config) Root() string {
	root := c.DataRoot
	if root == "" || filepath.IsAbs(root) || c.path == "" {
		return root
	}
	return filepath.Join(filepath.Dir(c.path), root)
}

// Lookup finds a firm by name, case-insensitively.
func (c *Config) Lookup(name string) (FirmConfig, bool) {
	for _, f := range c.Firms {
		if record.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FirmConfig{}, false
}

// FirmNames lists configured firm names in configuration order.
func (c *Config) FirmNames() []string {
	names := make([]string, 0, len(c.Firms))
	for _, f := range c.Firms {
		names = append(names, f.Name)
	}
	return names
}

// AddFirm appends f after trimming it, then re-validates. On failure the
// config is left unchanged.
func (c *Config) AddFirm(f FirmConfig) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Initials = strings.TrimSpace(f.Initials)

	prev := c.Firms
	c.Firms = append(append([]FirmConfig(nil), prev...), f)
	if err := c.Validate(); err != nil {
		c.Firms = prev
		return err
	}
	return nil
}
