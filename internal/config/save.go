package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/casebook/internal/table"
)

// document is the on-disk shape of a Config: durations as strings and
// defaults made explicit. It feeds both Save and schema validation.
type document struct {
	DataRoot         string            `yaml:"data_root"         json:"data_root"`
	Firms            []FirmConfig      `yaml:"firms"             json:"firms"`
	InvoiceNumbering numberingDocument `yaml:"invoice_numbering" json:"invoice_numbering"`
	Lock             lockDocument      `yaml:"lock"              json:"lock"`
	Log              LogConfig         `yaml:"log"               json:"log"`
}

type numberingDocument struct {
	Format      string `yaml:"format"       json:"format"`
	YearlyReset bool   `yaml:"yearly_reset" json:"yearly_reset"`
}

type lockDocument struct {
	Timeout       string `yaml:"timeout"        json:"timeout"`
	RetryInterval string `yaml:"retry_interval" json:"retry_interval"`
}

func (c *Config) document() document {
	firms := c.Firms
	if firms == nil {
		firms = []FirmConfig{}
	}
	return document{
		DataRoot: c.DataRoot,
		Firms:    firms,
		InvoiceNumbering: numberingDocument{
			Format:      c.InvoiceNumbering.Format,
			YearlyReset: c.InvoiceNumbering.Reset(),
		},
		Lock: lockDocument{
			Timeout:       c.Lock.Timeout.String(),
			RetryInterval: c.Lock.RetryInterval.String(),
		},
		Log: LogConfig{Level: c.Log.Level, Format: c.Log.Format},
	}
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c.document())
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return data, nil
}

// Save writes the config as YAML to path (the file it was read from when
// path is empty), replacing the file atomically.
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.path
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := table.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("config: save %s: %w", path, err)
	}
	c.path = path
	return nil
}
