package config

import "path/filepath"

// Layout under the data root:
//
//	invoice/audit_log.csv                  shared audit log
//	invoice/{firm}/master_{firm}.csv       record table
//	invoice/{firm}/master_{firm}.lock      lock sentinel
//	invoice/{firm}/invoice_counter.json    invoice counter
//	invoice/{firm}/payment_log.csv         payment log
//	invoice/{firm}/ledger/                 ledger exports
const invoiceDir = "invoice"

// InvoiceDir is the directory holding every firm's data.
func (c *Config) InvoiceDir() string {
	return filepath.Join(c.Root(), invoiceDir)
}

// FirmDir is firm's data directory.
func (c *Config) FirmDir(firm string) string {
	return filepath.Join(c.InvoiceDir(), firm)
}

// TablePath is firm's record table.
func (c *Config) TablePath(firm string) string {
	return filepath.Join(c.FirmDir(firm), "master_"+firm+".csv")
}

// LockPath is firm's lock sentinel.
func (c *Config) LockPath(firm string) string {
	return filepath.Join(c.FirmDir(firm), "master_"+firm+".lock")
}

// CounterPath is firm's invoice counter.
func (c *Config) CounterPath(firm string) string {
	return filepath.Join(c.FirmDir(firm), "invoice_counter.json")
}

// PaymentLogPath is firm's payment log.
func (c *Config) PaymentLogPath(firm string) string {
	return filepath.Join(c.FirmDir(firm), "payment_log.csv")
}

// LedgerDir is where firm's ledger exports go.
func (c *Config) LedgerDir(firm string) string {
	return filepath.Join(c.FirmDir(firm), "ledger")
}

// AuditLogPath is the audit log shared by all firms.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.InvoiceDir(), "audit_log.csv")
}
