package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/casebook/internal/invoice"
	"github.com/roach88/casebook/internal/record"
)

// schema constrains the shape of a config document. Business rules that need
// more than one field at a time live in Validate.
const schema = `
#Firm: {
	name:           string & =~ #"\S"# & !~ #"[/\\]"#
	initials:       string & =~ "^[A-Za-z0-9]+$"
	contact_name?:  string
	billing_email?: string
	address?:       string
}

data_root: string & != ""
firms: [#Firm, ...#Firm]
invoice_numbering: {
	format:       string & =~ #"\{number(:0?[0-9]+d)?\}"#
	yearly_reset: bool
}
lock: {
	timeout:        string
	retry_interval: string
}
log: {
	level:  "debug" | "info" | "warn" | "error"
	format: "text" | "json"
}
`

// Validate checks the configuration: the CUE schema first, then the rules
// that span fields.
func (c *Config) Validate() error {
	if err := c.checkSchema(); err != nil {
		return err
	}

	if err := invoice.CheckTemplate(c.InvoiceNumbering.Format); err != nil {
		return fmt.Errorf("invoice_numbering.format: %w", err)
	}

	names := make(map[string]string, len(c.Firms))
	initials := make(map[string]string, len(c.Firms))
	for _, f := range c.Firms {
		name := record.FoldIndex(f.Name)
		if prev, dup := names[name]; dup {
			return fmt.Errorf("firms: duplicate firm name %q (also %q)", f.Name, prev)
		}
		names[name] = f.Name

		ini := strings.ToUpper(strings.TrimSpace(f.Initials))
		if prev, dup := initials[ini]; dup {
			return fmt.Errorf("firms: initials %q used by both %q and %q", f.Initials, prev, f.Name)
		}
		initials[ini] = f.Name
	}

	if c.Lock.Timeout <= 0 {
		return fmt.Errorf("lock.timeout must be > 0 (got %s)", c.Lock.Timeout)
	}
	if c.Lock.RetryInterval <= 0 {
		return fmt.Errorf("lock.retry_interval must be > 0 (got %s)", c.Lock.RetryInterval)
	}

	return nil
}

func (c *Config) checkSchema() error {
	ctx := cuecontext.New()
	s := ctx.CompileString(schema, cue.Filename("casebook.schema.cue"))
	if err := s.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := s.Unify(ctx.Encode(c.document()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}
