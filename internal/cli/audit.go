package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/audit"
	"github.com/roach88/casebook/internal/record"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	Firm   string
	Field  string
	Action string
	Since  string
	Until  string
	CSV    bool
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the shared edit history",
		Long: `Show entries of the shared audit log, oldest first. Filters combine; --since
and --until are inclusive calendar days.

Example:
  casebook audit --firm "Acme Law" --field charge_amount
  casebook audit --since 2026-01-01 --csv > edits.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "only this firm")
	cmd.Flags().StringVar(&opts.Field, "field", "", "only this field")
	cmd.Flags().StringVar(&opts.Action, "action", "", "only this action (e.g. EDIT_CHARGE)")
	cmd.Flags().StringVar(&opts.Since, "since", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Until, "until", "", "last day YYYY-MM-DD")
	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "write matching entries as CSV")

	cmd.AddCommand(newPaymentsCommand(rootOpts))

	return cmd
}

func runAudit(opts *AuditOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	filter := audit.Filter{
		Field:  opts.Field,
		Action: audit.Action(strings.ToUpper(strings.TrimSpace(opts.Action))),
	}
	if opts.Firm != "" {
		f, err := s.store.Firm(opts.Firm)
		if err != nil {
			return s.out.Fail(err)
		}
		filter.Firm = f.Name
	}
	if filter.Since, err = optionalDay("since", opts.Since); err != nil {
		return s.out.Fail(err)
	}
	if filter.Until, err = optionalDay("until", opts.Until); err != nil {
		return s.out.Fail(err)
	}

	entries, err := audit.Read(s.store.AuditLog().Path())
	if err != nil {
		return s.out.Fail(err)
	}
	entries = filter.Apply(entries)

	if opts.CSV {
		if err := audit.Export(s.out.Writer, entries); err != nil {
			return s.out.Fail(err)
		}
		return nil
	}
	if s.out.JSON() {
		if entries == nil {
			entries = []audit.Entry{}
		}
		return s.out.Success(entries)
	}

	if len(entries) == 0 {
		s.out.Printf("no audit entries\n")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s@%s  %-12s  %s  %s  %s: %q → %q",
			e.Timestamp.Format(audit.TimestampLayout), e.User, e.Hostname,
			e.Action, e.Firm, e.CaseKey, e.Field, e.OldValue, e.NewValue)
		if e.Reason != "" {
			line += fmt.Sprintf(" (%s)", e.Reason)
		}
		s.out.Printf("%s\n", line)
	}
	return nil
}

// PaymentsOptions holds flags for the audit payments command.
type PaymentsOptions struct {
	*RootOptions
	Firm string
}

func newPaymentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PaymentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Show a firm's payment history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayments(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	_ = cmd.MarkFlagRequired("firm")

	return cmd
}

func runPayments(opts *PaymentsOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	f, err := s.store.Firm(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}
	entries, err := s.store.PaymentLog().Read(f.Name)
	if err != nil {
		return s.out.Fail(err)
	}

	if s.out.JSON() {
		if entries == nil {
			entries = []audit.PaymentEntry{}
		}
		return s.out.Success(entries)
	}
	if len(entries) == 0 {
		s.out.Printf("no payments recorded for %s\n", f.Name)
		return nil
	}
	for _, e := range entries {
		s.out.Printf("%s  %-10s  %s → %s  %s  %s\n",
			e.Timestamp.Format(audit.TimestampLayout), e.InvoiceNumber,
			displayStatus(e.OldStatus), e.NewStatus, e.PaymentDate, e.CaseCaption)
	}
	return nil
}

// optionalDay parses a YYYY-MM-DD flag; blank is the zero time.
func optionalDay(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := record.ParseDate(value)
	if err != nil {
		return time.Time{}, usageError(fmt.Errorf("--%s: %w", flag, err))
	}
	return t, nil
}
