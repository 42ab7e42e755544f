package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/store"
)

// AssignInvoicesOptions holds flags for the assign-invoices command.
type AssignInvoicesOptions struct {
	*RootOptions
	Firm string
}

// FirmAssignments lists the numbers issued for one firm.
type FirmAssignments struct {
	Firm        string             `json:"firm"`
	Assignments []store.Assignment `json:"assignments"`
}

// NewAssignInvoicesCommand creates the assign-invoices command.
func NewAssignInvoicesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssignInvoicesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assign-invoices",
		Short: "Give every case without an invoice number the next one",
		Long: `Walk a firm's table in order and assign the next invoice number from the
firm's counter to every case that has none. Cases that already carry a number
are never renumbered.

Example:
  casebook assign-invoices --firm "Acme Law"
  casebook assign-invoices`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssignInvoices(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (default: all firms)")

	return cmd
}

func runAssignInvoices(opts *AssignInvoicesOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	firms, err := s.firms(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}

	result := []FirmAssignments{}
	for _, firm := range firms {
		assigned, err := s.store.AssignMissing(s.ctx, firm)
		if err != nil {
			return s.out.Fail(err)
		}
		if assigned == nil {
			assigned = []store.Assignment{}
		}
		result = append(result, FirmAssignments{Firm: firm, Assignments: assigned})

		if len(assigned) == 0 {
			s.out.OK("%s: nothing to assign", firm)
			continue
		}
		s.out.OK("%s: %d invoice number(s) assigned", firm, len(assigned))
		for _, a := range assigned {
			s.out.Printf("  %-10s  %s  %s\n", a.InvoiceNumber, a.Key, a.CaseCaption)
		}
	}

	if s.out.JSON() {
		return s.out.Success(result)
	}
	return nil
}

// MarkPaidOptions holds flags for the mark-paid command.
type MarkPaidOptions struct {
	*RootOptions
	Firm    string
	Invoice string
	Status  string
	Date    string
	Notes   string
}

// NewMarkPaidCommand creates the mark-paid command.
func NewMarkPaidCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarkPaidOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mark-paid",
		Short: "Set the payment status of an invoice",
		Long: `Set paid_status on the case carrying the given invoice number and record the
change in the firm's payment log.

Marking an invoice Paid without --date keeps an existing payment date, or
uses today when there is none.

Example:
  casebook mark-paid --firm "Acme Law" --invoice AL2026001
  casebook mark-paid --firm "Acme Law" --invoice AL2026002 --status Partial --notes "half received"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkPaid(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Invoice, "invoice", "", "invoice number (required)")
	cmd.Flags().StringVar(&opts.Status, "status", string(record.PaidPaid), "paid status (Paid|Unpaid|Partial)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "payment date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "replace the case notes")
	_ = cmd.MarkFlagRequired("firm")
	_ = cmd.MarkFlagRequired("invoice")

	return cmd
}

func runMarkPaid(opts *MarkPaidOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	p := store.PaymentUpdate{
		InvoiceNumber: opts.Invoice,
		Status:        record.PaidStatus(opts.Status),
		PaymentDate:   opts.Date,
	}
	if cmd.Flags().Changed("notes") {
		p.Notes = record.Some(opts.Notes)
	}

	payment, err := s.store.MarkPayment(s.ctx, opts.Firm, p)
	if err != nil {
		return s.out.Fail(err)
	}

	if s.out.JSON() {
		return s.out.Success(payment)
	}
	e := payment.Entry
	if e.PaymentDate != "" {
		s.out.OK("%s: %s → %s (paid %s)", e.InvoiceNumber, displayStatus(e.OldStatus), e.NewStatus, e.PaymentDate)
	} else {
		s.out.OK("%s: %s → %s", e.InvoiceNumber, displayStatus(e.OldStatus), e.NewStatus)
	}
	return nil
}

func displayStatus(s record.PaidStatus) string {
	if s == "" {
		return "(none)"
	}
	return string(s)
}
