package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/ledger"
	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/store"
)

// AddCaseOptions holds flags for the add-case command.
type AddCaseOptions struct {
	*RootOptions
	Firm    string
	Date    string
	Index   string
	Caption string
	Amount  string
	Court   string
	Outcome string
	Status  string
	Notes   string
	Invoice string
}

// NewAddCaseCommand creates the add-case command.
func NewAddCaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddCaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-case",
		Short: "Insert or update a case appearance",
		Long: `Insert a case appearance, or update the one with the same index number and
date. On update only the flags given are written; everything else keeps its
stored value. A new appearance needs --caption and --amount.

Example:
  casebook add-case --firm "Acme Law" --date 2026-01-05 --index IDX-1 \
    --caption "Doe v Roe" --amount 150
  casebook add-case --firm "Acme Law" --date 2026-01-05 --index IDX-1 --outcome "Adjourned"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddCase(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "appearance date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.Index, "index", "", "index number (required)")
	cmd.Flags().StringVar(&opts.Caption, "caption", "", "case caption")
	cmd.Flags().StringVar(&opts.Amount, "amount", "", "charge amount")
	cmd.Flags().StringVar(&opts.Court, "court", "", "court")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "outcome")
	cmd.Flags().StringVar(&opts.Status, "status", "", "case status (Open|Adjourned|Closed|Settled|Dismissed)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&opts.Invoice, "invoice", "", "invoice number")
	_ = cmd.MarkFlagRequired("firm")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

// caseUpdate builds the field update set from the flags the user gave.
func caseUpdate(opts *AddCaseOptions, cmd *cobra.Command) (record.Update, error) {
	u := record.Update{IndexNumber: opts.Index, AppearanceDate: opts.Date}
	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if set("caption") {
		u.CaseCaption = record.Some(opts.Caption)
	}
	if set("amount") {
		d, err := record.ParseAmount(opts.Amount)
		if err != nil {
			return record.Update{}, usageError(fmt.Errorf("--amount: %w", err))
		}
		u.ChargeAmount = &d
	}
	if set("court") {
		u.Court = record.Some(opts.Court)
	}
	if set("outcome") {
		u.Outcome = record.Some(opts.Outcome)
	}
	if set("status") {
		u.CaseStatus = record.Some(record.CaseStatus(opts.Status))
	}
	if set("notes") {
		u.Notes = record.Some(opts.Notes)
	}
	if set("invoice") {
		u.InvoiceNumber = record.Some(opts.Invoice)
	}
	return u, nil
}

func runAddCase(opts *AddCaseOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	u, err := caseUpdate(opts, cmd)
	if err != nil {
		return s.out.Fail(err)
	}

	action, err := s.store.Upsert(s.ctx, opts.Firm, u)
	if err != nil {
		return s.out.Fail(err)
	}

	result := store.Result{Key: u.Key(), Action: action}
	if s.out.JSON() {
		return s.out.Success(result)
	}
	s.out.OK("%s %s", action, u.Key())
	return nil
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Firm   string
	Index  string
	Date   string
	Field  string
	Value  string
	Reason string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change one field of a case and record it in the audit log",
		Long: `Change one editable field (` + strings.Join(store.EditableFields(), ", ") + `) of an
existing case. The old and new values are written to the shared audit log.

Changing charge_amount after the invoice was sent requires --reason.

Example:
  casebook edit --firm "Acme Law" --index IDX-1 --date 2026-01-05 \
    --field charge_amount --value 200 --reason "second hearing"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Index, "index", "", "index number (required)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "appearance date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.Field, "field", "", "field to change (required)")
	cmd.Flags().StringVar(&opts.Value, "value", "", "new value")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "reason for the change")
	for _, name := range []string{"firm", "index", "date", "field"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runEdit(opts *EditOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	change, err := s.store.EditField(s.ctx, opts.Firm, opts.Index, opts.Date, opts.Field, opts.Value, opts.Reason)
	if err != nil {
		return s.out.Fail(err)
	}

	if s.out.JSON() {
		return s.out.Success(change)
	}
	s.out.OK("%s on %s: %q → %q", change.Field, change.Key, change.OldValue, change.NewValue)
	return nil
}

// MarkSentOptions holds flags for the mark-sent command.
type MarkSentOptions struct {
	*RootOptions
	Firm     string
	Index    string
	Date     string
	SentDate string
}

// NewMarkSentCommand creates the mark-sent command.
func NewMarkSentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarkSentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mark-sent",
		Short: "Record that a case's invoice went out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkSent(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Index, "index", "", "index number (required)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "appearance date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.SentDate, "sent-date", "", "date sent YYYY-MM-DD (default today)")
	for _, name := range []string{"firm", "index", "date"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runMarkSent(opts *MarkSentOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	sent, err := s.parseDay("sent-date", opts.SentDate)
	if err != nil {
		return s.out.Fail(err)
	}

	rec, ok, err := s.store.FindByKey(s.ctx, opts.Firm, opts.Index, opts.Date)
	if err != nil {
		return s.out.Fail(err)
	}
	if !ok {
		return s.out.Fail(&store.Error{
			Code:    store.CodeCaseNotFound,
			Message: fmt.Sprintf("no case with index %q on %s", opts.Index, opts.Date),
			Firm:    opts.Firm,
		})
	}

	date := record.FormatDate(sent)
	_, err = s.store.Upsert(s.ctx, opts.Firm, record.Update{
		IndexNumber:     rec.IndexNumber,
		AppearanceDate:  rec.AppearanceDate,
		InvoiceSentDate: &date,
	})
	if err != nil {
		return s.out.Fail(err)
	}

	if s.out.JSON() {
		return s.out.Success(map[string]string{"key": rec.Key().String(), "invoice_sent_date": date})
	}
	s.out.OK("%s marked sent on %s", rec.Key(), date)
	return nil
}

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Firm    string
	Index   string
	Date    string
	Invoice string
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Show one case by key or invoice number",
		Long: `Show one case, looked up by index number and appearance date, or by
invoice number.

Example:
  casebook find --firm "Acme Law" --index idx-1 --date 2026-01-05
  casebook find --firm "Acme Law" --invoice AL2026001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Index, "index", "", "index number")
	cmd.Flags().StringVar(&opts.Date, "date", "", "appearance date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Invoice, "invoice", "", "invoice number")
	_ = cmd.MarkFlagRequired("firm")
	cmd.MarkFlagsRequiredTogether("index", "date")
	cmd.MarkFlagsMutuallyExclusive("invoice", "index")
	cmd.MarkFlagsOneRequired("invoice", "index")

	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	var (
		rec      record.CaseRecord
		ok       bool
		notFound *store.Error
	)
	if opts.Invoice != "" {
		rec, ok, err = s.store.FindByInvoiceNumber(s.ctx, opts.Firm, opts.Invoice)
		notFound = &store.Error{
			Code:    store.CodeInvoiceNotFound,
			Message: fmt.Sprintf("invoice %q not found", opts.Invoice),
			Firm:    opts.Firm,
		}
	} else {
		rec, ok, err = s.store.FindByKey(s.ctx, opts.Firm, opts.Index, opts.Date)
		notFound = &store.Error{
			Code:    store.CodeCaseNotFound,
			Message: fmt.Sprintf("no case with index %q on %s", opts.Index, opts.Date),
			Firm:    opts.Firm,
		}
	}
	if err != nil {
		return s.out.Fail(err)
	}
	if !ok {
		return s.out.Fail(notFound)
	}

	if s.out.JSON() {
		return s.out.Success(rec)
	}
	for _, col := range record.Columns {
		if v, _ := rec.Get(col); v != "" {
			s.out.Printf("%-18s %s\n", col+":", v)
		}
	}
	return nil
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Firm string
	From string
	To   string
	Week string
}

// CaseList is the list command's JSON payload.
type CaseList struct {
	Firm    string              `json:"firm"`
	From    string              `json:"from,omitempty"`
	To      string              `json:"to,omitempty"`
	Cases   []record.CaseRecord `json:"cases"`
	Summary ledger.Summary      `json:"summary"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a firm's cases, optionally by date range or week",
		Long: `List a firm's cases. With --from/--to, only appearances in that inclusive
range are shown, sorted by date. With --week, the Monday to Friday week
containing the given date is used. Without either, the whole table is listed
in file order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "first appearance date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.To, "to", "", "last appearance date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.Week, "week", "", "any date in the business week to list")
	_ = cmd.MarkFlagRequired("firm")
	cmd.MarkFlagsMutuallyExclusive("week", "from")
	cmd.MarkFlagsMutuallyExclusive("week", "to")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	f, err := s.store.Firm(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}
	list := CaseList{Firm: f.Name}

	var from, to time.Time
	switch {
	case cmd.Flags().Changed("week"):
		ref, err := s.parseDay("week", opts.Week)
		if err != nil {
			return s.out.Fail(err)
		}
		from, to = ledger.WeekRange(ref)
	case opts.From != "" || opts.To != "":
		from, to = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		if opts.From != "" {
			if from, err = s.parseDay("from", opts.From); err != nil {
				return s.out.Fail(err)
			}
		}
		if opts.To != "" {
			if to, err = s.parseDay("to", opts.To); err != nil {
				return s.out.Fail(err)
			}
		}
	}

	if from.IsZero() {
		list.Cases, err = s.store.Load(s.ctx, f.Name)
	} else {
		list.From, list.To = record.FormatDate(from), record.FormatDate(to)
		list.Cases, err = s.store.QueryByDateRange(s.ctx, f.Name, from, to)
	}
	if err != nil {
		return s.out.Fail(err)
	}
	list.Summary = ledger.Summarize(list.Cases)

	if s.out.JSON() {
		return s.out.Success(list)
	}
	if list.From != "" {
		s.out.Printf("%s, %s to %s\n", list.Firm, list.From, list.To)
	} else {
		s.out.Printf("%s\n", list.Firm)
	}
	writeCases(s.out, list.Cases)
	s.out.Printf("%d case(s), billed %s, paid %s, outstanding %s\n",
		list.Summary.Cases,
		record.FormatAmount(list.Summary.Billed),
		record.FormatAmount(list.Summary.Paid),
		record.FormatAmount(list.Summary.Outstanding))
	return nil
}

const caseRow = "%-10s  %-10s  %-12s  %10s  %-7s  %s\n"

func writeCases(out *OutputFormatter, records []record.CaseRecord) {
	if len(records) == 0 {
		return
	}
	out.Printf(caseRow, "DATE", "INVOICE", "INDEX", "AMOUNT", "PAID", "CAPTION")
	for _, r := range records {
		out.Printf(caseRow, r.AppearanceDate, r.InvoiceNumber, r.IndexNumber, r.ChargeAmount, r.PaidStatus, r.CaseCaption)
	}
}
