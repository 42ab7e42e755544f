package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/ledger"
	"github.com/roach88/casebook/internal/record"
)

// LedgerFile is the snapshot database name inside a firm's ledger directory.
const LedgerFile = "ledger.db"

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	Firm string
	Out  string
	AsOf string
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Export a billing snapshot with aging to SQLite",
		Long: `Compute a firm's billed, paid and outstanding totals and the aging of unpaid
charges, and append the snapshot, with every case, to a SQLite database.
Earlier snapshots are kept.

The database defaults to ledger/ledger.db in the firm's directory.

Example:
  casebook ledger --firm "Acme Law"
  casebook ledger --firm "Acme Law" --as-of 2026-03-31 --out statements.db
  casebook ledger show --firm "Acme Law"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "database path")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "aging reference day YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("firm")

	cmd.AddCommand(newLedgerShowCommand(rootOpts))

	return cmd
}

func (s *session) ledgerPath(firm, out string) string {
	if out != "" {
		return out
	}
	return filepath.Join(s.cfg.LedgerDir(firm), LedgerFile)
}

func runLedger(opts *LedgerOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	f, err := s.store.Firm(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}
	asOf, err := s.parseDay("as-of", opts.AsOf)
	if err != nil {
		return s.out.Fail(err)
	}
	records, err := s.store.Load(s.ctx, f.Name)
	if err != nil {
		return s.out.Fail(err)
	}

	path := s.ledgerPath(f.Name, opts.Out)
	snap, err := ledger.Export(s.ctx, path, f.Name, records, asOf)
	if err != nil {
		return s.out.Fail(err)
	}
	s.logger.Info("ledger exported", "firm", f.Name, "path", path, "id", snap.ID, "cases", snap.Summary.Cases)

	if s.out.JSON() {
		snap.Records = nil
		return s.out.Success(map[string]interface{}{"path": path, "snapshot": snap})
	}
	s.out.OK("Exported ledger for %s as of %s: %s", f.Name, snap.AsOf, path)
	writeSnapshot(s.out, snap)
	return nil
}

// LedgerShowOptions holds flags for the ledger show command.
type LedgerShowOptions struct {
	*RootOptions
	Firm string
	Path string
}

func newLedgerShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a firm's most recent ledger snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Path, "db", "", "database path")
	_ = cmd.MarkFlagRequired("firm")

	return cmd
}

func runLedgerShow(opts *LedgerShowOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	f, err := s.store.Firm(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}

	var (
		snap ledger.Snapshot
		ok   bool
	)
	path := s.ledgerPath(f.Name, opts.Path)
	if _, err := os.Stat(path); err == nil {
		db, err := ledger.Open(path)
		if err != nil {
			return s.out.Fail(err)
		}
		defer db.Close()

		if snap, ok, err = db.Latest(s.ctx, f.Name); err != nil {
			return s.out.Fail(err)
		}
	}
	if !ok {
		if s.out.JSON() {
			return s.out.Success(nil)
		}
		s.out.Printf("no ledger snapshots for %s\n", f.Name)
		return nil
	}

	if s.out.JSON() {
		return s.out.Success(snap)
	}
	s.out.Printf("%s as of %s\n", snap.Firm, snap.AsOf)
	writeSnapshot(s.out, snap)
	return nil
}

func writeSnapshot(out *OutputFormatter, snap ledger.Snapshot) {
	sum := snap.Summary
	out.Printf("  cases        %d (%d unpaid)\n", sum.Cases, sum.Open)
	out.Printf("  billed       %s\n", record.FormatAmount(sum.Billed))
	out.Printf("  paid         %s\n", record.FormatAmount(sum.Paid))
	out.Printf("  outstanding  %s\n", record.FormatAmount(sum.Outstanding))
	out.Printf("  aging:\n")
	for _, b := range snap.Aging {
		out.Printf("    %-10s  %3d  %10s\n", b.Label, b.Count, record.FormatAmount(b.Total))
	}
}
