package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/clock"
	"github.com/roach88/casebook/internal/config"
	"github.com/roach88/casebook/internal/logging"
	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Clock overrides the wall clock (for testing). If nil, the system clock
	// is used.
	Clock clock.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the casebook CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casebook",
		Short: "casebook - per-firm billing records on a shared drive",
		Long: `casebook keeps one record table per firm on a shared data root and lets
several people edit it at once. Every change takes the firm's lock; invoice
numbers come from a per-firm counter; field edits land in a shared audit log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				out := &OutputFormatter{Format: "text", Writer: cmd.ErrOrStderr()}
				return out.FailCode(ErrCodeUsage, ExitCommandError,
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewAddCaseCommand(opts))
	cmd.AddCommand(NewAssignInvoicesCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewMarkPaidCommand(opts))
	cmd.AddCommand(NewMarkSentCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewLockCommand(opts))
	cmd.AddCommand(NewFirmCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session is what a command needs once configuration is loaded.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	store  *store.Store
	clock  clock.Clock
	logger *slog.Logger
	out    *OutputFormatter
}

// formatter builds the OutputFormatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// open loads and validates the configuration, sets up logging on stderr and
// builds the store. Failures are already reported when the error returns.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	out := o.formatter(cmd)

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, out.FailCode(ErrCodeConfig, ExitCommandError, err)
	}
	return o.session(cmd, cfg, out), nil
}

func (o *RootOptions) session(cmd *cobra.Command, cfg *config.Config, out *OutputFormatter) *session {
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log, o.Verbose)
	clk := clock.Or(o.Clock)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out.VerboseLog("config: %s (data root %s)", cfg.Path(), cfg.Root())
	return &session{
		ctx:    ctx,
		cfg:    cfg,
		store:  store.New(cfg, store.WithClock(clk), store.WithLogger(logger)),
		clock:  clk,
		logger: logger,
		out:    out,
	}
}

// firms returns the named firm, or every configured firm when name is blank.
func (s *session) firms(name string) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return s.cfg.FirmNames(), nil
	}
	f, err := s.store.Firm(name)
	if err != nil {
		return nil, err
	}
	return []string{f.Name}, nil
}

// parseDay parses a YYYY-MM-DD flag value. Blank returns today.
func (s *session) parseDay(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return s.clock.Now(), nil
	}
	t, err := record.ParseDate(value)
	if err != nil {
		return time.Time{}, usageError(fmt.Errorf("--%s: %w", flag, err))
	}
	return t, nil
}

// usageError marks a bad flag value so it is reported with ErrCodeUsage.
func usageError(err error) error {
	return &flagError{err: err}
}

type flagError struct{ err error }

func (e *flagError) Error() string { return e.err.Error() }
func (e *flagError) Unwrap() error { return e.err }
