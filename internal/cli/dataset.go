package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/validate"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Firm  string
	Force bool
}

// CreatedDataset is one table written by init.
type CreatedDataset struct {
	Firm string `json:"firm"`
	Path string `json:"path"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create empty record tables",
		Long: `Create a header-only record table for one firm, or for every configured firm.

An existing table is left alone unless --force is given, which erases it.

Example:
  casebook init
  casebook init --firm "Acme Law" --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (default: all firms)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite existing tables")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	firms, err := s.firms(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}

	var created []CreatedDataset
	for _, firm := range firms {
		path, err := s.store.Create(s.ctx, firm, opts.Force)
		if err != nil {
			return s.out.Fail(err)
		}
		created = append(created, CreatedDataset{Firm: firm, Path: path})
		s.out.OK("Created dataset for %s: %s", firm, path)
	}

	if s.out.JSON() {
		return s.out.Success(map[string]interface{}{"created": created})
	}
	return nil
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Firm string
}

// FirmValidation is the validation result for one firm.
type FirmValidation struct {
	Firm       string               `json:"firm"`
	Valid      bool                 `json:"valid"`
	Violations []validate.Violation `json:"violations,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Firms []FirmValidation `json:"firms"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check record tables against the case schema",
		Long: `Check one firm's record table, or every firm's, against the case schema.

Reports every violation in one pass: missing columns, blank required fields,
bad dates and amounts, unknown statuses and duplicate (index, date) keys.
Exits 1 when any table has violations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (default: all firms)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	firms, err := s.firms(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}

	result := ValidationResult{Valid: true}
	violations := 0
	for _, firm := range firms {
		vs, err := s.store.Validate(s.ctx, firm)
		if err != nil {
			return s.out.Fail(err)
		}
		result.Firms = append(result.Firms, FirmValidation{Firm: firm, Valid: len(vs) == 0, Violations: vs})
		if len(vs) == 0 {
			s.out.OK("%s: valid", firm)
			continue
		}

		result.Valid = false
		violations += len(vs)
		s.out.Printf("%s %s: %d violation(s)\n", failMark(), firm, len(vs))
		for _, v := range vs {
			s.out.Printf("  %s\n", v.Error())
		}
	}

	if s.out.JSON() {
		if err := s.out.Success(result); err != nil {
			return err
		}
	}
	if !result.Valid {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", violations))
	}
	return nil
}
