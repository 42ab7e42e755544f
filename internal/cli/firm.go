package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/config"
	"github.com/roach88/casebook/internal/store"
)

// NewFirmCommand creates the firm command group.
func NewFirmCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firm",
		Short: "Manage configured firms",
	}
	cmd.AddCommand(newFirmAddCommand(rootOpts))
	cmd.AddCommand(newFirmListCommand(rootOpts))
	return cmd
}

// FirmAddOptions holds flags for the firm add command.
type FirmAddOptions struct {
	*RootOptions
	Name     string
	Initials string
	Contact  string
	Email    string
	Address  string
}

func newFirmAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FirmAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a firm to the config and create its table",
		Long: `Add a firm to the config file and create its empty record table. The config
file is created when it does not exist yet.

Example:
  casebook firm add --name "Acme Law" --initials AL --email billing@acme.test`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFirmAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "firm name (required)")
	cmd.Flags().StringVar(&opts.Initials, "initials", "", "invoice prefix, 1-5 letters (required)")
	cmd.Flags().StringVar(&opts.Contact, "contact", "", "contact name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "billing email")
	cmd.Flags().StringVar(&opts.Address, "address", "", "postal address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("initials")

	return cmd
}

func runFirmAdd(opts *FirmAddOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	cfg, err := config.Read(opts.ConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Defaults()
	}
	if err != nil {
		return out.FailCode(ErrCodeConfig, ExitCommandError, err)
	}
	f := config.FirmConfig{
		Name:         opts.Name,
		Initials:     opts.Initials,
		ContactName:  opts.Contact,
		BillingEmail: opts.Email,
		Address:      opts.Address,
	}
	if err := cfg.AddFirm(f); err != nil {
		return out.FailCode(ErrCodeConfig, ExitCommandError, err)
	}

	path := cfg.Path()
	if path == "" {
		path, _ = config.Resolve(opts.ConfigPath)
	}
	if err := cfg.Save(path); err != nil {
		return out.FailCode(ErrCodeConfig, ExitCommandError, err)
	}

	s := opts.session(cmd, cfg, out)
	added, _ := cfg.Lookup(opts.Name)
	table, err := s.store.Create(s.ctx, added.Name, false)
	if store.IsCode(err, store.CodeDatasetExists) {
		table, err = s.cfg.TablePath(added.Name), nil
	}
	if err != nil {
		return s.out.Fail(err)
	}
	s.logger.Info("firm added", "firm", added.Name, "initials", added.Initials, "config", cfg.Path())

	if s.out.JSON() {
		return s.out.Success(map[string]interface{}{"firm": added, "config": cfg.Path(), "table": table})
	}
	s.out.OK("Added %s (%s) to %s", added.Name, added.Initials, cfg.Path())
	s.out.Printf("  table: %s\n", table)
	return nil
}

func newFirmListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured firms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			if s.out.JSON() {
				return s.out.Success(s.cfg.Firms)
			}
			for _, f := range s.cfg.Firms {
				s.out.Printf("%-5s  %s\n", f.Initials, f.Name)
			}
			return nil
		},
	}
}
