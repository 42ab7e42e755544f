package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/casebook/internal/firmlock"
)

// NewLockCommand creates the lock command group.
func NewLockCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect firm locks",
	}
	cmd.AddCommand(newLockStatusCommand(rootOpts))
	return cmd
}

// LockStatusOptions holds flags for the lock status command.
type LockStatusOptions struct {
	*RootOptions
	Firm string
}

// LockStatus is what the lock sentinel says about a firm.
type LockStatus struct {
	Firm   string           `json:"firm"`
	Path   string           `json:"path"`
	Exists bool             `json:"exists"`
	Holder *firmlock.Holder `json:"holder,omitempty"`
	Raw    string           `json:"raw,omitempty"`
}

func newLockStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LockStatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show who last held each firm's lock",
		Long: `Show the holder recorded in each firm's lock sentinel. The sentinel keeps the
last holder after release, so a listed holder is not necessarily still
working; a writer stuck behind it will report LOCK_TIMEOUT with the same
details.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLockStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Firm, "firm", "", "firm name (default: all firms)")

	return cmd
}

func runLockStatus(opts *LockStatusOptions, cmd *cobra.Command) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}

	firms, err := s.firms(opts.Firm)
	if err != nil {
		return s.out.Fail(err)
	}

	var statuses []LockStatus
	for _, firm := range firms {
		st := LockStatus{Firm: firm, Path: s.cfg.LockPath(firm)}
		if _, err := os.Stat(st.Path); err == nil {
			st.Exists = true
			if h, err := firmlock.ReadHolder(st.Path); err == nil && h.User != "" {
				st.Holder = &h
			} else {
				st.Raw = firmlock.DescribeHolder(st.Path)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return s.out.Fail(err)
		}
		statuses = append(statuses, st)

		switch {
		case !st.Exists:
			s.out.OK("%s: never locked", firm)
		case st.Holder != nil:
			s.out.Printf("%s %s: last holder %s\n", warnMark(), firm, st.Holder)
		default:
			s.out.Printf("%s %s: last holder %s\n", warnMark(), firm, st.Raw)
		}
	}

	if s.out.JSON() {
		return s.out.Success(statuses)
	}
	return nil
}
