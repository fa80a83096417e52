package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// ResetResult is the output of the reset command.
type ResetResult struct {
	Path string `json:"path"`
	Seq  int64  `json:"seq"`
}

// WriteText confirms the reset.
func (r ResetResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Deleted every item and tag in %s\n", r.Path)
	return err
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset --yes",
		Short: "Delete every item and tag",
		Long: `Delete every item and tag in a single transaction, as on sign-out.

Either everything is removed or nothing is. The store file itself is kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm deletion")

	return cmd
}

func runReset(opts *ResetOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if !opts.Yes {
		return f.Fail(ExitCommandError, CodeConfig, "refusing to delete everything without --yes", nil)
	}

	mgr, err := opts.openManager(f, nil)
	if err != nil {
		return err
	}
	defer opts.closeManager(mgr)

	if err := mgr.DeleteAllModels(cmd.Context()); err != nil {
		return f.Fail(ExitFailure, CodeCommit, "failed to delete models", err)
	}
	return f.Success(ResetResult{Path: mgr.Path(), Seq: mgr.Seq()})
}
