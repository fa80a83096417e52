package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// ShowResult is the output of the show command.
type ShowResult struct {
	Item ItemView `json:"item"`
}

// WriteText prints the item one field per line.
func (r ShowResult) WriteText(w io.Writer) error {
	it := r.Item
	fmt.Fprintf(w, "id:       %s\n", it.ID)
	fmt.Fprintf(w, "title:    %s\n", it.Title)
	fmt.Fprintf(w, "url:      %s\n", it.URL)
	fmt.Fprintf(w, "status:   %s\n", it.Status)
	fmt.Fprintf(w, "favorite: %t\n", it.Favorite)
	fmt.Fprintf(w, "added:    %s\n", it.TimeAdded)
	fmt.Fprintf(w, "updated:  %s\n", it.TimeUpdated)
	_, err := fmt.Fprintf(w, "tags:     %s\n", strings.Join(it.Tags, ", "))
	return err
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one item",
		Long: `Print one item by id.

Exit codes:
  0 - item found
  1 - no item with that id`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	mgr, err := opts.openManager(f, nil)
	if err != nil {
		return err
	}
	defer opts.closeManager(mgr)

	item, found, err := mgr.Item(cmd.Context(), id)
	if err != nil {
		return f.Fail(ExitFailure, CodeStore, "failed to read item", err)
	}
	if !found {
		return f.Fail(ExitFailure, CodeNotFound, fmt.Sprintf("item %q not found", id), nil)
	}
	return f.Success(ShowResult{Item: newItemView(item)})
}
