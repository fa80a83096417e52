package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/queryir"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Search string
}

// ListResult is the output of the list command.
type ListResult struct {
	List   string     `json:"list"`
	Search string     `json:"search,omitempty"`
	Items  []ItemView `json:"items"`
}

// WriteText prints the items as a table.
func (r ListResult) WriteText(w io.Writer) error {
	if len(r.Items) == 0 {
		_, err := fmt.Fprintln(w, "No items.")
		return err
	}
	return writeItemTable(w, r.Items)
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list [all|my-list|favorites|archive]",
		Short: "Print one of the item lists",
		Long: `Print one of the fixed item lists in display order.

  all        every item, newest first
  my-list    unread items, newest first
  favorites  favorited items, most recently updated first
  archive    archived items, most recently updated first

--search narrows the list to items whose title or url contains the text,
ignoring case and diacritics.

Example:
  readlater list my-list
  readlater list --search golang --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runList(opts, name, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "only items whose title or url contains this text")

	return cmd
}

func runList(opts *ListOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	list, err := model.ParseTypeOfList(name)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "invalid list", err)
	}
	q, err := queryir.ForList(list, opts.Search)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "invalid list", err)
	}

	mgr, err := opts.openManager(f, nil)
	if err != nil {
		return err
	}
	defer opts.closeManager(mgr)

	items, err := mgr.Snapshot(cmd.Context(), q)
	if err != nil {
		return f.Fail(ExitFailure, CodeStore, "failed to read list", err)
	}

	return f.Success(ListResult{
		List:   list.String(),
		Search: opts.Search,
		Items:  newItemViews(items),
	})
}
