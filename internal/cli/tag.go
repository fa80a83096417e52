package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/readlater/internal/notify"
	"github.com/roach88/readlater/internal/queryir"
)

// SectionView is one status section of a tag view.
type SectionView struct {
	Status string     `json:"status"`
	Items  []ItemView `json:"items"`
}

// TagResult is the output of the tag command.
type TagResult struct {
	Tag      string        `json:"tag"`
	Sections []SectionView `json:"sections"`
}

// WriteText prints each section under a heading.
func (r TagResult) WriteText(w io.Writer) error {
	if len(r.Sections) == 0 {
		_, err := fmt.Fprintf(w, "No items tagged %q.\n", r.Tag)
		return err
	}
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", s.Status, len(s.Items))
		if err := writeItemTable(w, s.Items); err != nil {
			return err
		}
	}
	return nil
}

// NewTagCommand creates the tag command.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <name>",
		Short: "Print the items carrying a tag, grouped by status",
		Args:  cobra.ExactArgs(1),
		Example: `  readlater tag golang
  readlater tag golang --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTag(opts *RootOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	mgr, err := opts.openManager(f, nil)
	if err != nil {
		return err
	}
	defer opts.closeManager(mgr)

	items, err := mgr.Snapshot(cmd.Context(), queryir.ForTag(name))
	if err != nil {
		return f.Fail(ExitFailure, CodeStore, "failed to read tag", err)
	}

	result := TagResult{Tag: name, Sections: []SectionView{}}
	for _, s := range notify.Sections(items) {
		result.Sections = append(result.Sections, SectionView{
			Status: s.Status.String(),
			Items:  newItemViews(s.Items),
		})
	}
	return f.Success(result)
}

// TagView is one entry of the tag listing.
type TagView struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

// TagsResult is the output of the tags command.
type TagsResult struct {
	Tags []TagView `json:"tags"`
}

// WriteText prints one tag per line with its item count.
func (r TagsResult) WriteText(w io.Writer) error {
	if len(r.Tags) == 0 {
		_, err := fmt.Fprintln(w, "No tags.")
		return err
	}
	for _, t := range r.Tags {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", t.Name, t.Items); err != nil {
			return err
		}
	}
	return nil
}

// NewTagsCommand creates the tags command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tags",
		Short:         "Print every tag that has items, sorted by name",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(rootOpts, cmd)
		},
	}
	return cmd
}

func runTags(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	mgr, err := opts.openManager(f, nil)
	if err != nil {
		return err
	}
	defer opts.closeManager(mgr)

	tags, err := mgr.Tags(cmd.Context())
	if err != nil {
		return f.Fail(ExitFailure, CodeStore, "failed to read tags", err)
	}

	result := TagsResult{Tags: make([]TagView, len(tags))}
	for i, t := range tags {
		result.Tags[i] = TagView{Name: t.Name, Items: len(t.ItemIDs)}
	}
	return f.Success(result)
}
