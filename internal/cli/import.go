package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/readlater/internal/ingest"
	"github.com/roach88/readlater/internal/upsert"
)

// FileResult is the outcome of importing one file.
type FileResult struct {
	Path    string   `json:"path"`
	Stored  int      `json:"stored"`
	Skipped []string `json:"skipped,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ImportResult is the outcome of an import command.
type ImportResult struct {
	Files  []FileResult `json:"files"`
	Stored int          `json:"stored"`
	Failed int          `json:"failed"`
	Seq    int64        `json:"seq"`
}

// WriteText prints one line per file and a summary.
func (r ImportResult) WriteText(w io.Writer) error {
	for _, f := range r.Files {
		if f.Error != "" {
			fmt.Fprintf(w, "✗ %s: %s\n", f.Path, f.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s: %d stored", f.Path, f.Stored)
		if len(f.Skipped) > 0 {
			fmt.Fprintf(w, ", %d skipped", len(f.Skipped))
		}
		fmt.Fprintln(w)
		for _, s := range f.Skipped {
			fmt.Fprintf(w, "    skipped %s\n", s)
		}
	}
	_, err := fmt.Fprintf(w, "\nImported %d entities from %d file(s), %d failed\n",
		r.Stored, len(r.Files), r.Failed)
	return err
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Upsert records from YAML or JSON files",
		Long: `Upsert record descriptors from one or more files.

Each file is one commit. A record that cannot be decoded is skipped and
reported; the rest of its file is still stored. Use "-" to read from stdin.

Exit codes:
  0 - every file was stored
  1 - one or more files failed
  2 - command error (no store, bad flags)

Example:
  readlater import saved.yaml
  readlater import --db ./readlater.sqlite batch-*.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	mgr, err := opts.openManager(f, nil)
	if err != nil {
		return err
	}
	defer opts.closeManager(mgr)

	pipeline := upsert.New(mgr.Write(), upsert.WithLogger(opts.logger()))
	result := ImportResult{Files: make([]FileResult, 0, len(paths))}

	for _, path := range paths {
		fr := FileResult{Path: path}

		var res ingest.Result
		if path == "-" {
			fr.Path = "stdin"
			res, err = ingest.Decode(cmd.InOrStdin())
		} else {
			res, err = ingest.DecodeFile(path)
		}
		if err != nil {
			fr.Error = err.Error()
			result.Failed++
			result.Files = append(result.Files, fr)
			continue
		}
		for _, skip := range res.Skipped {
			fr.Skipped = append(fr.Skipped, skip.Error())
		}

		f.VerboseLog("Upserting %d record(s) from %s", len(res.Records), fr.Path)
		stored, err := pipeline.Build(cmd.Context(), res.Records)
		if err != nil {
			fr.Error = err.Error()
			result.Failed++
		} else {
			fr.Stored = len(stored)
			result.Stored += fr.Stored
		}
		result.Files = append(result.Files, fr)
	}
	result.Seq = mgr.Seq()

	if err := f.Success(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) failed to import", result.Failed))
	}
	return nil
}
