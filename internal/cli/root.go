package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/readlater/internal/config"
	"github.com/roach88/readlater/internal/logger"
	"github.com/roach88/readlater/internal/manager"
	"github.com/roach88/readlater/internal/metrics"
)

// RootOptions holds global flags and the settings every command shares.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides the configured store path

	// Config is loaded before any subcommand runs.
	Config config.Config

	// Logger is set up from Config; nil means slog.Default().
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the readlater CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "readlater",
		Short: "readlater - local store for a read-it-later client",
		Long: `readlater keeps saved articles and their tags in a local SQLite store.

It imports record files, lists and searches the stored items, and watches
lists for changes as they are committed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the store file (overrides data_dir and store_name)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewTagsCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup validates global flags, loads the config and installs the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	l, err := logger.Setup(cmd.ErrOrStderr(), level, cfg.LogFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log format", err)
	}
	o.Logger = l
	return nil
}

// storePath returns --db if given, otherwise the configured store path.
func (o *RootOptions) storePath() (string, error) {
	if o.Database != "" {
		return o.Database, nil
	}
	if o.Config.DataDir == "" || o.Config.StoreName == "" {
		return "", fmt.Errorf("no store configured: pass --db or set data_dir")
	}
	return o.Config.StorePath(), nil
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// formatter returns an output formatter bound to the command's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openManager opens the store. Failure is a command error: there is no
// degraded mode without a store.
func (o *RootOptions) openManager(f *OutputFormatter, mc metrics.MetricsCollector) (*manager.Manager, error) {
	path, err := o.storePath()
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeConfig, "no store", err)
	}

	opts := []manager.Option{manager.WithLogger(o.logger())}
	if mc != nil {
		opts = append(opts, manager.WithMetrics(mc))
	}

	f.VerboseLog("Opening store %s", path)
	mgr, err := manager.Open(path, opts...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeStore, "failed to open store", err)
	}
	return mgr, nil
}

// closeManager closes the store, logging any error.
func (o *RootOptions) closeManager(mgr *manager.Manager) {
	if err := mgr.Close(); err != nil {
		o.logger().Error("error closing store", "error", err)
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
