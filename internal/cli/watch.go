package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/roach88/readlater/internal/ingest"
	"github.com/roach88/readlater/internal/metrics"
	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/notify"
	"github.com/roach88/readlater/internal/upsert"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Search      string
	Tag         string
	InboxDir    string
	InboxRate   float64
	MetricsAddr string

	// ready, when set, is called once the subscription is open and the
	// status server (if any) is listening. Used by tests.
	ready func(addr string)
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return newWatchCommand(rootOpts, nil)
}

func newWatchCommand(rootOpts *RootOptions, ready func(addr string)) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts, ready: ready}

	cmd := &cobra.Command{
		Use:   "watch [all|my-list|favorites|archive]",
		Short: "Print a list, then every change committed to it",
		Long: `Subscribe to a list (or a tag with --tag) and print its rows, then one
batch of deltas per commit that changes them.

With --inbox, record files dropped into the directory are upserted as they
arrive and moved to processed/ or failed/. With --metrics-addr, /metrics and
/healthz are served on that address.

Press Ctrl-C to stop.

Example:
  readlater watch my-list --inbox ~/readlater/inbox
  readlater watch --tag golang --metrics-addr :9090 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runWatch(opts, name, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "only items whose title or url contains this text")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "watch the items carrying this tag instead of a list")
	cmd.Flags().StringVar(&opts.InboxDir, "inbox", "", "directory to ingest record files from (default from config)")
	cmd.Flags().Float64Var(&opts.InboxRate, "inbox-rate", 0, "maximum inbox files handled per second (0 = unlimited)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "address to serve /metrics and /healthz on (default from config)")

	return cmd
}

func runWatch(opts *WatchOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger()

	if opts.Tag != "" && name != "" {
		return f.Fail(ExitCommandError, CodeConfig, "pass a list or --tag, not both", nil)
	}
	list, err := model.ParseTypeOfList(name)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "invalid list", err)
	}

	inboxDir := firstNonEmpty(opts.InboxDir, opts.Config.InboxDir)
	metricsAddr := firstNonEmpty(opts.MetricsAddr, opts.Config.MetricsAddr)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	mgr, err := opts.openManager(f, collector)
	if err != nil {
		return err
	}
	defer opts.closeManager(mgr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background goroutines stop on cancel; wait for them before the store
	// closes.
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sub *notify.Subscription
	if opts.Tag != "" {
		sub, err = mgr.TagNotifier(ctx, model.Tag{Name: opts.Tag})
	} else {
		sub, err = mgr.Notifier(ctx, list, opts.Search)
	}
	if err != nil {
		return f.Fail(ExitFailure, CodeStore, "failed to subscribe", err)
	}
	defer sub.Cancel()

	addr := ""
	if metricsAddr != "" {
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return f.Fail(ExitCommandError, CodeConfig, "failed to listen for metrics", err)
		}
		addr = ln.Addr().String()
		srv := &http.Server{
			Handler:           newStatusRouter(mgr, registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("serving metrics", "addr", addr)
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if inboxDir != "" {
		in, err := ingest.NewInbox(inboxDir,
			upsert.New(mgr.Write(), upsert.WithLogger(log), upsert.WithMetrics(collector)),
			ingest.WithInboxLogger(log),
			ingest.WithRateLimit(rate.Limit(opts.InboxRate), 1),
		)
		if err != nil {
			return f.Fail(ExitCommandError, CodeConfig, "failed to open inbox", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := in.Run(ctx); err != nil {
				log.Error("inbox stopped", "error", err)
			}
		}()
	}

	if err := printSnapshot(f, sub); err != nil {
		return err
	}
	if opts.ready != nil {
		opts.ready(addr)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil
		case b, ok := <-sub.Changes():
			if !ok {
				return nil
			}
			if err := printBatch(f, b); err != nil {
				return err
			}
		}
	}
}

// printSnapshot writes the initial rows. JSON output is one object per line
// so a consumer can stream it.
func printSnapshot(f *OutputFormatter, sub *notify.Subscription) error {
	rows := newItemViews(sub.Snapshot())
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(struct {
			Seq      int64      `json:"seq"`
			Snapshot []ItemView `json:"snapshot"`
		}{sub.Seq(), rows})
	}
	fmt.Fprintf(f.Writer, "%d item(s) at seq %d\n", len(rows), sub.Seq())
	if len(rows) == 0 {
		return nil
	}
	return writeItemTable(f.Writer, rows)
}

func printBatch(f *OutputFormatter, b notify.ItemBatch) error {
	view := newBatchView(b)
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(view)
	}
	return view.WriteText(f.Writer)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
