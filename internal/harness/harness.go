package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/readlater/internal/ingest"
	"github.com/roach88/readlater/internal/manager"
	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/notify"
	"github.com/roach88/readlater/internal/queryir"
	"github.com/roach88/readlater/internal/upsert"
)

// DefaultBatchTimeout bounds the wait for a batch the harness knows is due.
const DefaultBatchTimeout = 5 * time.Second

// Harness runs one scenario. Every run gets its own store file.
type Harness struct {
	mgr          *manager.Manager
	pipeline     *upsert.Pipeline
	logger       *slog.Logger
	batchTimeout time.Duration
	watches      []*watchState
}

type watchState struct {
	Watch
	query queryir.Query
	sub   *notify.Subscription
	rows  []model.Item
}

// Option configures a run.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	batchTimeout time.Duration
	dir          string
}

// WithLogger routes store and pipeline logs. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBatchTimeout overrides DefaultBatchTimeout.
func WithBatchTimeout(d time.Duration) Option {
	return func(o *options) { o.batchTimeout = d }
}

// WithDir places the store file in dir instead of a fresh temp directory.
// The directory is left in place after the run.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// Run executes a scenario against a fresh store.
//
// The returned error covers failures to run at all (store open, bad query).
// Failed checks are reported through Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		logger:       slog.New(slog.DiscardHandler),
		batchTimeout: DefaultBatchTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	dir := o.dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "readlater-harness-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scenario directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	mgr, err := manager.Open(filepath.Join(dir, "scenario.sqlite"), manager.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer mgr.Close()

	h := &Harness{
		mgr:          mgr,
		pipeline:     upsert.New(mgr.Write(), upsert.WithLogger(o.logger)),
		logger:       o.logger,
		batchTimeout: o.batchTimeout,
	}
	defer h.cancelWatches()

	if err := h.openWatches(ctx, scenario.Watch); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		trace, err := h.executeStep(ctx, i, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, trace)

		for _, a := range step.Expect {
			if err := h.check(ctx, a, result); err != nil {
				result.AddError("step %d: %v", i, err)
			}
		}
	}

	for _, a := range scenario.Assertions {
		if err := h.check(ctx, a, result); err != nil {
			result.AddError("%v", err)
		}
	}
	return result, nil
}

func (h *Harness) openWatches(ctx context.Context, watches []Watch) error {
	for _, w := range watches {
		q, err := watchQuery(w)
		if err != nil {
			return fmt.Errorf("watch %q: %w", w.Name, err)
		}
		sub, err := h.mgr.Subscribe(ctx, q)
		if err != nil {
			return fmt.Errorf("watch %q: %w", w.Name, err)
		}
		h.watches = append(h.watches, &watchState{
			Watch: w,
			query: q,
			sub:   sub,
			rows:  sub.Snapshot(),
		})
	}
	return nil
}

func (h *Harness) cancelWatches() {
	for _, w := range h.watches {
		w.sub.Cancel()
	}
}

func watchQuery(w Watch) (queryir.Query, error) {
	if w.Tag != "" {
		return queryir.ForTag(w.Tag), nil
	}
	list, err := model.ParseTypeOfList(w.List)
	if err != nil {
		return queryir.Query{}, err
	}
	return queryir.ForList(list, w.Search)
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) (StepTrace, error) {
	trace := StepTrace{Kind: step.Kind()}

	switch step.Kind() {
	case StepTeardown:
		if err := h.mgr.DeleteAllModels(ctx); err != nil {
			return trace, err
		}

	case StepUpsert:
		records, err := decodeRecords(&step.Upsert)
		if err != nil {
			return trace, err
		}
		stored, err := h.pipeline.Build(ctx, records)
		if err != nil {
			return trace, err
		}
		trace.Stored = len(stored)
		if step.Stored != nil && *step.Stored != trace.Stored {
			result.AddError("step %d: stored %d entities, want %d", i, trace.Stored, *step.Stored)
		}
	}
	trace.Seq = h.mgr.Seq()

	h.logger.Debug("scenario step done", "step", i, "kind", trace.Kind, "seq", trace.Seq)

	for _, w := range h.watches {
		wb, err := h.collect(ctx, w, trace.Seq)
		if err != nil {
			result.AddError("step %d: watch %s: %v", i, w.Name, err)
			continue
		}
		if wb != nil {
			trace.Batches = append(trace.Batches, *wb)
		}
	}
	return trace, nil
}

// decodeRecords runs the step's records through the ingest decoder so
// scenarios and record files share one format. A skipped record is an
// error here: scenarios exercise bad records through kind and status, not
// through undecodable input.
func decodeRecords(node *yaml.Node) ([]model.RecordDescriptor, error) {
	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	res, err := ingest.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(res.Skipped) > 0 {
		return nil, res.Skipped[0]
	}
	return res.Records, nil
}

// collect waits for the batch a watch is owed after a commit, if its rows
// changed, and checks that the batch reproduces the new rows.
func (h *Harness) collect(ctx context.Context, w *watchState, seq int64) (*WatchBatch, error) {
	current, err := h.mgr.Snapshot(ctx, w.query)
	if err != nil {
		return nil, err
	}
	if sameRows(w.rows, current) {
		return nil, nil
	}

	var batch notify.ItemBatch
	select {
	case b, ok := <-w.sub.Changes():
		if !ok {
			return nil, fmt.Errorf("subscription closed")
		}
		batch = b
	case <-time.After(h.batchTimeout):
		return nil, fmt.Errorf("no batch within %s", h.batchTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	prev := w.rows
	w.rows = current

	if batch.Seq != seq {
		return nil, fmt.Errorf("batch seq %d, want %d", batch.Seq, seq)
	}
	replayed, err := notify.Apply(prev, batch.Deltas)
	if err != nil {
		return nil, fmt.Errorf("replaying batch: %w", err)
	}
	if !sameRows(replayed, current) {
		return nil, fmt.Errorf("batch %v does not reproduce rows %v", deltaStrings(batch), ids(current))
	}
	return &WatchBatch{Watch: w.Name, Deltas: deltaStrings(batch)}, nil
}

func sameRows(a, b []model.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func deltaStrings(b notify.ItemBatch) []string {
	out := make([]string, len(b.Deltas))
	for i, d := range b.Deltas {
		out[i] = d.String()
	}
	return out
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
