package manager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/roach88/readlater/internal/metrics"
	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/notify"
	"github.com/roach88/readlater/internal/queryir"
	"github.com/roach88/readlater/internal/store"
)

// Manager owns one store file and its write and read contexts.
type Manager struct {
	store   *store.Store
	write   *WriteContext
	read    *ReadContext
	clock   *Clock
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	clock   *Clock
}

// Option configures a Manager.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics collector. Defaults to metrics.Nop.
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock sets the commit clock. Defaults to a clock starting at 0.
func WithClock(c *Clock) Option {
	return func(o *options) { o.clock = c }
}

// Open opens or creates the store at path, creating its directory if
// needed, and starts both contexts. Any failure wraps ErrInit.
func Open(path string, opts ...Option) (*Manager, error) {
	o := options{
		logger:  slog.Default(),
		metrics: metrics.Nop{},
		clock:   NewClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create store directory: %w", ErrInit, err)
		}
	}

	st, err := store.Open(path)
	if err != nil {
		o.logger.Error("store initialization failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	m := &Manager{
		store:   st,
		clock:   o.clock,
		logger:  o.logger,
		metrics: o.metrics,
	}

	readExec := newExecutor("read", o.logger)
	m.read = &ReadContext{
		exec:   readExec,
		store:  st,
		logger: o.logger,
		merged: o.clock.Current(),
	}
	m.read.registry = notify.NewRegistry(
		m.read.evaluate,
		readExec.post,
		notify.WithLogger(o.logger),
		notify.WithMetrics(o.metrics),
		notify.WithSeq(o.clock.Current()),
	)

	m.write = newWriteContext(newExecutor("write", o.logger), st, m.read, o.clock, o.logger, o.metrics)

	o.logger.Info("store opened", "path", path)
	return m, nil
}

// Write returns the write context.
func (m *Manager) Write() *WriteContext { return m.write }

// Read returns the read context.
func (m *Manager) Read() *ReadContext { return m.read }

// Seq returns the sequence number of the last commit.
func (m *Manager) Seq() int64 { return m.clock.Current() }

// Path returns the store file path.
func (m *Manager) Path() string { return m.store.Path() }

// Tags returns every tag with at least one item, sorted by name.
func (m *Manager) Tags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := m.read.PerformAndWait(ctx, func(tx *ReadTx) error {
		var err error
		tags, err = tx.Tags(queryir.TagListing())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return tags, nil
}

// Item looks up one item by id. A miss is (zero, false, nil).
func (m *Manager) Item(ctx context.Context, id string) (model.Item, bool, error) {
	var (
		item  model.Item
		found bool
	)
	err := m.read.PerformAndWait(ctx, func(tx *ReadTx) error {
		var err error
		item, found, err = tx.Item(id)
		return err
	})
	if err != nil {
		return model.Item{}, false, fmt.Errorf("item %s: %w", id, err)
	}
	return item, found, nil
}

// Snapshot evaluates an item query once.
func (m *Manager) Snapshot(ctx context.Context, q queryir.Query) ([]model.Item, error) {
	var items []model.Item
	err := m.read.PerformAndWait(ctx, func(tx *ReadTx) error {
		var err error
		items, err = tx.Items(q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return items, nil
}

// Subscribe opens a live subscription to an item query.
func (m *Manager) Subscribe(ctx context.Context, q queryir.Query) (*notify.Subscription, error) {
	var sub *notify.Subscription
	err := m.read.PerformAndWait(ctx, func(tx *ReadTx) error {
		var err error
		sub, err = tx.Subscribe(q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

// Notifier subscribes to one of the fixed lists, optionally narrowed by a
// search string.
func (m *Manager) Notifier(ctx context.Context, list model.TypeOfList, search string) (*notify.Subscription, error) {
	q, err := queryir.ForList(list, search)
	if err != nil {
		return nil, err
	}
	return m.Subscribe(ctx, q)
}

// TagNotifier subscribes to the items carrying a tag.
func (m *Manager) TagNotifier(ctx context.Context, tag model.Tag) (*notify.Subscription, error) {
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	return m.Subscribe(ctx, queryir.ForTag(tag.Name))
}

// DeleteAllModels removes every entity of every kind in a single
// transaction. Staged changes are discarded first. On failure nothing is
// removed.
func (m *Manager) DeleteAllModels(ctx context.Context) error {
	err := m.write.PerformAndWait(ctx, func(tx *WriteTx) error {
		if err := tx.Rollback(); err != nil {
			return err
		}
		if err := tx.DeleteAll(model.Kinds()...); err != nil {
			return err
		}
		seq, err := tx.Save()
		if err != nil {
			// Leave nothing half-staged behind a failed teardown.
			_ = tx.Rollback()
			return err
		}
		m.logger.Info("deleted all models", "seq", seq)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete all models: %w", err)
	}
	return nil
}

// Close cancels every subscription, stops both contexts and closes the
// store. Pending blocks run before the contexts stop. Safe to call more
// than once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		var subs []*notify.Subscription
		_ = m.read.exec.performAndWait(context.Background(), func() error {
			subs = m.read.registry.Subscriptions()
			return nil
		})
		for _, sub := range subs {
			sub.Cancel()
		}

		m.write.exec.close()
		m.read.exec.close()

		if err := m.store.Close(); err != nil {
			m.closeErr = fmt.Errorf("close store: %w", err)
		}
		m.logger.Info("store closed", "path", m.store.Path())
	})
	return m.closeErr
}
