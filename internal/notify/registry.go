package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/roach88/readlater/internal/metrics"
	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/queryir"
)

// Evaluator runs an item query against the read context's view of the store.
type Evaluator func(ctx context.Context, q queryir.Query) ([]model.Item, error)

// Registry holds every live query, keyed by Query.Key, and fans out deltas
// to their subscriptions on each commit.
//
// Subscriptions to the same query share one evaluation.
type Registry struct {
	eval    Evaluator
	post    func(func()) bool
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	entries map[string]*entry

	// seq is the last commit passed to Refresh.
	seq int64
}

type entry struct {
	query queryir.Query
	rows  []model.Item
	subs  map[string]*Subscription
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics sets the metrics collector. Defaults to metrics.Nop.
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithSeq sets the commit the registry starts from. Defaults to 0.
func WithSeq(seq int64) Option {
	return func(r *Registry) { r.seq = seq }
}

// NewRegistry creates a registry.
//
// post schedules a function on the goroutine that owns the registry without
// waiting for it; Cancel uses it to unregister. It returns false if the owner
// has shut down.
func NewRegistry(eval Evaluator, post func(func()) bool, opts ...Option) *Registry {
	r := &Registry{
		eval:    eval,
		post:    post,
		logger:  slog.Default(),
		metrics: metrics.Nop{},
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe opens a subscription to an item query. The snapshot reflects
// every commit merged so far.
func (r *Registry) Subscribe(ctx context.Context, q queryir.Query) (*Subscription, error) {
	if err := queryir.Validate(q); err != nil {
		return nil, err
	}
	if q.Entity != queryir.EntityItem {
		return nil, fmt.Errorf("%w: only item queries can be subscribed to", queryir.ErrInvalidQuery)
	}

	key := q.Key()
	e, ok := r.entries[key]
	if !ok {
		rows, err := r.eval(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("subscribe: %w", err)
		}
		e = &entry{query: q, rows: rows, subs: make(map[string]*Subscription)}
		r.entries[key] = e
	}

	id := uuid.Must(uuid.NewV7()).String()
	sub := newSubscription(id, q, r.seq, e.rows, r.scheduleRemove)
	e.subs[id] = sub
	r.metrics.RecordSubscriptionOpened()

	r.logger.Debug("subscription opened",
		"subscription", id,
		"query", key,
		"rows", len(e.rows),
		"seq", r.seq,
	)

	return sub, nil
}

// scheduleRemove runs on the cancelling goroutine.
func (r *Registry) scheduleRemove(sub *Subscription) {
	if !r.post(func() { r.remove(sub) }) {
		r.logger.Debug("subscription cancelled after shutdown", "subscription", sub.ID())
	}
}

func (r *Registry) remove(sub *Subscription) {
	key := sub.Query().Key()
	e, ok := r.entries[key]
	if !ok {
		return
	}
	if _, ok := e.subs[sub.ID()]; !ok {
		return
	}
	delete(e.subs, sub.ID())
	r.metrics.RecordSubscriptionClosed()
	if len(e.subs) == 0 {
		delete(r.entries, key)
	}
	r.logger.Debug("subscription closed", "subscription", sub.ID(), "query", key)
}

// Refresh re-evaluates every live query after a merge and delivers one batch
// per subscription whose rows changed. A query that fails to evaluate keeps
// its previous rows and is reported in the returned error; the others are
// still refreshed.
func (r *Registry) Refresh(ctx context.Context, seq int64) error {
	var errs []error
	r.seq = seq

	for _, key := range r.keys() {
		e := r.entries[key]

		rows, err := r.eval(ctx, e.query)
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", key, err))
			continue
		}

		deltas := Diff(e.rows, rows, itemKey, itemEqual)
		e.rows = rows
		if len(deltas) == 0 {
			continue
		}

		batch := ItemBatch{Seq: seq, Deltas: deltas}
		delivered := 0
		for _, sub := range e.subs {
			if sub.deliver(cloneBatch(batch)) {
				delivered++
			}
		}
		for t, n := range batch.Counts() {
			r.metrics.RecordDeltas(t.String(), n*delivered)
		}

		r.logger.Debug("query refreshed",
			"seq", seq,
			"query", key,
			"deltas", len(deltas),
			"subscriptions", delivered,
		)
	}

	return errors.Join(errs...)
}

// Rows returns the current rows of a live query, if any subscription
// watches it.
func (r *Registry) Rows(q queryir.Query) ([]model.Item, bool) {
	e, ok := r.entries[q.Key()]
	if !ok {
		return nil, false
	}
	return cloneItems(e.rows), true
}

// Len returns the number of open subscriptions.
func (r *Registry) Len() int {
	n := 0
	for _, e := range r.entries {
		n += len(e.subs)
	}
	return n
}

// Subscriptions returns every open subscription. Used at shutdown.
func (r *Registry) Subscriptions() []*Subscription {
	var out []*Subscription
	for _, key := range r.keys() {
		for _, sub := range r.entries[key].subs {
			out = append(out, sub)
		}
	}
	return out
}

// keys returns entry keys sorted, so refreshes run in a stable order.
func (r *Registry) keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func itemKey(it model.Item) string { return it.ID }

func itemEqual(a, b model.Item) bool { return a.Equal(b) }
