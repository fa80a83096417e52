package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/notify"
	"github.com/roach88/readlater/internal/queryir"
	"github.com/roach88/readlater/internal/store"
)

// ReadContext evaluates queries and owns the subscription registry.
type ReadContext struct {
	exec     *executor
	store    *store.Store
	registry *notify.Registry
	logger   *slog.Logger

	// merged is the sequence number of the last merged commit.
	// Confined to the read goroutine.
	merged int64
}

// ReadTx is the handle passed to a read block.
type ReadTx struct {
	ctx    context.Context
	r      *ReadContext
	closed bool
}

// PerformAndWait runs fn on the read context and waits for it.
func (r *ReadContext) PerformAndWait(ctx context.Context, fn func(*ReadTx) error) error {
	return r.exec.performAndWait(ctx, func() error {
		tx := &ReadTx{ctx: ctx, r: r}
		defer func() { tx.closed = true }()
		return fn(tx)
	})
}

// merge makes commit seq visible to subscriptions. Called by the write
// context after a successful commit, in commit order.
func (r *ReadContext) merge(ctx context.Context, seq int64) error {
	return r.exec.performAndWait(ctx, func() error {
		r.merged = seq
		if err := r.registry.Refresh(ctx, seq); err != nil {
			// The commit is durable; a query that failed to re-evaluate keeps
			// its previous rows until the next merge.
			r.logger.Error("merge: refresh failed", "seq", seq, "error", err)
		}
		r.logger.Debug("merged commit", "seq", seq, "subscriptions", r.registry.Len())
		return nil
	})
}

func (tx *ReadTx) check() error {
	if tx.closed {
		return ErrScopeClosed
	}
	return nil
}

// Items evaluates an item query.
func (tx *ReadTx) Items(q queryir.Query) ([]model.Item, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return tx.r.store.QueryItems(tx.ctx, q)
}

// Tags evaluates a tag query.
func (tx *ReadTx) Tags(q queryir.Query) ([]model.Tag, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return tx.r.store.QueryTags(tx.ctx, q)
}

// Item looks up one item. A miss is (zero, false, nil).
func (tx *ReadTx) Item(id string) (model.Item, bool, error) {
	if err := tx.check(); err != nil {
		return model.Item{}, false, err
	}
	item, err := tx.r.store.ReadItem(tx.ctx, id)
	if store.IsNotFound(err) {
		return model.Item{}, false, nil
	}
	if err != nil {
		return model.Item{}, false, err
	}
	return item, true, nil
}

// Subscribe opens a live subscription to an item query.
func (tx *ReadTx) Subscribe(q queryir.Query) (*notify.Subscription, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return tx.r.registry.Subscribe(tx.ctx, q)
}

// Seq returns the sequence number of the last merged commit.
func (tx *ReadTx) Seq() int64 {
	return tx.r.merged
}

func (r *ReadContext) evaluate(ctx context.Context, q queryir.Query) ([]model.Item, error) {
	items, err := r.store.QueryItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", q.Key(), err)
	}
	return items, nil
}
