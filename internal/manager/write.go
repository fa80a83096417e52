package manager

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/roach88/readlater/internal/metrics"
	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/store"
)

// WriteContext is the single writer. Staged changes persist across blocks
// until Save or Rollback.
type WriteContext struct {
	exec    *executor
	store   *store.Store
	read    *ReadContext
	clock   *Clock
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	// Staging, confined to the write goroutine.
	items     map[string]staged[model.Item]
	tags      map[string]staged[model.Tag]
	truncated map[model.Kind]bool
}

// staged is a pending put, or a pending delete when deleted is set.
type staged[T any] struct {
	value   T
	deleted bool
}

// WriteTx is the handle passed to a write block.
type WriteTx struct {
	ctx    context.Context
	w      *WriteContext
	closed bool
}

func newWriteContext(exec *executor, st *store.Store, read *ReadContext, clock *Clock, logger *slog.Logger, m metrics.MetricsCollector) *WriteContext {
	w := &WriteContext{
		exec:    exec,
		store:   st,
		read:    read,
		clock:   clock,
		logger:  logger,
		metrics: m,
	}
	w.reset()
	return w
}

// PerformAndWait runs fn on the write context and waits for it.
func (w *WriteContext) PerformAndWait(ctx context.Context, fn func(*WriteTx) error) error {
	return w.exec.performAndWait(ctx, func() error {
		tx := &WriteTx{ctx: ctx, w: w}
		defer func() { tx.closed = true }()
		return fn(tx)
	})
}

func (w *WriteContext) reset() {
	w.items = make(map[string]staged[model.Item])
	w.tags = make(map[string]staged[model.Tag])
	w.truncated = make(map[model.Kind]bool)
}

func (w *WriteContext) hasChanges() bool {
	return len(w.items) > 0 || len(w.tags) > 0 || len(w.truncated) > 0
}

// changeset renders staging in a deterministic order.
func (w *WriteContext) changeset() store.Changeset {
	var cs store.Changeset
	for _, kind := range model.Kinds() {
		if w.truncated[kind] {
			cs.Truncate = append(cs.Truncate, kind)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(w.items)) {
		st := w.items[id]
		if st.deleted {
			cs.DeleteItems = append(cs.DeleteItems, id)
		} else {
			cs.PutItems = append(cs.PutItems, st.value)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(w.tags)) {
		st := w.tags[name]
		if st.deleted {
			cs.DeleteTags = append(cs.DeleteTags, name)
		} else {
			cs.PutTags = append(cs.PutTags, st.value)
		}
	}
	return cs
}

func (tx *WriteTx) check() error {
	if tx.closed {
		return ErrScopeClosed
	}
	return nil
}

// FetchItem returns the item with the given id as this context sees it:
// staged state first, then the store. A miss is (zero, false, nil).
func (tx *WriteTx) FetchItem(id string) (model.Item, bool, error) {
	if err := tx.check(); err != nil {
		return model.Item{}, false, err
	}

	if st, ok := tx.w.items[id]; ok {
		if st.deleted {
			return model.Item{}, false, nil
		}
		return st.value.Clone(), true, nil
	}
	if tx.w.truncated[model.KindItem] {
		return model.Item{}, false, nil
	}

	item, err := tx.w.store.ReadItem(tx.ctx, id)
	if store.IsNotFound(err) {
		return model.Item{}, false, nil
	}
	if err != nil {
		return model.Item{}, false, fmt.Errorf("fetch item: %w", err)
	}
	return item, true, nil
}

// PutItem stages an item, replacing any staged or stored version.
// The item must be valid and must not carry the deleted status.
func (tx *WriteTx) PutItem(item model.Item) error {
	if err := tx.check(); err != nil {
		return err
	}

	item = item.Clone()
	item.Tags = model.NormalizeTags(item.Tags)
	if err := item.Validate(); err != nil {
		return err
	}
	if item.Status == model.StatusDeleted {
		return fmt.Errorf("%w: item %s: deleted items cannot be stored", model.ErrMalformed, item.ID)
	}

	tx.w.items[item.ID] = staged[model.Item]{value: item}
	return nil
}

// DeleteItem stages removal of an item. Deleting a missing item is not an
// error.
func (tx *WriteTx) DeleteItem(id string) error {
	if err := tx.check(); err != nil {
		return err
	}
	tx.w.items[id] = staged[model.Item]{deleted: true}
	return nil
}

// FetchTag returns the tag with the given name: staged state first, then the
// store. ItemIDs reflect the stored relation. A miss is (zero, false, nil).
func (tx *WriteTx) FetchTag(name string) (model.Tag, bool, error) {
	if err := tx.check(); err != nil {
		return model.Tag{}, false, err
	}

	if st, ok := tx.w.tags[name]; ok {
		if st.deleted {
			return model.Tag{}, false, nil
		}
		return st.value, true, nil
	}
	if tx.w.truncated[model.KindTag] {
		return model.Tag{}, false, nil
	}

	tag, err := tx.w.store.ReadTag(tx.ctx, name)
	if store.IsNotFound(err) {
		return model.Tag{}, false, nil
	}
	if err != nil {
		return model.Tag{}, false, fmt.Errorf("fetch tag: %w", err)
	}
	return tag, true, nil
}

// PutTag stages a tag row. Item membership is owned by items and is not
// written from here.
func (tx *WriteTx) PutTag(tag model.Tag) error {
	if err := tx.check(); err != nil {
		return err
	}
	if err := tag.Validate(); err != nil {
		return err
	}
	tx.w.tags[tag.Name] = staged[model.Tag]{value: model.Tag{Name: tag.Name, ItemIDs: slices.Clone(tag.ItemIDs)}}
	return nil
}

// DeleteTag stages removal of a tag and its item links.
func (tx *WriteTx) DeleteTag(name string) error {
	if err := tx.check(); err != nil {
		return err
	}
	tx.w.tags[name] = staged[model.Tag]{deleted: true}
	return nil
}

// DeleteAll discards staged changes of the given kinds and stages removal of
// every stored row of those kinds. No kinds means every kind.
func (tx *WriteTx) DeleteAll(kinds ...model.Kind) error {
	if err := tx.check(); err != nil {
		return err
	}
	if len(kinds) == 0 {
		kinds = model.Kinds()
	}

	for _, kind := range kinds {
		switch kind {
		case model.KindItem:
			clear(tx.w.items)
		case model.KindTag:
			clear(tx.w.tags)
		default:
			return fmt.Errorf("delete all: unknown kind %q", kind)
		}
		tx.w.truncated[kind] = true
	}
	return nil
}

// HasChanges reports whether anything is staged.
func (tx *WriteTx) HasChanges() bool {
	return !tx.closed && tx.w.hasChanges()
}

// Save writes every staged change in one transaction and merges the commit
// into the read context. It returns the commit's sequence number.
//
// With nothing staged Save commits nothing and returns the current sequence
// number. On failure staging is kept and the error wraps ErrCommit.
func (tx *WriteTx) Save() (int64, error) {
	if err := tx.check(); err != nil {
		return 0, err
	}
	w := tx.w
	if !w.hasChanges() {
		return w.clock.Current(), nil
	}

	cs := w.changeset()
	start := time.Now()

	if err := w.store.Apply(tx.ctx, cs); err != nil {
		w.metrics.RecordCommitFailure()
		w.logger.Error("commit failed",
			"puts", len(cs.PutItems)+len(cs.PutTags),
			"deletes", len(cs.DeleteItems)+len(cs.DeleteTags),
			"truncate", cs.Truncate,
			"error", err,
		)
		return 0, fmt.Errorf("%w: %w", ErrCommit, err)
	}

	seq := w.clock.Next()
	w.reset()

	w.logger.Debug("committed",
		"seq", seq,
		"puts", len(cs.PutItems)+len(cs.PutTags),
		"deletes", len(cs.DeleteItems)+len(cs.DeleteTags),
		"truncate", cs.Truncate,
	)

	// The read context runs on another goroutine, so waiting here is safe.
	if err := w.read.merge(context.WithoutCancel(tx.ctx), seq); err != nil {
		w.logger.Error("merge failed", "seq", seq, "error", err)
	}

	w.metrics.RecordCommit(time.Since(start))
	return seq, nil
}

// Rollback discards every staged change.
func (tx *WriteTx) Rollback() error {
	if err := tx.check(); err != nil {
		return err
	}
	if tx.w.hasChanges() {
		tx.w.logger.Debug("rolled back staged changes",
			"items", len(tx.w.items),
			"tags", len(tx.w.tags),
		)
	}
	tx.w.reset()
	return nil
}
