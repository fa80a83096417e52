// Package upsert reconciles record descriptors from the sync layer with
// stored entities.
package upsert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/readlater/internal/manager"
	"github.com/roach88/readlater/internal/metrics"
	"github.com/roach88/readlater/internal/model"
)

// Writer runs blocks on the write context. *manager.WriteContext
// implements it.
type Writer interface {
	PerformAndWait(ctx context.Context, fn func(*manager.WriteTx) error) error
}

// Pipeline turns batches of descriptors into stored entities.
type Pipeline struct {
	writer  Writer
	logger  *slog.Logger
	metrics metrics.MetricsCollector
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics collector. Defaults to metrics.Nop.
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a pipeline writing through w.
func New(w Writer, opts ...Option) *Pipeline {
	p := &Pipeline{
		writer:  w,
		logger:  slog.Default(),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// outcome of applying one descriptor.
type outcome int

const (
	kept outcome = iota
	tombstoned
	malformed
)

type entityKey struct {
	kind model.Kind
	id   string
}

// Build applies a batch of descriptors in one write block and commits once.
//
// For each descriptor the entity is fetched by id (or created), the
// descriptor's fields are applied, and the result is validated. Entities
// that fail validation, and items whose status is deleted, are removed
// rather than stored. Neither aborts the batch.
//
// The result holds one value copy per (kind, id) in first-seen order,
// reflecting the last descriptor for that id, without entities removed
// later in the batch.
//
// A lookup I/O error discards everything staged and aborts. A commit failure
// also discards the batch, wraps manager.ErrCommit and is not retried.
func (p *Pipeline) Build(ctx context.Context, records []model.RecordDescriptor) ([]model.Entity, error) {
	var (
		order   []entityKey
		seen    = make(map[entityKey]bool, len(records))
		results = make(map[entityKey]model.Entity, len(records))
		counts  = map[outcome]int{}
		seq     int64
	)

	err := p.writer.PerformAndWait(ctx, func(tx *manager.WriteTx) error {
		for i, rec := range records {
			ent, out, err := p.apply(tx, rec)
			if err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					err = errors.Join(err, rbErr)
				}
				return fmt.Errorf("record %d (%s %q): %w", i, rec.Kind, rec.ID, err)
			}
			counts[out]++

			key := entityKey{kind: rec.Kind, id: rec.ID}
			if out != kept {
				delete(results, key)
				continue
			}
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
			results[key] = ent
		}

		var err error
		if seq, err = tx.Save(); err != nil {
			// The batch is not retried; a later Save must not commit it.
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		p.logger.Error("upsert failed", "records", len(records), "error", err)
		return nil, fmt.Errorf("upsert: %w", err)
	}

	out := make([]model.Entity, 0, len(results))
	for _, key := range order {
		if ent, ok := results[key]; ok {
			out = append(out, ent)
		}
	}

	p.metrics.RecordUpserted(len(out))
	p.logger.Info("upsert complete",
		"seq", seq,
		"records", len(records),
		"stored", len(out),
		"tombstoned", counts[tombstoned],
		"malformed", counts[malformed],
	)

	return out, nil
}

// apply dispatches on the descriptor's kind. A non-nil error is an I/O
// failure that aborts the batch; everything else is an outcome.
func (p *Pipeline) apply(tx *manager.WriteTx, rec model.RecordDescriptor) (model.Entity, outcome, error) {
	switch rec.Kind {
	case model.KindItem:
		return p.applyItem(tx, rec)
	case model.KindTag:
		return p.applyTag(tx, rec)
	default:
		p.drop(rec, malformed, fmt.Errorf("%w: unknown kind %q", model.ErrMalformed, rec.Kind))
		return nil, malformed, nil
	}
}

func (p *Pipeline) applyItem(tx *manager.WriteTx, rec model.RecordDescriptor) (model.Entity, outcome, error) {
	item, found, err := tx.FetchItem(rec.ID)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		item = model.Item{ID: rec.ID}
	}

	item.Title = rec.Title
	item.URL = rec.URL
	item.Status = rec.Status
	item.TimeAdded = normalizeTime(rec.TimeAdded)
	item.TimeUpdated = normalizeTime(rec.TimeUpdated)
	item.Favorite = rec.Favorite
	switch {
	case rec.Tags == nil:
		// Relation untouched.
	case rec.MergeTags:
		item.Tags = model.NormalizeTags(append(slices.Clone(item.Tags), rec.Tags...))
	default:
		item.Tags = model.NormalizeTags(rec.Tags)
	}

	if err := item.Validate(); err != nil {
		return p.remove(tx, rec, malformed, err)
	}
	if item.Status == model.StatusDeleted {
		return p.remove(tx, rec, tombstoned, nil)
	}

	if err := tx.PutItem(item); err != nil {
		return p.remove(tx, rec, malformed, err)
	}
	return item.Clone(), kept, nil
}

func (p *Pipeline) applyTag(tx *manager.WriteTx, rec model.RecordDescriptor) (model.Entity, outcome, error) {
	tag, found, err := tx.FetchTag(rec.ID)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		tag = model.Tag{Name: rec.ID}
	}

	if err := tag.Validate(); err != nil {
		return p.remove(tx, rec, malformed, err)
	}
	if err := tx.PutTag(tag); err != nil {
		return p.remove(tx, rec, malformed, err)
	}
	return tag, kept, nil
}

// remove stages deletion of whatever is stored under the descriptor's id,
// so a bad descriptor never leaves a half-applied entity behind.
func (p *Pipeline) remove(tx *manager.WriteTx, rec model.RecordDescriptor, out outcome, cause error) (model.Entity, outcome, error) {
	var err error
	switch rec.Kind {
	case model.KindItem:
		err = tx.DeleteItem(rec.ID)
	case model.KindTag:
		err = tx.DeleteTag(rec.ID)
	}
	if err != nil {
		return nil, 0, err
	}
	p.drop(rec, out, cause)
	return nil, out, nil
}

func (p *Pipeline) drop(rec model.RecordDescriptor, out outcome, cause error) {
	switch out {
	case tombstoned:
		p.metrics.RecordDropped(metrics.ReasonTombstone)
		p.logger.Debug("tombstone removed", "kind", rec.Kind, "id", rec.ID)
	case malformed:
		p.metrics.RecordDropped(metrics.ReasonMalformed)
		p.logger.Warn("malformed record dropped", "kind", rec.Kind, "id", rec.ID, "error", cause)
	}
}

// normalizeTime drops the monotonic reading and location so values compare
// equal to what the store returns.
func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.Round(0).UTC()
}
