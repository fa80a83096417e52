package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/readlater/internal/model"
)

// Changeset is the set of mutations written by one Apply call.
//
// Changes are applied in a fixed order: truncations, deletions, tag rows,
// then item rows. Item rows carry their complete tag set, which replaces the
// stored relation.
type Changeset struct {
	Truncate    []model.Kind
	DeleteItems []string
	DeleteTags  []string
	PutTags     []model.Tag
	PutItems    []model.Item
}

// Empty reports whether the changeset would change nothing.
func (c Changeset) Empty() bool {
	return len(c.Truncate) == 0 &&
		len(c.DeleteItems) == 0 &&
		len(c.DeleteTags) == 0 &&
		len(c.PutTags) == 0 &&
		len(c.PutItems) == 0
}

// Apply writes the changeset in a single transaction.
// On error nothing in the changeset is visible.
//
// Item puts use ON CONFLICT(id) DO UPDATE, so writing the same item twice
// leaves one row holding the latest fields.
func (s *Store) Apply(ctx context.Context, cs Changeset) error {
	if cs.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, kind := range cs.Truncate {
		if err := truncate(ctx, tx, kind); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}

	for _, id := range cs.DeleteItems {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("apply: delete item %s: %w", id, err)
		}
	}

	for _, name := range cs.DeleteTags {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE name = ?`, name); err != nil {
			return fmt.Errorf("apply: delete tag %s: %w", name, err)
		}
	}

	for _, tag := range cs.PutTags {
		if err := ensureTag(ctx, tx, tag.Name); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}

	for _, item := range cs.PutItems {
		if err := putItem(ctx, tx, item); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply: commit: %w", err)
	}

	return nil
}

// truncate removes every row of one kind. item_tags rows go with either side
// through ON DELETE CASCADE.
func truncate(ctx context.Context, tx *sql.Tx, kind model.Kind) error {
	switch kind {
	case model.KindItem:
		if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
			return fmt.Errorf("truncate items: %w", err)
		}
	case model.KindTag:
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags`); err != nil {
			return fmt.Errorf("truncate tags: %w", err)
		}
		// Restart tag row ids so an emptied store matches a fresh file.
		if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'tags'`); err != nil {
			return fmt.Errorf("truncate tags: reset sequence: %w", err)
		}
	default:
		return fmt.Errorf("truncate: unknown kind %q", kind)
	}
	return nil
}

func ensureTag(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("put tag %s: %w", name, err)
	}
	return nil
}

func putItem(ctx context.Context, tx *sql.Tx, item model.Item) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO items (id, title, url, status, time_added, time_updated, is_favorite)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			status = excluded.status,
			time_added = excluded.time_added,
			time_updated = excluded.time_updated,
			is_favorite = excluded.is_favorite
	`,
		item.ID,
		item.Title,
		item.URL,
		int64(item.Status),
		encodeTime(item.TimeAdded),
		encodeTime(item.TimeUpdated),
		boolInt(item.Favorite),
	)
	if err != nil {
		return fmt.Errorf("put item %s: %w", item.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ?`, item.ID); err != nil {
		return fmt.Errorf("put item %s: clear tags: %w", item.ID, err)
	}

	for _, name := range item.Tags {
		if err := ensureTag(ctx, tx, name); err != nil {
			return fmt.Errorf("put item %s: %w", item.ID, err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO item_tags (item_id, tag_id)
			SELECT ?, id FROM tags WHERE name = ?
		`, item.ID, name)
		if err != nil {
			return fmt.Errorf("put item %s: link tag %s: %w", item.ID, name, err)
		}
	}

	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
