package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/readlater/internal/model"
	"github.com/roach88/readlater/internal/queryir"
	"github.com/roach88/readlater/internal/querysql"
)

// ReadItem returns the item with the given id.
// Returns sql.ErrNoRows if no such item exists.
func (s *Store) ReadItem(ctx context.Context, id string) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT i.id, i.title, i.url, i.status, i.time_added, i.time_updated, i.is_favorite,
			`+querysql.ItemTagsColumn+`
		FROM items i
		WHERE i.id = ?
	`, id)

	item, err := scanItem(row)
	if err != nil {
		return model.Item{}, fmt.Errorf("read item %s: %w", id, err)
	}
	return item, nil
}

// ReadTag returns the tag with the given name, including orphans.
// Returns sql.ErrNoRows if no such tag exists.
func (s *Store) ReadTag(ctx context.Context, name string) (model.Tag, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT t.name,
			`+querysql.TagItemIDsColumn+`
		FROM tags t
		WHERE t.name = ?
	`, name)

	tag, err := scanTag(row)
	if err != nil {
		return model.Tag{}, fmt.Errorf("read tag %s: %w", name, err)
	}
	return tag, nil
}

// QueryItems evaluates an item query.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryItems(ctx context.Context, q queryir.Query) ([]model.Item, error) {
	if q.Entity != queryir.EntityItem {
		return nil, fmt.Errorf("query items: %w: entity %q", queryir.ErrInvalidQuery, q.Entity)
	}

	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("query items: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// QueryTags evaluates a tag query.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryTags(ctx context.Context, q queryir.Query) ([]model.Tag, error) {
	if q.Entity != queryir.EntityTag {
		return nil, fmt.Errorf("query tags: %w: entity %q", queryir.ErrInvalidQuery, q.Entity)
	}

	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("query tags: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// Count returns the number of stored rows of the given kind, orphan tags
// included.
func (s *Store) Count(ctx context.Context, kind model.Kind) (int, error) {
	var table string
	switch kind {
	case model.KindItem:
		table = "items"
	case model.KindTag:
		table = "tags"
	default:
		return 0, fmt.Errorf("count: unknown kind %q", kind)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var (
		item        model.Item
		status      int64
		added       int64
		updated     int64
		favorite    int64
		tagsJSON string
	)
	err := row.Scan(&item.ID, &item.Title, &item.URL, &status, &added, &updated, &favorite, &tagsJSON)
	if err != nil {
		return model.Item{}, err
	}

	item.Status = model.Status(status)
	item.TimeAdded = decodeTime(added)
	item.TimeUpdated = decodeTime(updated)
	item.Favorite = favorite != 0
	if item.Tags, err = decodeSorted(tagsJSON); err != nil {
		return model.Item{}, fmt.Errorf("decode tags of %s: %w", item.ID, err)
	}
	return item, nil
}

func scanTag(row rowScanner) (model.Tag, error) {
	var (
		tag       model.Tag
		idsJSON string
	)
	if err := row.Scan(&tag.Name, &idsJSON); err != nil {
		return model.Tag{}, err
	}
	ids, err := decodeSorted(idsJSON)
	if err != nil {
		return model.Tag{}, fmt.Errorf("decode items of %s: %w", tag.Name, err)
	}
	tag.ItemIDs = ids
	return tag, nil
}

// decodeSorted decodes an aggregated JSON array column. json_group_array
// has no defined order, so the result is sorted here. An empty array is nil.
func decodeSorted(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var parts []string
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		return nil, err
	}
	slices.Sort(parts)
	return parts, nil
}

// encodeTime stores a timestamp as unix nanoseconds. The zero time is 0.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, sql.ErrNoRows)
}
