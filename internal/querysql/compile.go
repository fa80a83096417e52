// Package querysql compiles query descriptors to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/readlater/internal/queryir"
	"github.com/roach88/readlater/internal/textfold"
)

// FoldFunction is the name of the SQL function the store registers on every
// connection. It must fold exactly like textfold.Fold.
const FoldFunction = "fold"

// ItemTagsColumn aggregates an item's tag names (alias i) as a JSON array.
// Names may hold any character, so no separator is safe.
const ItemTagsColumn = "(SELECT json_group_array(t.name) FROM item_tags it JOIN tags t ON t.id = it.tag_id WHERE it.item_id = i.id)"

// TagItemIDsColumn aggregates a tag's item ids (alias t) as a JSON array.
const TagItemIDsColumn = "(SELECT json_group_array(it.item_id) FROM item_tags it WHERE it.tag_id = t.id)"

const itemSelect = "SELECT i.id, i.title, i.url, i.status, i.time_added, i.time_updated, i.is_favorite, " +
	ItemTagsColumn + " AS tags FROM items i"

const tagSelect = "SELECT t.name, " + TagItemIDsColumn + " AS item_ids FROM tags t"

// SQLCompiler compiles queryir.Query values to SQL.
//
// Every statement carries the query's full ORDER BY, which always ends with
// the entity identifier, so results are in a total order. Values are always
// bound as parameters, never interpolated.
//
// Item statements select, in order: id, title, url, status, time_added,
// time_updated, is_favorite, tags. Tag statements select: name, item_ids.
type SQLCompiler struct {
	// Fold normalizes search text before it is bound. Defaults to textfold.Fold.
	Fold func(string) string
}

// NewSQLCompiler creates a compiler using textfold.Fold.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Fold: textfold.Fold}
}

// Compile validates q and converts it to SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	switch q.Entity {
	case queryir.EntityItem:
		b.WriteString(itemSelect)
	case queryir.EntityTag:
		b.WriteString(tagSelect)
	}

	var params []any
	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.Entity, q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = whereParams
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(c.orderBy(q))

	return b.String(), params, nil
}

// Compile compiles q with a default compiler.
func Compile(q queryir.Query) (string, []any, error) {
	return NewSQLCompiler().Compile(q)
}

func (c *SQLCompiler) orderBy(q queryir.Query) string {
	parts := make([]string, len(q.Order))
	for i, k := range q.Order {
		col := column(q.Entity, k.Field)
		if isText(k.Field) {
			// Deterministic text ordering regardless of connection defaults.
			col += " COLLATE BINARY"
		}
		if k.Direction == queryir.Descending {
			parts[i] = col + " DESC"
		} else {
			parts[i] = col + " ASC"
		}
	}
	return strings.Join(parts, ", ")
}

// compilePredicate compiles one predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(e queryir.Entity, p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.StatusEquals:
		return "i.status = ?", []any{int64(pred.Status)}, nil
	case queryir.StatusNotEquals:
		return "i.status <> ?", []any{int64(pred.Status)}, nil
	case queryir.FavoriteEquals:
		return "i.is_favorite = ?", []any{boolParam(pred.Value)}, nil
	case queryir.Contains:
		return c.compileContains(e, pred)
	case queryir.TagNameContains:
		sql := "EXISTS (SELECT 1 FROM item_tags it JOIN tags t ON t.id = it.tag_id " +
			"WHERE it.item_id = i.id AND instr(" + FoldFunction + "(t.name), ?) > 0)"
		return sql, []any{c.fold(pred.Text)}, nil
	case queryir.HasItems:
		return "EXISTS (SELECT 1 FROM item_tags it WHERE it.tag_id = t.id)", nil, nil
	case queryir.And:
		return c.compileAnd(e, pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileContains(e queryir.Entity, pred queryir.Contains) (string, []any, error) {
	needle := c.fold(pred.Text)
	parts := make([]string, len(pred.Fields))
	params := make([]any, len(pred.Fields))
	for i, f := range pred.Fields {
		parts[i] = fmt.Sprintf("instr(%s(%s), ?) > 0", FoldFunction, column(e, f))
		params[i] = needle
	}
	return "(" + strings.Join(parts, " OR ") + ")", params, nil
}

func (c *SQLCompiler) compileAnd(e queryir.Entity, and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, sub := range and.Predicates {
		sql, subParams, err := c.compilePredicate(e, sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, subParams...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

func (c *SQLCompiler) fold(s string) string {
	if c.Fold == nil {
		return textfold.Fold(s)
	}
	return c.Fold(s)
}

func column(e queryir.Entity, f queryir.Field) string {
	if e == queryir.EntityTag {
		return "t." + string(f)
	}
	return "i." + string(f)
}

func isText(f queryir.Field) bool {
	switch f {
	case queryir.FieldID, queryir.FieldTitle, queryir.FieldURL, queryir.FieldName:
		return true
	}
	return false
}

func boolParam(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
