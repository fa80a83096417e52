package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/readlater/internal/model"
)

// Entity selects which table a query reads.
type Entity string

const (
	EntityItem Entity = "item"
	EntityTag  Entity = "tag"
)

// Field names a sortable or filterable attribute.
type Field string

const (
	FieldID          Field = "id"
	FieldTitle       Field = "title"
	FieldURL         Field = "url"
	FieldStatus      Field = "status"
	FieldTimeAdded   Field = "time_added"
	FieldTimeUpdated Field = "time_updated"
	FieldFavorite    Field = "is_favorite"
	FieldName        Field = "name"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortKey is one component of a sort order.
type SortKey struct {
	Field     Field
	Direction Direction
}

func (k SortKey) String() string {
	return string(k.Field) + " " + k.Direction.String()
}

// Asc and Desc build sort keys.
func Asc(f Field) SortKey  { return SortKey{Field: f, Direction: Ascending} }
func Desc(f Field) SortKey { return SortKey{Field: f, Direction: Descending} }

// Query is a predicate plus a sort order over one entity.
type Query struct {
	Entity Entity
	Filter Predicate // nil matches every row
	Order  []SortKey

	// SectionBy names a field results can be grouped by for sectioned
	// display. Empty means no sections.
	SectionBy Field
}

// Key returns a canonical string for the query. Two queries with the same
// key select the same rows in the same order.
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString(string(q.Entity))
	b.WriteString("?")
	if q.Filter == nil {
		b.WriteString("true")
	} else {
		b.WriteString(q.Filter.String())
	}
	b.WriteString("#")
	for i, k := range q.Order {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(string(k.Field))
		b.WriteString(":")
		b.WriteString(k.Direction.String())
	}
	if q.SectionBy != "" {
		b.WriteString("/")
		b.WriteString(string(q.SectionBy))
	}
	return b.String()
}

// Predicate is a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	fmt.Stringer
	predicateNode()
}

// StatusEquals matches items with the given status.
type StatusEquals struct {
	Status model.Status
}

func (StatusEquals) predicateNode() {}

func (p StatusEquals) String() string {
	return "status=" + strconv.Itoa(int(p.Status))
}

// StatusNotEquals matches items whose status differs from Status.
type StatusNotEquals struct {
	Status model.Status
}

func (StatusNotEquals) predicateNode() {}

func (p StatusNotEquals) String() string {
	return "status!=" + strconv.Itoa(int(p.Status))
}

// FavoriteEquals matches items by their favorite flag.
type FavoriteEquals struct {
	Value bool
}

func (FavoriteEquals) predicateNode() {}

func (p FavoriteEquals) String() string {
	return "is_favorite=" + strconv.FormatBool(p.Value)
}

// Contains matches when any of Fields contains Text, ignoring case and
// diacritics.
type Contains struct {
	Fields []Field
	Text   string
}

func (Contains) predicateNode() {}

func (p Contains) String() string {
	fields := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		fields[i] = string(f)
	}
	return fmt.Sprintf("contains(%s,%q)", strings.Join(fields, "|"), p.Text)
}

// TagNameContains matches items carrying at least one tag whose name
// contains Text, ignoring case and diacritics.
type TagNameContains struct {
	Text string
}

func (TagNameContains) predicateNode() {}

func (p TagNameContains) String() string {
	return fmt.Sprintf("tag(%q)", p.Text)
}

// HasItems matches tags with at least one associated item.
type HasItems struct{}

func (HasItems) predicateNode() {}

func (HasItems) String() string { return "has_items" }

// And is a conjunction. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

func (p And) String() string {
	parts := make([]string, len(p.Predicates))
	for i, sub := range p.Predicates {
		parts[i] = sub.String()
	}
	return "(" + strings.Join(parts, "&") + ")"
}
