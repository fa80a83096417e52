package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/readlater/internal/model"
)

var (
	byTimeAdded   = []SortKey{Desc(FieldTimeAdded), Desc(FieldID)}
	byTimeUpdated = []SortKey{Desc(FieldTimeUpdated), Desc(FieldID)}
)

// ForList builds the query for one of the fixed item lists. A non-empty
// search string narrows the list to items whose title or url contains it.
func ForList(list model.TypeOfList, search string) (Query, error) {
	var q Query
	switch list {
	case model.ListAll:
		q = itemQuery(StatusNotEquals{Status: model.StatusDeleted}, byTimeAdded)
	case model.ListMyList:
		q = itemQuery(StatusEquals{Status: model.StatusUnread}, byTimeAdded)
	case model.ListFavorites:
		q = itemQuery(FavoriteEquals{Value: true}, byTimeUpdated)
	case model.ListArchive:
		q = itemQuery(StatusEquals{Status: model.StatusArchived}, byTimeUpdated)
	default:
		return Query{}, fmt.Errorf("%w: unknown list %d", ErrInvalidQuery, int(list))
	}
	return WithSearch(q, search), nil
}

// ForTag builds the sectioned query for the items carrying a tag.
func ForTag(name string) Query {
	q := itemQuery(
		And{Predicates: []Predicate{
			StatusNotEquals{Status: model.StatusDeleted},
			TagNameContains{Text: name},
		}},
		[]SortKey{Asc(FieldStatus), Desc(FieldTimeAdded), Desc(FieldID)},
	)
	q.SectionBy = FieldStatus
	return q
}

// TagListing builds the query for every tag that has at least one item.
func TagListing() Query {
	return Query{
		Entity: EntityTag,
		Filter: HasItems{},
		Order:  []SortKey{Asc(FieldName)},
	}
}

// WithSearch conjoins a text search with an item query. Blank search text
// returns q unchanged.
func WithSearch(q Query, search string) Query {
	search = strings.TrimSpace(search)
	if search == "" {
		return q
	}
	preds := make([]Predicate, 0, 3)
	if q.Filter != nil {
		preds = append(preds, q.Filter)
	}
	preds = append(preds,
		Contains{Fields: []Field{FieldTitle, FieldURL}, Text: search},
		StatusNotEquals{Status: model.StatusDeleted},
	)
	q.Filter = And{Predicates: preds}
	return q
}

func itemQuery(filter Predicate, order []SortKey) Query {
	return Query{
		Entity: EntityItem,
		Filter: filter,
		Order:  append([]SortKey(nil), order...),
	}
}
