package queryir

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is returned for queries that no backend can evaluate.
var ErrInvalidQuery = errors.New("invalid query")

var entityFields = map[Entity]map[Field]bool{
	EntityItem: {
		FieldID: true, FieldTitle: true, FieldURL: true, FieldStatus: true,
		FieldTimeAdded: true, FieldTimeUpdated: true, FieldFavorite: true,
	},
	EntityTag: {
		FieldName: true,
	},
}

// IdentityField returns the field that makes an entity's order total.
func IdentityField(e Entity) Field {
	if e == EntityTag {
		return FieldName
	}
	return FieldID
}

// Validate checks that q can be compiled and yields a total order.
//
// Rules:
//   - Entity is known
//   - every sort and section field belongs to the entity
//   - the order ends with the entity's identity field
//   - predicates are applicable to the entity (HasItems only for tags,
//     everything else only for items)
//   - Contains names at least one field and And holds no nil predicates
func Validate(q Query) error {
	fields, ok := entityFields[q.Entity]
	if !ok {
		return fmt.Errorf("%w: unknown entity %q", ErrInvalidQuery, q.Entity)
	}

	if len(q.Order) == 0 {
		return fmt.Errorf("%w: %s query has no order", ErrInvalidQuery, q.Entity)
	}
	for _, k := range q.Order {
		if !fields[k.Field] {
			return fmt.Errorf("%w: cannot sort %s by %q", ErrInvalidQuery, q.Entity, k.Field)
		}
	}
	if last := q.Order[len(q.Order)-1].Field; last != IdentityField(q.Entity) {
		return fmt.Errorf("%w: %s order must end with %q, got %q",
			ErrInvalidQuery, q.Entity, IdentityField(q.Entity), last)
	}

	if q.SectionBy != "" && !fields[q.SectionBy] {
		return fmt.Errorf("%w: cannot section %s by %q", ErrInvalidQuery, q.Entity, q.SectionBy)
	}

	if q.Filter != nil {
		if err := validatePredicate(q.Entity, q.Filter); err != nil {
			return err
		}
	}
	return nil
}

func validatePredicate(e Entity, p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return fmt.Errorf("%w: nil predicate", ErrInvalidQuery)
	case StatusEquals, StatusNotEquals, FavoriteEquals, TagNameContains:
		if e != EntityItem {
			return fmt.Errorf("%w: %s applies to items only", ErrInvalidQuery, pred)
		}
	case Contains:
		if e != EntityItem {
			return fmt.Errorf("%w: %s applies to items only", ErrInvalidQuery, pred)
		}
		if len(pred.Fields) == 0 {
			return fmt.Errorf("%w: contains without fields", ErrInvalidQuery)
		}
		for _, f := range pred.Fields {
			if f != FieldTitle && f != FieldURL {
				return fmt.Errorf("%w: cannot search field %q", ErrInvalidQuery, f)
			}
		}
	case HasItems:
		if e != EntityTag {
			return fmt.Errorf("%w: has_items applies to tags only", ErrInvalidQuery)
		}
	case And:
		for _, sub := range pred.Predicates {
			if err := validatePredicate(e, sub); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unsupported predicate %T", ErrInvalidQuery, p)
	}
	return nil
}
