package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed marks an entity or descriptor that fails validation.
var ErrMalformed = errors.New("malformed record")

// Status is the reading state of an item.
// The numeric values match the codes used by the remote service.
type Status int

const (
	// StatusUnread is an item in the inbox.
	StatusUnread Status = 0
	// StatusArchived is an item that has been read and archived.
	StatusArchived Status = 1
	// StatusDeleted is a tombstone. It is never persisted.
	StatusDeleted Status = 2
)

// Valid reports whether s is one of the known status codes.
func (s Status) Valid() bool {
	return s >= StatusUnread && s <= StatusDeleted
}

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusUnread:
		return "unread"
	case StatusArchived:
		return "archived"
	case StatusDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus accepts a status name ("unread", "archived", "deleted") or its
// numeric code ("0", "1", "2").
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unread", "0":
		return StatusUnread, nil
	case "archived", "archive", "1":
		return StatusArchived, nil
	case "deleted", "2":
		return StatusDeleted, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Status(n), fmt.Errorf("%w: unknown status code %d", ErrMalformed, n)
	}
	return 0, fmt.Errorf("%w: unknown status %q", ErrMalformed, s)
}

// Kind identifies one of the two entity kinds.
type Kind string

const (
	KindItem Kind = "item"
	KindTag  Kind = "tag"
)

// Kinds returns every entity kind known to the schema.
// Order matters for bulk deletion: items first, then tags.
func Kinds() []Kind {
	return []Kind{KindItem, KindTag}
}

// ParseKind parses a kind name. An empty string means item.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindItem, "":
		return KindItem, nil
	case KindTag:
		return KindTag, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrMalformed, s)
}

// Entity is a persisted record: either an Item or a Tag.
//
// This is a sealed interface. Only types in this package implement it.
type Entity interface {
	EntityKind() Kind
	EntityID() string
	entity()
}

// Item is a saved article.
type Item struct {
	ID          string
	Title       string
	URL         string
	Status      Status
	TimeAdded   time.Time
	TimeUpdated time.Time
	Favorite    bool
	Tags        []string // sorted, unique
}

func (Item) entity() {}

// EntityKind returns KindItem.
func (Item) EntityKind() Kind { return KindItem }

// EntityID returns the item id.
func (i Item) EntityID() string { return i.ID }

// Validate checks the invariants every persisted item must satisfy.
// A deleted status is valid here; callers decide what to do with tombstones.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: item id is empty", ErrMalformed)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("%w: item %s has unknown status %d", ErrMalformed, i.ID, int(i.Status))
	}
	for _, name := range i.Tags {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: item %s has an empty tag name", ErrMalformed, i.ID)
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with i.
func (i Item) Clone() Item {
	i.Tags = slices.Clone(i.Tags)
	return i
}

// Equal reports whether two items hold the same field values.
func (i Item) Equal(o Item) bool {
	return i.ID == o.ID &&
		i.Title == o.Title &&
		i.URL == o.URL &&
		i.Status == o.Status &&
		i.TimeAdded.Equal(o.TimeAdded) &&
		i.TimeUpdated.Equal(o.TimeUpdated) &&
		i.Favorite == o.Favorite &&
		slices.Equal(i.Tags, o.Tags)
}

// HasTag reports whether the item carries the named tag.
func (i Item) HasTag(name string) bool {
	_, found := slices.BinarySearch(i.Tags, name)
	return found
}

// Tag is a label attached to items.
type Tag struct {
	Name    string
	ItemIDs []string // sorted
}

func (Tag) entity() {}

// EntityKind returns KindTag.
func (Tag) EntityKind() Kind { return KindTag }

// EntityID returns the tag name.
func (t Tag) EntityID() string { return t.Name }

// Validate checks that the tag has a usable name.
func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tag name is empty", ErrMalformed)
	}
	return nil
}

// NormalizeTags trims, drops duplicates and sorts tag names.
// Empty names are kept so that validation can reject them.
func NormalizeTags(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimSpace(n))
	}
	slices.Sort(out)
	return slices.Compact(out)
}
