package model

import "time"

// RecordDescriptor describes the desired state of one entity, keyed by
// identifier. The sync layer produces descriptors; the upsert pipeline
// consumes them.
//
// For KindTag only ID is used, and it holds the tag name.
type RecordDescriptor struct {
	Kind Kind
	ID   string

	Title       string
	URL         string
	Status      Status
	TimeAdded   time.Time
	TimeUpdated time.Time
	Favorite    bool

	// Tags nil leaves the stored tag relation untouched. A non-nil slice
	// replaces it, or is unioned with it when MergeTags is set.
	Tags      []string
	MergeTags bool
}

// ItemRecord is a convenience constructor for an item descriptor.
func ItemRecord(id, title, url string, status Status) RecordDescriptor {
	return RecordDescriptor{
		Kind:   KindItem,
		ID:     id,
		Title:  title,
		URL:    url,
		Status: status,
	}
}

// TagRecord is a convenience constructor for a tag descriptor.
func TagRecord(name string) RecordDescriptor {
	return RecordDescriptor{Kind: KindTag, ID: name}
}

// Tombstone returns a descriptor that removes the item with the given id.
func Tombstone(id string) RecordDescriptor {
	return RecordDescriptor{Kind: KindItem, ID: id, Status: StatusDeleted}
}
