// Package store provides the SQLite file behind the read-it-later store.
//
// The store holds three tables:
//   - items: one row per saved article, keyed by the remote id
//   - tags: one row per tag name (orphans allowed, filtered by queries)
//   - item_tags: the single many-to-many relation between them
//
// # Invariants Enforced by the Schema
//
//   - items.id is non-empty (CHECK) and unique (PRIMARY KEY)
//   - items.status is 0 (unread) or 1 (archived); tombstones never persist
//   - tags.name is unique
//   - deleting an item or tag cascades to item_tags
//
// # Writes
//
// All mutations go through Apply, which writes a Changeset in a single
// transaction: either every change in it is visible afterwards or none is.
// The store does not serialize callers itself; the manager package confines
// writes to one goroutine.
//
// # Database Configuration
//
//   - WAL mode: readers never block on the writer's file lock
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: cascades on item_tags
//   - one pooled connection
//
// Every connection registers a fold() SQL function that matches
// textfold.Fold, used by compiled queries for case- and diacritic-insensitive
// containment.
package store
