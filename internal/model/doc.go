// Package model defines the fixed two-entity schema of the read-it-later store.
//
// The schema has exactly two entity kinds:
//   - Item: a saved article, keyed by an externally assigned id
//   - Tag: a label, keyed by its name, related many-to-many to items
//
// Entity is a sealed interface implemented only by Item and Tag, so code that
// handles persisted entities can switch exhaustively over the two kinds:
//
//	switch e := entity.(type) {
//	case model.Item:
//	    // handle item
//	case model.Tag:
//	    // handle tag
//	}
//
// All types here are plain values. Entities are copied across execution
// contexts, never shared by reference.
//
// RecordDescriptor is the input side: the desired state of one entity as
// delivered by the sync layer. The upsert pipeline turns descriptors into
// persisted entities.
package model
