// Package notify turns item queries into live subscriptions.
//
// A subscription starts with a snapshot of the rows matching its query in
// sort order. Each commit that changes those rows delivers one Batch of
// deltas. A consumer applies a batch to its copy of the rows, in the order the
// deltas appear, and ends up with the new result:
//
//  1. deletes, by descending old index
//  2. moves, each removing a row and reinserting it after its nearest
//     already-placed predecessor in the new order
//  3. inserts, by ascending new index
//  4. updates, at final indices, for rows whose fields changed in place
//
// Apply replays a batch with exactly these semantics.
//
// The Registry holds every live query and is confined to the read context:
// only the goroutine that owns the read context may call its methods, except
// where noted. Subscriptions are safe to use from any goroutine.
package notify
