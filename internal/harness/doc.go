// Package harness runs YAML scenarios against a real store.
//
// A scenario opens live views, applies steps that write through the upsert
// pipeline or tear the store down, and then checks assertions about the
// resulting lists, tags and delta batches.
//
// # Scenario Format
//
//	name: archive_moves_between_lists
//	description: "Archiving an item moves it from my-list to archive"
//	watch:
//	  - name: inbox
//	    list: my-list
//	  - name: tagged
//	    tag: go
//	steps:
//	  - upsert:
//	      - { id: "1", title: A, status: unread, time_added: 100, tags: [go] }
//	  - upsert:
//	      - { id: "1", title: A, status: archived, time_added: 100 }
//	    expect:
//	      - type: list
//	        list: archive
//	        ids: ["1"]
//	  - teardown: true
//	assertions:
//	  - type: deltas
//	    watch: inbox
//	    batches:
//	      - [insert 0]
//	      - [delete 0]
//
// Records under upsert use the same fields as ingest record files.
//
// # Assertion Types
//
//   - list: the ids of a fixed list, optionally narrowed by search
//   - tag: the ids carrying a tag, in section order
//   - tags: the names of every tag with items
//   - item: one item by id, or its absence
//   - deltas: the batches a watch received, one line per batch
//
// # Delta Checking
//
// After every step the harness re-reads each watched query. When the rows
// changed it waits for exactly one batch on that watch and checks that
// replaying the batch over the previous rows reproduces the new rows. A
// batch that does not reproduce them fails the scenario even without a
// deltas assertion.
//
// # Golden Traces
//
// Result.Render prints one line per step and one per received batch.
// RunWithGolden compares that rendering against testdata/golden.
package harness
