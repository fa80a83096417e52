// Package ingest reads record descriptors from files and feeds them to the
// upsert pipeline.
//
// A record file is YAML or JSON (JSON is read as YAML). It holds either a
// list of records or a mapping with a "records" list:
//
//	records:
//	  - id: "1"
//	    title: Go Concurrency Patterns
//	    url: https://go.dev/talks/2012/concurrency.slide
//	    status: unread          # unread | archived | deleted, or 0 | 1 | 2
//	    time_added: 1700000000  # unix seconds or RFC 3339
//	    favorite: true
//	    tags: [go, talks]
//	  - kind: tag
//	    id: reading-list
//
// A record that cannot be converted is skipped and reported; the rest of
// the file is still used.
//
// Inbox watches a directory for record files, upserts each one and moves it
// to processed/ or failed/.
package ingest
