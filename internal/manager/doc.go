// Package manager owns the store file and the two execution contexts that
// confine access to it.
//
// The write context is the only place entities are created, mutated or
// deleted. Changes are staged across blocks, like an unsaved document, and
// written by WriteTx.Save in one SQLite transaction.
//
// The read context evaluates queries and live subscriptions. A successful
// Save stamps the commit with the next commit sequence number and merges it
// into the read context before returning: every read block that starts after
// Save returns observes the commit, and every subscription has received its
// batch for it.
//
// # Thread-safety model
//
// Each context is one goroutine draining a FIFO of blocks.
//
//   - PerformAndWait(): safe from any goroutine, blocks until the block ran
//   - WriteTx/ReadTx: valid only inside their block (ErrScopeClosed after)
//   - entities leave a block only as value copies
//
// A block must not call PerformAndWait on its own context; it would wait on
// itself forever.
package manager
