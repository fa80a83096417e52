package manager

import "errors"

var (
	// ErrInit wraps every failure to open, configure or migrate the store.
	// There is no degraded mode: callers must stop.
	ErrInit = errors.New("store initialization failed")

	// ErrCommit wraps a failed Save. Staged changes are kept; the caller may
	// Save again or Rollback.
	ErrCommit = errors.New("commit failed")

	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("manager closed")

	// ErrScopeClosed is returned when a WriteTx or ReadTx is used after its
	// block returned.
	ErrScopeClosed = errors.New("transaction used outside its block")
)
