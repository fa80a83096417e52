package testutil

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/readlater/internal/manager"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OpenManager opens a manager over a fresh store file in a temp directory
// and closes it when the test ends.
func OpenManager(t testing.TB, opts ...manager.Option) *manager.Manager {
	t.Helper()

	path := filepath.Join(t.TempDir(), "readlater.sqlite")
	opts = append([]manager.Option{manager.WithLogger(DiscardLogger())}, opts...)

	mgr, err := manager.Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}
