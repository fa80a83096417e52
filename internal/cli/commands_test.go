package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/readlater/internal/testutil"
)

const threeItems = `records:
  - { id: a, title: Alpha Go, url: "https://example.com/a", status: unread, time_added: 100, tags: [go] }
  - { id: b, title: Beta, status: archived, time_added: 200, time_updated: 300, tags: [go, db] }
  - { id: c, title: Café notes, status: unread, time_added: 300, favorite: true, time_updated: 400 }
`

func TestImportCommand_File(t *testing.T) {
	opts := newTestOptions(t, "text")
	path := writeRecordFile(t, t.TempDir(), "saved.yaml", `
- { id: a, title: A, time_added: 100 }
- { id: b, title: B, time_added: 200 }
- { id: c, title: C, time_added: yesterday }
`)

	out, err := execute(t, NewImportCommand(opts), path)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ "+path+": 2 stored, 1 skipped")
	assert.Contains(t, out, "skipped record 2 (c)")
	assert.Contains(t, out, "Imported 2 entities from 1 file(s), 0 failed")
}

func TestImportCommand_Stdin(t *testing.T) {
	opts := newTestOptions(t, "json")
	cmd := NewImportCommand(opts)
	cmd.SetIn(strings.NewReader(`[{"id": "s1", "title": "From stdin", "tags": ["x"]}]`))

	out, err := execute(t, cmd, "-")
	require.NoError(t, err)

	var result ImportResult
	decodeData(t, out, &result)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "stdin", result.Files[0].Path)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, int64(1), result.Seq)
}

func TestImportCommand_FailedFileExitsWithFailure(t *testing.T) {
	opts := newTestOptions(t, "text")
	dir := t.TempDir()
	good := writeRecordFile(t, dir, "good.yaml", "- { id: a, title: A }\n")
	bad := writeRecordFile(t, dir, "bad.yaml", "records: [unterminated\n")

	out, err := execute(t, NewImportCommand(opts), good, bad, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 file(s) failed to import")
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "✗ "+bad)
}

func TestImportCommand_NoStoreIsCommandError(t *testing.T) {
	opts := &RootOptions{Format: "text", Logger: testutil.DiscardLogger()}
	path := writeRecordFile(t, t.TempDir(), "a.yaml", "- { id: a }\n")

	_, err := execute(t, NewImportCommand(opts), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestListCommand(t *testing.T) {
	opts := newTestOptions(t, "json")
	importRecords(t, opts, threeItems)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"default is all", nil, []string{"c", "b", "a"}},
		{"my-list", []string{"my-list"}, []string{"c", "a"}},
		{"favorites", []string{"favorites"}, []string{"c"}},
		{"archive", []string{"archive"}, []string{"b"}},
		{"search folds case", []string{"all", "--search", "ALPHA"}, []string{"a"}},
		{"search folds diacritics", []string{"my-list", "-s", "cafe"}, []string{"c"}},
		{"search matches url", []string{"all", "-s", "example.com"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewListCommand(opts), tt.args...)
			require.NoError(t, err)

			var result ListResult
			decodeData(t, out, &result)
			got := make([]string, len(result.Items))
			for i, it := range result.Items {
				got[i] = it.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListCommand_Text(t *testing.T) {
	opts := newTestOptions(t, "text")

	out, err := execute(t, NewListCommand(opts), "favorites")
	require.NoError(t, err)
	assert.Equal(t, "No items.\n", out)

	importRecords(t, opts, threeItems)
	out, err = execute(t, NewListCommand(opts), "favorites")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Café notes")
	assert.Contains(t, lines[1], "*")
}

func TestListCommand_InvalidList(t *testing.T) {
	opts := newTestOptions(t, "text")

	_, err := execute(t, NewListCommand(opts), "later")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestListCommand_TimelineOrder(t *testing.T) {
	opts := newTestOptions(t, "json")
	tl := testutil.NewTimeline(time.Time{}, time.Minute)

	var b strings.Builder
	for i := range 5 {
		fmt.Fprintf(&b, "- { id: t%d, title: T%d, time_added: %q }\n", i, i, tl.Next().Format(time.RFC3339))
	}
	importRecords(t, opts, b.String())

	out, err := execute(t, NewListCommand(opts), "all")
	require.NoError(t, err)
	var result ListResult
	decodeData(t, out, &result)
	require.Len(t, result.Items, 5)
	assert.Equal(t, "t4", result.Items[0].ID)
	assert.Equal(t, tl.At(5).Format(time.RFC3339), result.Items[0].TimeAdded)
	assert.Equal(t, "t0", result.Items[4].ID)
}

func TestShowCommand(t *testing.T) {
	opts := newTestOptions(t, "text")
	importRecords(t, opts, threeItems)

	out, err := execute(t, NewShowCommand(opts), "b")
	require.NoError(t, err)
	assert.Contains(t, out, "title:    Beta\n")
	assert.Contains(t, out, "status:   archived\n")
	assert.Contains(t, out, "tags:     db, go\n")
}

func TestShowCommand_NotFound(t *testing.T) {
	opts := newTestOptions(t, "json")

	out, err := execute(t, NewShowCommand(opts), "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"code":"E005"`)
	assert.Contains(t, out, `item \"nope\" not found`)
}

func TestTagCommand_Sections(t *testing.T) {
	opts := newTestOptions(t, "json")
	importRecords(t, opts, threeItems+`  - { id: d, title: Delta, status: unread, time_added: 50, tags: [go] }
`)

	out, err := execute(t, NewTagCommand(opts), "go")
	require.NoError(t, err)

	var result TagResult
	decodeData(t, out, &result)
	assert.Equal(t, "go", result.Tag)
	require.Len(t, result.Sections, 2)
	assert.Equal(t, "unread", result.Sections[0].Status)
	require.Len(t, result.Sections[0].Items, 2)
	assert.Equal(t, "a", result.Sections[0].Items[0].ID)
	assert.Equal(t, "d", result.Sections[0].Items[1].ID)
	assert.Equal(t, "archived", result.Sections[1].Status)
	assert.Equal(t, "b", result.Sections[1].Items[0].ID)
}

func TestTagCommand_Empty(t *testing.T) {
	opts := newTestOptions(t, "text")

	out, err := execute(t, NewTagCommand(opts), "nothing")
	require.NoError(t, err)
	assert.Equal(t, "No items tagged \"nothing\".\n", out)
}

func TestTagsCommand(t *testing.T) {
	opts := newTestOptions(t, "text")

	out, err := execute(t, NewTagsCommand(opts))
	require.NoError(t, err)
	assert.Equal(t, "No tags.\n", out)

	importRecords(t, opts, threeItems)
	out, err = execute(t, NewTagsCommand(opts))
	require.NoError(t, err)
	assert.Equal(t, "db\t1\ngo\t2\n", out)
}

func TestResetCommand(t *testing.T) {
	opts := newTestOptions(t, "text")
	importRecords(t, opts, threeItems)

	_, err := execute(t, NewResetCommand(opts))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	_, statErr := os.Stat(opts.Database)
	require.NoError(t, statErr)

	out, err := execute(t, NewListCommand(opts), "all")
	require.NoError(t, err)
	assert.NotContains(t, out, "No items.")

	out, err = execute(t, NewResetCommand(opts), "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Deleted every item and tag in "+opts.Database+"\n", out)

	out, err = execute(t, NewListCommand(opts), "all")
	require.NoError(t, err)
	assert.Equal(t, "No items.\n", out)
	out, err = execute(t, NewTagsCommand(opts))
	require.NoError(t, err)
	assert.Equal(t, "No tags.\n", out)
}
