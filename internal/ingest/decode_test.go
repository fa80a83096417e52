package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/readlater/internal/model"
)

func TestDecode_Mapping(t *testing.T) {
	res, err := Decode(strings.NewReader(`
records:
  - id: "1"
    title: Go Concurrency Patterns
    url: https://go.dev/talks
    status: archived
    time_added: 1700000000
    time_updated: "2024-01-02T03:04:05Z"
    favorite: true
    tags: [go, talks]
  - kind: tag
    id: reading-list
`))
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Records, 2)

	item := res.Records[0]
	assert.Equal(t, model.KindItem, item.Kind)
	assert.Equal(t, "1", item.ID)
	assert.Equal(t, model.StatusArchived, item.Status)
	assert.True(t, item.TimeAdded.Equal(time.Unix(1700000000, 0)))
	assert.True(t, item.TimeUpdated.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.True(t, item.Favorite)
	assert.Equal(t, []string{"go", "talks"}, item.Tags)

	assert.Equal(t, model.TagRecord("reading-list"), res.Records[1])
}

func TestDecode_ListAndJSON(t *testing.T) {
	res, err := Decode(strings.NewReader(`[{"id": "a", "status": 1}, {"id": "b", "status": "0"}]`))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, model.StatusArchived, res.Records[0].Status)
	assert.Equal(t, model.StatusUnread, res.Records[1].Status)
}

func TestDecode_TagsOmittedStayNil(t *testing.T) {
	res, err := Decode(strings.NewReader("- id: a\n- id: b\n  tags: []\n"))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Nil(t, res.Records[0].Tags, "omitted tags keep the stored relation")
	assert.NotNil(t, res.Records[1].Tags, "an explicit empty list clears it")
}

func TestDecode_SkipsBadRecords(t *testing.T) {
	res, err := Decode(strings.NewReader(`
- id: good
- id: bad-time
  time_added: yesterday
- id: bad-status
  status: shredded
`))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "good", res.Records[0].ID)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, "bad-time", res.Skipped[0].ID)
	assert.Contains(t, res.Skipped[0].Error(), "time_added")
	assert.ErrorIs(t, res.Skipped[1], model.ErrMalformed)
}

func TestDecode_PassesThroughUnknownKindAndCode(t *testing.T) {
	res, err := Decode(strings.NewReader(`
- id: v
  kind: video
- id: s
  status: 9
`))
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Records, 2)
	assert.Equal(t, model.Kind("video"), res.Records[0].Kind)
	assert.Equal(t, model.Status(9), res.Records[1].Status)
}

func TestDecode_Empty(t *testing.T) {
	res, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}

func TestDecode_UnknownField(t *testing.T) {
	_, err := Decode(strings.NewReader("- id: a\n  colour: red\n"))
	assert.Error(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader("records: [unterminated"))
	assert.Error(t, err)
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: a\n"), 0o644))

	res, err := DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	zero, err := parseTime("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	ts, err := parseTime("2024-05-06T07:08:09.5+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 5, ts.Hour())
}
