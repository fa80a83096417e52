package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: insert_one
watch:
  - name: all
    list: all
steps:
  - upsert:
      - { id: "1", title: One, time_added: 100 }
    stored: 1
assertions:
  - type: list
    list: all
    ids: ["1"]
  - type: deltas
    watch: all
    batches:
      - [insert 0]
`

const failingScenario = `name: wrong_ids
steps:
  - upsert:
      - { id: "1", title: One }
assertions:
  - type: list
    list: all
    ids: ["2"]
`

func TestTestCommand_HarnessScenarios(t *testing.T) {
	opts := newTestOptions(t, "json")

	out, err := execute(t, NewTestCommand(opts), harnessScenarios)
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 5, result.Passed)
	for _, s := range result.Scenarios {
		assert.True(t, s.Pass, "%s: %v", s.Name, s.Errors)
	}
}

func TestTestCommand_Filter(t *testing.T) {
	opts := newTestOptions(t, "json")

	out, err := execute(t, NewTestCommand(opts), harnessScenarios, "--filter", "t*")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "teardown_empties_everything", result.Scenarios[0].Name)
	assert.Equal(t, "tombstone_removes_item", result.Scenarios[1].Name)
}

func TestTestCommand_FailingScenario(t *testing.T) {
	opts := newTestOptions(t, "text")
	dir := t.TempDir()
	writeRecordFile(t, dir, "a_pass.yaml", passingScenario)
	writeRecordFile(t, dir, "b_fail.yaml", failingScenario)
	writeRecordFile(t, dir, "notes.txt", "not a scenario")

	out, err := execute(t, NewTestCommand(opts), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ insert_one")
	assert.Contains(t, out, "✗ wrong_ids")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_InvalidScenarioFile(t *testing.T) {
	opts := newTestOptions(t, "text")
	dir := t.TempDir()
	writeRecordFile(t, dir, "broken.yaml", "name: broken\nsteps: {}\n")

	out, err := execute(t, NewTestCommand(opts), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_UpdateThenCompareGolden(t *testing.T) {
	opts := newTestOptions(t, "text")
	dir := t.TempDir()
	writeRecordFile(t, dir, "insert_one.yaml", passingScenario)
	golden := filepath.Join(dir, "golden", "insert_one.golden")

	_, err := execute(t, NewTestCommand(opts), dir, "--update")
	require.NoError(t, err)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, "scenario: insert_one\nstep 0: upsert seq=1 stored=1\n  all: insert 0\n", string(data))

	_, err = execute(t, NewTestCommand(opts), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("scenario: insert_one\n"), 0o644))
	out, err := execute(t, NewTestCommand(opts), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	opts := newTestOptions(t, "text")

	_, err := execute(t, NewTestCommand(opts), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_EmptyDirectory(t *testing.T) {
	opts := newTestOptions(t, "text")

	out, err := execute(t, NewTestCommand(opts), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("x", "golden", "a.golden"), goldenFilePath(filepath.Join("x", "a.yaml")))
}
