package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "file name and scenario name should match")

			result := RunWithGolden(t, scenario)
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_ReportsFailedChecks(t *testing.T) {
	scenario := mustParse(t, `
name: wrong_expectations
watch:
  - name: inbox
    list: my-list
steps:
  - upsert:
      - { id: "1", title: A, time_added: 100 }
    stored: 2
    expect:
      - type: list
        list: my-list
        ids: ["2"]
assertions:
  - type: item
    id: "1"
    title: B
  - type: deltas
    watch: inbox
    batches:
      - [insert 1]
`)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "stored 1 entities, want 2")
	assert.Contains(t, result.Errors[1], "expected [2], got [1]")
	assert.Contains(t, result.Errors[2], `expected title "B", got "A"`)
	assert.Contains(t, result.Errors[3], "expected [insert 1], got [insert 0]")
}

func TestRun_NoBatchWithoutChange(t *testing.T) {
	scenario := mustParse(t, `
name: unrelated_write
watch:
  - name: archive
    list: archive
steps:
  - upsert:
      - { id: "1", title: A, status: unread, time_added: 100 }
  - upsert:
      - { id: "1", title: A, status: unread, time_added: 100 }
assertions:
  - type: deltas
    watch: archive
    batches: []
`)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Steps, 2)
	assert.Empty(t, result.Steps[0].Batches)
	assert.Equal(t, int64(1), result.Steps[0].Seq)
	assert.Equal(t, int64(2), result.Steps[1].Seq, "an identical upsert still commits")
}

func TestRun_UndecodableRecordIsAnError(t *testing.T) {
	scenario := mustParse(t, `
name: bad_record
steps:
  - upsert:
      - { id: "1", time_added: yesterday }
`)

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time_added")
}

func TestRun_WithDirKeepsStore(t *testing.T) {
	dir := t.TempDir()
	scenario := mustParse(t, `
name: kept_store
steps:
  - upsert:
      - { id: "1" }
`)

	result, err := Run(context.Background(), scenario, WithDir(dir))
	require.NoError(t, err)
	assert.True(t, result.Pass)

	_, err = os.Stat(filepath.Join(dir, "scenario.sqlite"))
	assert.NoError(t, err)
}

func TestResult_Render(t *testing.T) {
	result := NewResult()
	result.Steps = append(result.Steps,
		StepTrace{Kind: StepUpsert, Seq: 1, Stored: 2, Batches: []WatchBatch{
			{Watch: "inbox", Deltas: []string{"insert 0", "insert 1"}},
		}},
		StepTrace{Kind: StepTeardown, Seq: 2},
	)

	assert.Equal(t, "scenario: demo\n"+
		"step 0: upsert seq=1 stored=2\n"+
		"  inbox: insert 0, insert 1\n"+
		"step 1: teardown seq=2\n", string(result.Render("demo")))
	assert.Equal(t, [][]string{{"insert 0", "insert 1"}}, result.BatchesFor("inbox"))
	assert.Nil(t, result.BatchesFor("other"))
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}
