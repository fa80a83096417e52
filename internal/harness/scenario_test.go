package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: valid
description: "everything at once"
watch:
  - name: inbox
    list: my-list
  - name: go
    tag: go
steps:
  - upsert:
      - { id: "1" }
    stored: 1
    expect:
      - type: tags
        names: []
  - teardown: true
assertions:
  - type: deltas
    watch: go
`))
	require.NoError(t, err)
	assert.Equal(t, "valid", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, StepUpsert, s.Steps[0].Kind())
	assert.Equal(t, StepTeardown, s.Steps[1].Kind())
	require.NotNil(t, s.Steps[0].Stored)
	assert.Equal(t, 1, *s.Steps[0].Stored)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty document"},
		{"missing name", "steps:\n  - teardown: true\n", "name is required"},
		{"no steps", "name: x\n", "at least one step"},
		{"unknown field", "name: x\nstep:\n  - teardown: true\n", "field step not found"},
		{"both actions", "name: x\nsteps:\n  - teardown: true\n    upsert: []\n", "exactly one of upsert or teardown"},
		{"neither action", "name: x\nsteps:\n  - stored: 1\n", "exactly one of upsert or teardown"},
		{"stored on teardown", "name: x\nsteps:\n  - teardown: true\n    stored: 0\n", "stored only applies"},
		{"watch without view", "name: x\nwatch:\n  - name: w\nsteps:\n  - teardown: true\n", "exactly one of list or tag"},
		{"duplicate watch", "name: x\nwatch:\n  - {name: w, list: all}\n  - {name: w, tag: t}\nsteps:\n  - teardown: true\n", "duplicate name"},
		{"bad list", "name: x\nwatch:\n  - {name: w, list: later}\nsteps:\n  - teardown: true\n", "unknown list"},
		{"unknown assertion", "name: x\nsteps:\n  - teardown: true\nassertions:\n  - type: nope\n", "unknown assertion type"},
		{"untyped assertion", "name: x\nsteps:\n  - teardown: true\nassertions:\n  - ids: []\n", "type is required"},
		{"deltas unknown watch", "name: x\nsteps:\n  - teardown: true\nassertions:\n  - {type: deltas, watch: w}\n", "unknown watch"},
		{"item without id", "name: x\nsteps:\n  - teardown: true\nassertions:\n  - {type: item}\n", "requires id"},
		{"bad status", "name: x\nsteps:\n  - teardown: true\nassertions:\n  - {type: item, id: a, status: lost}\n", "unknown status"},
		{"tag without name", "name: x\nsteps:\n  - teardown: true\n    expect:\n      - {type: tag}\n", "requires tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: file\nsteps:\n  - teardown: true\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "file", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}
