package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/readlater/internal/model"
)

// Scenario is one scripted run against a fresh store.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Watch lists the live views opened before the first step.
	Watch []Watch `yaml:"watch,omitempty"`

	// Steps run in order. Each writes at most one commit.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Watch names a live view. Exactly one of List or Tag is set.
type Watch struct {
	Name   string `yaml:"name"`
	List   string `yaml:"list,omitempty"`
	Search string `yaml:"search,omitempty"`
	Tag    string `yaml:"tag,omitempty"`
}

// Step is one write. Exactly one of Upsert or Teardown is set.
type Step struct {
	// Upsert holds record descriptors in ingest file form.
	Upsert yaml.Node `yaml:"upsert,omitempty"`

	// Teardown deletes every model.
	Teardown bool `yaml:"teardown,omitempty"`

	// Stored, when set, is the number of entities the upsert must return.
	Stored *int `yaml:"stored,omitempty"`

	// Expect is checked right after the step.
	Expect []Assertion `yaml:"expect,omitempty"`
}

// Kind names the step's action.
func (s Step) Kind() string {
	if s.Teardown {
		return StepTeardown
	}
	return StepUpsert
}

// Step kinds.
const (
	StepUpsert   = "upsert"
	StepTeardown = "teardown"
)

// Assertion checks one view of the store or one watch.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// List and Search select a fixed list (list).
	List   string `yaml:"list,omitempty"`
	Search string `yaml:"search,omitempty"`

	// Tag selects a tag view (tag).
	Tag string `yaml:"tag,omitempty"`

	// IDs are the expected item ids, in order (list, tag).
	IDs []string `yaml:"ids,omitempty"`

	// Names are the expected tag names, in order (tags).
	Names []string `yaml:"names,omitempty"`

	// ID selects one item (item). Absent expects no item; otherwise the
	// set fields are compared.
	ID       string   `yaml:"id,omitempty"`
	Absent   bool     `yaml:"absent,omitempty"`
	Title    *string  `yaml:"title,omitempty"`
	Status   string   `yaml:"status,omitempty"`
	Favorite *bool    `yaml:"favorite,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`

	// Watch and Batches check delivered deltas (deltas). Each batch is a
	// list of deltas printed as "insert 0" or "move 2 0".
	Watch   string     `yaml:"watch,omitempty"`
	Batches [][]string `yaml:"batches,omitempty"`
}

// Assertion types.
const (
	AssertList   = "list"
	AssertTag    = "tag"
	AssertTags   = "tags"
	AssertItem   = "item"
	AssertDeltas = "deltas"
)

// LoadScenario reads a scenario file. Unknown fields are an error, so a
// misspelled key fails loudly instead of skipping a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid scenario: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	watches := make(map[string]bool, len(s.Watch))
	for i, w := range s.Watch {
		if w.Name == "" {
			return fmt.Errorf("watch %d: name is required", i)
		}
		if watches[w.Name] {
			return fmt.Errorf("watch %d: duplicate name %q", i, w.Name)
		}
		watches[w.Name] = true
		if (w.List == "") == (w.Tag == "") {
			return fmt.Errorf("watch %q: exactly one of list or tag is required", w.Name)
		}
		if w.List != "" {
			if _, err := model.ParseTypeOfList(w.List); err != nil {
				return fmt.Errorf("watch %q: %w", w.Name, err)
			}
		}
	}

	for i, st := range s.Steps {
		hasUpsert := st.Upsert.Kind != 0
		if hasUpsert == st.Teardown {
			return fmt.Errorf("step %d: exactly one of upsert or teardown is required", i)
		}
		if st.Stored != nil && !hasUpsert {
			return fmt.Errorf("step %d: stored only applies to upsert", i)
		}
		for j, a := range st.Expect {
			if err := validateAssertion(a, watches); err != nil {
				return fmt.Errorf("step %d expect %d: %w", i, j, err)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, watches); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion, watches map[string]bool) error {
	switch a.Type {
	case AssertList:
		if _, err := model.ParseTypeOfList(a.List); err != nil {
			return err
		}
	case AssertTag:
		if a.Tag == "" {
			return fmt.Errorf("tag assertion requires tag")
		}
	case AssertTags:
	case AssertItem:
		if a.ID == "" {
			return fmt.Errorf("item assertion requires id")
		}
		if a.Status != "" {
			if _, err := model.ParseStatus(a.Status); err != nil {
				return err
			}
		}
	case AssertDeltas:
		if !watches[a.Watch] {
			return fmt.Errorf("deltas assertion references unknown watch %q", a.Watch)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
