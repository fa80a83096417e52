package harness

import (
	"fmt"
	"strings"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every check held.
	Pass bool `json:"pass"`

	// Steps records what each step did, in order.
	Steps []StepTrace `json:"steps"`

	// Errors holds one message per failed check.
	Errors []string `json:"errors,omitempty"`
}

// StepTrace records one executed step.
type StepTrace struct {
	Kind   string `json:"kind"`
	Seq    int64  `json:"seq"`
	Stored int    `json:"stored,omitempty"`

	// Batches holds the batch each watch received for this step, in watch
	// declaration order. Watches that received nothing are omitted.
	Batches []WatchBatch `json:"batches,omitempty"`
}

// WatchBatch is the batch one watch received, rendered as strings.
type WatchBatch struct {
	Watch  string   `json:"watch"`
	Deltas []string `json:"deltas"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError records a failed check.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// BatchesFor returns every batch the named watch received, in commit order.
func (r *Result) BatchesFor(watch string) [][]string {
	var out [][]string
	for _, st := range r.Steps {
		for _, b := range st.Batches {
			if b.Watch == watch {
				out = append(out, b.Deltas)
			}
		}
	}
	return out
}

// Render prints the trace as stable text for golden comparison.
func (r *Result) Render(name string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for i, st := range r.Steps {
		fmt.Fprintf(&b, "step %d: %s seq=%d", i, st.Kind, st.Seq)
		if st.Kind == StepUpsert {
			fmt.Fprintf(&b, " stored=%d", st.Stored)
		}
		b.WriteString("\n")
		for _, wb := range st.Batches {
			fmt.Fprintf(&b, "  %s: %s\n", wb.Watch, strings.Join(wb.Deltas, ", "))
		}
	}
	return []byte(b.String())
}
