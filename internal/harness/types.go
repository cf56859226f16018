package harness

import (
	"github.com/roach88/objgen/internal/engine"
	"github.com/roach88/objgen/internal/ir"
)

// TraceEvent is one engine event as recorded by the harness.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	Round      int    `json:"round"`
	Kind       string `json:"kind"` // "round", "resolve", "yield" or "halt"
	Value      string `json:"value,omitempty"`
	App        string `json:"app,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	State      string `json:"state,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// RunID is the enumeration's run id.
	RunID string `json:"run_id"`

	// State is the terminal state, "ready" when the limit stopped the run,
	// or "error" when the enumeration failed.
	State string `json:"state"`

	// Err is the enumeration error when State is "error".
	Err string `json:"error,omitempty"`

	// Rounds is the number of rounds started.
	Rounds int `json:"rounds"`

	// Results are the printed results in yield order.
	Results []string `json:"results"`

	// Trace contains the engine events in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Results: []string{},
		Trace:   []TraceEvent{},
		Errors:  []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends an engine event to the trace with the given seq.
func (r *Result) AddEvent(ev engine.Event, seq int64) {
	te := TraceEvent{
		Seq:   seq,
		Round: ev.Round,
		Kind:  string(ev.Kind),
	}
	switch ev.Kind {
	case engine.EventYield:
		te.Value = ir.Format(ev.Value)
	case engine.EventResolve:
		te.App = ev.App
		te.Resolution = ev.Resolution.String()
	case engine.EventHalt:
		te.State = ev.State.String()
	}
	r.Trace = append(r.Trace, te)
}
