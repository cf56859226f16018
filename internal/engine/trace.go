package engine

import (
	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
	"github.com/roach88/objgen/internal/world"
)

// EventKind names a trace event.
type EventKind string

const (
	// EventRound marks the start of a round.
	EventRound EventKind = "round"
	// EventResolve records one rule application resolved against the world.
	EventResolve EventKind = "resolve"
	// EventYield records one result returned to the caller.
	EventYield EventKind = "yield"
	// EventHalt records the terminal state.
	EventHalt EventKind = "halt"
)

// Event is one step of an enumeration, for tracing and golden tests.
type Event struct {
	Seq   int64        `json:"seq"`
	RunID string       `json:"run_id"`
	Round int          `json:"round"`
	Kind  EventKind    `json:"kind"`
	Node  graph.NodeID `json:"node,omitempty"`

	// Value is the yielded value (EventYield).
	Value ir.Value `json:"-"`

	// App and Resolution describe a resolved application (EventResolve).
	App        string           `json:"app,omitempty"`
	Resolution world.Resolution `json:"-"`

	// State is the terminal state (EventHalt).
	State lazy.State `json:"-"`
}

func (e *Enumeration) emit(ev Event) {
	if e.opts.tracer == nil {
		return
	}
	ev.Seq = e.clock.Next()
	ev.RunID = e.runID
	ev.Round = e.round
	e.opts.tracer(ev)
}
