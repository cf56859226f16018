package store

import "github.com/roach88/objgen/internal/ir"

// Run is one recorded enumeration.
type Run struct {
	// ID is the enumeration's run id.
	ID string

	// Seq orders runs. Assigned by RecordRun when zero.
	Seq int64

	// World names the stored world the run enumerated against.
	World string

	// Query is the query name, or the type name for a whole-type run.
	Query string

	// Type is the enumerated type.
	Type string

	// State is the terminal state ("ready" when a limit stopped the run).
	State string

	// Rounds is the number of rounds started.
	Rounds int

	// Error is the fatal error message, if any.
	Error string

	// Results are the yielded values in order.
	Results []ir.Value
}
