package world

import "github.com/roach88/objgen/internal/ir"

// Resolution is the outcome of asking a world for the satisfiers of a rule
// application.
type Resolution uint8

const (
	// Resolved means the satisfier set is known (possibly empty).
	Resolved Resolution = iota + 1
	// Unsatisfied means the application has no satisfiers in this world.
	Unsatisfied
	// Undetermined means the world does not know yet.
	Undetermined
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case Unsatisfied:
		return "unsatisfied"
	case Undetermined:
		return "undetermined"
	default:
		return "invalid"
	}
}

// Context is a partial world under a variable assignment.
type Context interface {
	// Evaluate returns the value of t. ok is false when the value depends
	// on something the world does not know.
	Evaluate(t ir.Term) (v ir.Value, ok bool)

	// Resolve returns the satisfiers of a rule application.
	Resolve(app ir.RuleApp) (ObjectSet, Resolution)

	// UsesIdentifiers reports whether objects of typ are named by
	// identifiers, which makes enumeration order observable.
	UsesIdentifiers(typ string) bool
}
