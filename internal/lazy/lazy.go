// Package lazy defines the tri-state generator protocol shared by the world
// and the enumeration engine.
//
// A Generator is pulled one element at a time. Each pull has exactly one of
// three outcomes: a value (Ready), definite exhaustion (Exhausted), or
// Undetermined, meaning the next element depends on information the partial
// world does not yet have. Undetermined and Exhausted are both terminal for
// the generators in this package: once returned, later pulls return the
// same state.
package lazy

// State is the outcome of a single pull.
type State uint8

const (
	// Ready means the pull produced a value.
	Ready State = iota + 1
	// Exhausted means there are no more values.
	Exhausted
	// Undetermined means the next value cannot be determined yet.
	Undetermined
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Exhausted:
		return "exhausted"
	case Undetermined:
		return "undetermined"
	default:
		return "invalid"
	}
}

// Generator yields values lazily.
type Generator[T any] interface {
	// Next pulls the next value. The value is meaningful only when the state
	// is Ready.
	Next() (T, State)

	// SkipIndistinguishable skips the remaining values that are exchangeable
	// with the one last returned and reports how many were skipped.
	// Generators without exchangeable values return 0.
	SkipIndistinguishable() int
}

// Slice returns a finite generator over items.
func Slice[T any](items []T) Generator[T] {
	return &sliceGen[T]{items: items}
}

type sliceGen[T any] struct {
	items []T
	pos   int
}

func (g *sliceGen[T]) Next() (T, State) {
	var zero T
	if g.pos >= len(g.items) {
		return zero, Exhausted
	}
	v := g.items[g.pos]
	g.pos++
	return v, Ready
}

func (g *sliceGen[T]) SkipIndistinguishable() int { return 0 }

// Empty returns an exhausted generator.
func Empty[T any]() Generator[T] {
	return Slice[T](nil)
}

// Unknown returns a generator that is undetermined from the first pull.
func Unknown[T any]() Generator[T] {
	return Func(func() (T, State) {
		var zero T
		return zero, Undetermined
	})
}

// Func adapts a pull function. Terminal states are latched: once next
// returns Exhausted or Undetermined it is never called again.
func Func[T any](next func() (T, State)) Generator[T] {
	return &funcGen[T]{next: next}
}

type funcGen[T any] struct {
	next func() (T, State)
	done State
}

func (g *funcGen[T]) Next() (T, State) {
	var zero T
	if g.done != 0 {
		return zero, g.done
	}
	v, s := g.next()
	if s != Ready {
		g.done = s
		return zero, s
	}
	return v, Ready
}

func (g *funcGen[T]) SkipIndistinguishable() int { return 0 }

// Collect pulls up to limit values (limit <= 0 means no limit) and returns
// them with the state that stopped collection. The state is Ready when the
// limit was reached.
func Collect[T any](g Generator[T], limit int) ([]T, State) {
	var out []T
	for limit <= 0 || len(out) < limit {
		v, s := g.Next()
		if s != Ready {
			return out, s
		}
		out = append(out, v)
	}
	return out, Ready
}
