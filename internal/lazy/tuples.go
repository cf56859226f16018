package lazy

// Tuples iterates the cartesian product of lists without materializing it.
// The last position varies fastest. A product with any empty list is empty;
// the product of zero lists holds exactly one empty tuple.
type Tuples[T any] struct {
	lists [][]T
	idx   []int
	done  bool
}

// NewTuples returns an iterator over the product of lists. The lists are
// not copied and must not be mutated while iterating.
func NewTuples[T any](lists [][]T) *Tuples[T] {
	t := &Tuples[T]{lists: lists, idx: make([]int, len(lists))}
	for _, l := range lists {
		if len(l) == 0 {
			t.done = true
		}
	}
	return t
}

// More reports whether another tuple is available.
func (t *Tuples[T]) More() bool {
	return !t.done
}

// Next returns the next tuple as a fresh slice, or false when exhausted.
func (t *Tuples[T]) Next() ([]T, bool) {
	if t.done {
		return nil, false
	}
	out := make([]T, len(t.lists))
	for i, l := range t.lists {
		out[i] = l[t.idx[i]]
	}
	t.advance()
	return out, true
}

func (t *Tuples[T]) advance() {
	for i := len(t.idx) - 1; i >= 0; i-- {
		t.idx[i]++
		if t.idx[i] < len(t.lists[i]) {
			return
		}
		t.idx[i] = 0
	}
	t.done = true
}
