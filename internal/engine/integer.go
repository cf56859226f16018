package engine

import (
	"math"

	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
)

// integerGenerator yields the integers (or timesteps) between the node's
// tightest bounds, in round 0 only:
//
//	lower and upper: lower, lower+1, ..., upper
//	lower only:      lower, lower+1, ...
//	upper only:      upper, upper-1, ...
//	neither:         0, 1, -1, 2, -2, ...
//
// Every bound is evaluated. Any bound that cannot be evaluated makes the
// node undetermined, even when another bound is Null; otherwise a bound
// that evaluates to Null makes it empty.
func (e *Enumeration) integerGenerator(n *graph.IntegerNode) lazy.Generator[ir.Value] {
	if !e.includeBase {
		return lazy.Empty[ir.Value]()
	}

	lo, hasLo, loSt := e.tightest(n, n.Lower, maxInt)
	if e.err != nil {
		return lazy.Unknown[ir.Value]()
	}
	hi, hasHi, hiSt := e.tightest(n, n.Upper, minInt)
	if st := worst(loSt, hiSt); st != lazy.Ready {
		return terminal(st)
	}

	wrap := func(i int64) ir.Value { return ir.Int(i) }
	if n.Timestep {
		wrap = func(i int64) ir.Value { return ir.Timestep(i) }
	}

	var next func() (int64, bool)
	switch {
	case hasLo && hasHi:
		cur, done := lo, lo > hi
		next = func() (int64, bool) {
			if done {
				return 0, false
			}
			v := cur
			if cur == hi {
				done = true
			} else {
				cur++
			}
			return v, true
		}
	case hasLo:
		next = countFrom(lo, 1)
	case hasHi:
		next = countFrom(hi, -1)
	default:
		next = zigzag()
	}

	return lazy.Func(func() (ir.Value, lazy.State) {
		i, ok := next()
		if !ok {
			return nil, lazy.Exhausted
		}
		return wrap(i), lazy.Ready
	})
}

// tightest evaluates every bound and combines them with pick (max for
// lower bounds, min for upper). ok is false when there are no bounds. The
// state is Ready on success, Undetermined if any bound cannot be evaluated
// or is not an integer (the latter also sets the enumeration's error), and
// otherwise Exhausted if any bound is Null.
func (e *Enumeration) tightest(n *graph.IntegerNode, bounds []graph.Bound, pick func(a, b int64) int64) (int64, bool, lazy.State) {
	var best int64
	found := false
	st := lazy.Ready
	for _, b := range bounds {
		v, ok := e.ctx.Evaluate(b.Term)
		if !ok {
			st = lazy.Undetermined
			continue
		}
		var x int64
		switch val := v.(type) {
		case ir.Null:
			st = worst(st, lazy.Exhausted)
			continue
		case ir.Int:
			x = int64(val)
		case ir.Timestep:
			x = int64(val)
		default:
			e.fail(newNodeError(ErrCodeInvalidBound, n, "bound %s = %s is not an integer", b, ir.Format(v)))
			return 0, false, lazy.Undetermined
		}
		x = saturatingAdd(x, b.Offset)
		if !found {
			best, found = x, true
		} else {
			best = pick(best, x)
		}
	}
	if st != lazy.Ready {
		return 0, false, st
	}
	return best, found, lazy.Ready
}

// worst combines bound states: Undetermined beats Exhausted beats Ready.
func worst(a, b lazy.State) lazy.State {
	switch {
	case a == lazy.Undetermined || b == lazy.Undetermined:
		return lazy.Undetermined
	case a == lazy.Exhausted || b == lazy.Exhausted:
		return lazy.Exhausted
	}
	return lazy.Ready
}

func maxInt(a, b int64) int64 { return max(a, b) }
func minInt(a, b int64) int64 { return min(a, b) }

func terminal(st lazy.State) lazy.Generator[ir.Value] {
	if st == lazy.Exhausted {
		return lazy.Empty[ir.Value]()
	}
	return lazy.Unknown[ir.Value]()
}

// countFrom counts from start in steps of step until int64 overflows.
func countFrom(start, step int64) func() (int64, bool) {
	cur, done := start, false
	return func() (int64, bool) {
		if done {
			return 0, false
		}
		v := cur
		if (step > 0 && cur == math.MaxInt64) || (step < 0 && cur == math.MinInt64) {
			done = true
		} else {
			cur += step
		}
		return v, true
	}
}

// zigzag yields 0, 1, -1, 2, -2, ...
func zigzag() func() (int64, bool) {
	var k int64
	return func() (int64, bool) {
		var v int64
		switch {
		case k == 0:
			v = 0
		case k%2 == 1:
			v = k/2 + 1
		default:
			v = -(k / 2)
		}
		if k == math.MaxInt64 {
			return 0, false
		}
		k++
		return v, true
	}
}

func saturatingAdd(x, d int64) int64 {
	switch {
	case d > 0 && x > math.MaxInt64-d:
		return math.MaxInt64
	case d < 0 && x < math.MinInt64-d:
		return math.MinInt64
	}
	return x + d
}
