package engine

import (
	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
	"github.com/roach88/objgen/internal/world"
)

// newGenerator builds the generator for one node with the enumeration's
// current parameters: the round buffers, whether base cases are included,
// and whether rule-application ids are returned. It never caches; see
// Enumeration.nodeGenerator.
//
// A fault found while building or pulling sets the enumeration's error and
// makes the generator undetermined; the engine checks the error after
// every pull.
func (e *Enumeration) newGenerator(id graph.NodeID, ids bool) lazy.Generator[ir.Value] {
	switch n := e.graph.Node(id).(type) {
	case *graph.UnionNode:
		return &unionGen{e: e, node: n, ids: ids}
	case *graph.RuleAppNode:
		return &ruleAppGen{e: e, node: n, ids: ids, includeBase: e.includeBase}
	case *graph.LiteralNode:
		return e.literalGenerator(n)
	case *graph.IntegerNode:
		return e.integerGenerator(n)
	case *graph.EnumeratedNode:
		return e.enumeratedGenerator(n)
	}
	panic("engine: unknown node variant")
}

// unionGen concatenates its parents' generators in parent order.
type unionGen struct {
	e    *Enumeration
	node *graph.UnionNode
	ids  bool

	next int
	cur  lazy.Generator[ir.Value]
	done lazy.State
}

func (g *unionGen) Next() (ir.Value, lazy.State) {
	if g.done != 0 {
		return nil, g.done
	}
	parents := g.node.Parents()
	for {
		if g.cur == nil {
			if g.next >= len(parents) {
				g.done = lazy.Exhausted
				return nil, g.done
			}
			p := g.e.graph.Node(parents[g.next])
			g.next++
			if !p.Finite() {
				return g.fail(newNodeError(ErrCodeInfiniteUnionParent, g.node,
					"parent #%d (%s) denotes an infinite set", p.ID(), p.Type()))
			}
			g.cur = g.e.newGenerator(p.ID(), g.ids)
		}
		v, s := g.cur.Next()
		switch s {
		case lazy.Ready:
			return v, s
		case lazy.Undetermined:
			g.done = lazy.Undetermined
			return nil, g.done
		}
		g.cur = nil
	}
}

func (g *unionGen) fail(err *EnumerationError) (ir.Value, lazy.State) {
	g.e.fail(err)
	g.done = lazy.Undetermined
	return nil, g.done
}

func (g *unionGen) SkipIndistinguishable() int {
	if g.cur == nil {
		return 0
	}
	return g.cur.SkipIndistinguishable()
}

// ruleAppGen enumerates the satisfiers of applications of one rule to
// argument tuples that include at least one object new in the previous
// round.
//
// The sweep over firstDesired makes each tuple appear exactly once:
// positions before firstDesired draw from earlier rounds only, the
// position itself from the previous round, and positions after it from
// both.
type ruleAppGen struct {
	e           *Enumeration
	node        *graph.RuleAppNode
	ids         bool
	includeBase bool

	firstDesired int
	doneEmpty    bool
	tuples       *lazy.Tuples[ir.Value]
	sats         lazy.Generator[ir.Value]
	done         lazy.State
}

func (g *ruleAppGen) Next() (ir.Value, lazy.State) {
	if g.done != 0 {
		return nil, g.done
	}
	for {
		if g.sats != nil {
			if v, s := g.sats.Next(); s == lazy.Ready {
				return v, s
			}
			g.sats = nil
		}

		if g.tuples == nil || !g.tuples.More() {
			parents := g.node.Parents()
			switch {
			case len(parents) == 0 && g.includeBase && !g.doneEmpty:
				g.tuples = lazy.NewTuples[ir.Value](nil)
				g.doneEmpty = true
			case g.firstDesired < len(parents):
				lists, err := g.argLists(parents)
				if err != nil {
					return g.fail(err)
				}
				g.tuples = lazy.NewTuples(lists)
				g.firstDesired++
			default:
				g.done = lazy.Exhausted
				return nil, g.done
			}
			continue
		}

		args, _ := g.tuples.Next()
		app := ir.RuleApp{Rule: g.node.Rule, Args: args}
		if err := g.e.recordDerivation(g.node, g.ids, app); err != nil {
			return g.fail(err)
		}

		set, res := g.e.ctx.Resolve(app)
		g.e.emit(Event{Kind: EventResolve, Node: g.node.ID(), App: app.String(), Resolution: res})
		switch res {
		case world.Unsatisfied:
			continue
		case world.Undetermined:
			g.done = lazy.Undetermined
			return nil, g.done
		}

		if g.ids {
			id, err := app.ID()
			if err != nil {
				return g.fail(newNodeError(ErrCodeUnhashable, g.node, "hashing %s: %v", app, err))
			}
			g.e.keep(g.e.graph.Target(), setValues(set.Generator(g.e.isDistinguished))...)
			return ir.RuleAppRef{ID: id, Rule: app.Rule, Args: args}, lazy.Ready
		}
		g.sats = set.Generator(g.e.isDistinguished)
	}
}

// setValues drains a satisfier set in the order an object pass yields it.
func setValues(gen lazy.Generator[ir.Value]) []ir.Value {
	var vals []ir.Value
	for {
		v, s := gen.Next()
		if s != lazy.Ready {
			return vals
		}
		vals = append(vals, v)
	}
}

func (g *ruleAppGen) argLists(parents []graph.NodeID) ([][]ir.Value, *EnumerationError) {
	lists := make([][]ir.Value, len(parents))
	for i, p := range parents {
		desired, ok := g.e.prev[p]
		other, ok2 := g.e.earlier[p]
		if !ok || !ok2 {
			return nil, newNodeError(ErrCodeMissingBookkeeping, g.node,
				"argument %d: parent #%d has no round buffers", i, p)
		}
		switch {
		case i < g.firstDesired:
			lists[i] = other
		case i == g.firstDesired:
			lists[i] = desired
		default:
			both := make([]ir.Value, 0, len(desired)+len(other))
			lists[i] = append(append(both, desired...), other...)
		}
	}
	return lists, nil
}

func (g *ruleAppGen) fail(err *EnumerationError) (ir.Value, lazy.State) {
	g.e.fail(err)
	g.done = lazy.Undetermined
	return nil, g.done
}

func (g *ruleAppGen) SkipIndistinguishable() int {
	if g.sats == nil {
		return 0
	}
	return g.sats.SkipIndistinguishable()
}

// literalGenerator yields the value of the node's term in round 0. An
// unevaluable term is undetermined; a term evaluating to Null denotes no
// object.
func (e *Enumeration) literalGenerator(n *graph.LiteralNode) lazy.Generator[ir.Value] {
	if !e.includeBase {
		return lazy.Empty[ir.Value]()
	}
	v, ok := e.ctx.Evaluate(n.Term)
	switch {
	case !ok:
		return lazy.Unknown[ir.Value]()
	case ir.IsNull(v):
		return lazy.Empty[ir.Value]()
	}
	return lazy.Slice([]ir.Value{v})
}

// enumeratedGenerator yields the node's constants in round 0.
func (e *Enumeration) enumeratedGenerator(n *graph.EnumeratedNode) lazy.Generator[ir.Value] {
	if !e.includeBase {
		return lazy.Empty[ir.Value]()
	}
	if !n.Enumerable {
		e.fail(newNodeError(ErrCodeNotEnumerable, n, "cannot enumerate objects of type %s", n.Type()))
		return lazy.Unknown[ir.Value]()
	}
	return lazy.Slice(n.Constants)
}
