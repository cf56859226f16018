package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
	"github.com/roach88/objgen/internal/world"
)

// Enumeration is one lazy, round-based enumeration of a graph's target
// node against a world.
//
// INVARIANTS:
//   - The graph is never mutated; all state lives here
//   - Every rule-application parent has current/previous/earlier buffers
//   - Once Next returns Exhausted, Undetermined or an error, every later
//     call returns the same
type Enumeration struct {
	graph *graph.Graph
	ctx   world.Context
	opts  options
	runID string
	log   *slog.Logger
	clock *Clock
	quota *RoundQuota

	ledger *DerivationLedger // nil unless WithDerivationCheck

	// Round buffers per rule-application parent.
	cur, prev, earlier map[graph.NodeID][]ir.Value
	bookkept           []graph.NodeID

	// Generators for parentless nodes live for the whole enumeration, so
	// an infinite one resumes where it stopped.
	roots map[rootKey]lazy.Generator[ir.Value]

	includeBase bool
	round       int
	target      lazy.Generator[ir.Value]
	yielded     int

	state lazy.State // sticky terminal state
	err   error      // sticky fatal error
}

type rootKey struct {
	node graph.NodeID
	ids  bool
}

// Start validates g and begins an enumeration of its target against ctx.
// No world access happens until the first call to Next.
//
// Validation is static: a union node over an infinite parent, or a
// non-enumerable enumerated node, is reported here instead of halfway
// through an enumeration.
func Start(g *graph.Graph, ctx world.Context, opts ...Option) (*Enumeration, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	runID := o.runIDs.Generate()
	e := &Enumeration{
		graph:       g,
		ctx:         ctx,
		opts:        o,
		runID:       runID,
		log:         o.logger.With("run_id", runID),
		clock:       NewClock(),
		quota:       NewRoundQuota(o.maxRounds),
		cur:         make(map[graph.NodeID][]ir.Value),
		prev:        make(map[graph.NodeID][]ir.Value),
		earlier:     make(map[graph.NodeID][]ir.Value),
		roots:       make(map[rootKey]lazy.Generator[ir.Value]),
		includeBase: true,
	}
	if o.derivationCheck {
		e.ledger = NewDerivationLedger()
	}

	if err := validate(g); err != nil {
		err.RunID = runID
		return nil, err
	}

	e.bookkept = g.RuleAppParents()
	for _, id := range e.bookkept {
		e.cur[id] = []ir.Value{}
		e.prev[id] = []ir.Value{}
		e.earlier[id] = []ir.Value{}
	}

	if err := e.quota.Check(runID); err != nil {
		return nil, err
	}
	e.log.Debug("enumeration started",
		"target", g.Target(),
		"type", g.Node(g.Target()).Type(),
		"nodes", g.Len(),
		"bookkept", len(e.bookkept),
		"rule_apps", o.ruleApps,
	)
	e.emit(Event{Kind: EventRound})
	e.target = e.nodeGenerator(g.Target(), o.ruleApps)
	return e, nil
}

// validate rejects graphs whose enumeration would hit a usage fault.
func validate(g *graph.Graph) *EnumerationError {
	for _, n := range g.Nodes() {
		switch x := n.(type) {
		case *graph.UnionNode:
			for _, p := range x.Parents() {
				if pn := g.Node(p); !pn.Finite() {
					return newNodeError(ErrCodeInfiniteUnionParent, x,
						"parent #%d (%s) denotes an infinite set", p, pn.Type())
				}
			}
		case *graph.EnumeratedNode:
			if !x.Enumerable {
				return newNodeError(ErrCodeNotEnumerable, x, "cannot enumerate objects of type %s", x.Type())
			}
		}
	}
	return nil
}

// RunID returns the enumeration's run id.
func (e *Enumeration) RunID() string { return e.runID }

// Rounds returns the number of rounds started so far.
func (e *Enumeration) Rounds() int { return e.round + 1 }

// Yielded returns the number of results returned so far.
func (e *Enumeration) Yielded() int { return e.yielded }

// Next returns the next satisfier of the target node.
//
// The state is Ready with a value, Exhausted when the closure has been
// enumerated completely, or Undetermined when the world cannot yet decide
// the next result. A non-nil error is fatal; the state is then
// Undetermined.
func (e *Enumeration) Next() (ir.Value, lazy.State, error) {
	if e.err != nil {
		return nil, lazy.Undetermined, e.err
	}
	if e.state != 0 {
		return nil, e.state, nil
	}

	for {
		v, s := e.target.Next()
		if e.err != nil {
			return nil, lazy.Undetermined, e.err
		}
		switch s {
		case lazy.Ready:
			// Satisfiers behind a rule-application id were kept when it
			// was resolved.
			if _, isRef := v.(ir.RuleAppRef); !isRef {
				e.keep(e.graph.Target(), v)
			}
			e.yielded++
			e.emit(Event{Kind: EventYield, Node: e.graph.Target(), Value: v})
			return v, lazy.Ready, nil
		case lazy.Undetermined:
			return e.halt(lazy.Undetermined)
		}

		more, st := e.finishRound()
		if e.err != nil {
			return nil, lazy.Undetermined, e.err
		}
		if !more {
			return e.halt(st)
		}
		e.target = e.nodeGenerator(e.graph.Target(), e.opts.ruleApps)
	}
}

// SkipIndistinguishable skips the remaining results exchangeable with the
// last one returned, and reports how many were skipped. Skipped objects do
// not feed later rounds.
func (e *Enumeration) SkipIndistinguishable() int {
	if e.err != nil || e.state != 0 {
		return 0
	}
	return e.target.SkipIndistinguishable()
}

// finishRound drains every rule-application parent except the target,
// whose buffer was filled while its generator ran, promotes the round
// buffers and starts the next round. more is false when the enumeration is
// over; st then says why.
func (e *Enumeration) finishRound() (more bool, st lazy.State) {
	target := e.graph.Target()
	for _, id := range e.bookkept {
		if id == target {
			continue
		}
		if e.drain(id) == lazy.Undetermined {
			return false, lazy.Undetermined
		}
		if e.err != nil {
			return false, lazy.Undetermined
		}
	}

	added := e.startNewRound()
	e.log.Debug("round complete", "round", e.round, "new_objects", added, "yielded", e.yielded)
	if added == 0 {
		return false, lazy.Exhausted
	}

	if err := e.quota.Check(e.runID); err != nil {
		e.fail(err)
		return false, lazy.Undetermined
	}
	e.round++
	e.includeBase = false
	e.emit(Event{Kind: EventRound})
	return true, lazy.Ready
}

// drain adds a node's objects for this round to its current buffer: all
// of them if the node is finite, otherwise just the next one.
func (e *Enumeration) drain(id graph.NodeID) lazy.State {
	n := e.graph.Node(id)
	gen := e.nodeGenerator(id, false)
	for {
		v, s := gen.Next()
		if s != lazy.Ready {
			return s
		}
		e.cur[id] = append(e.cur[id], v)
		if !n.Finite() {
			return lazy.Ready
		}
	}
}

// keep adds values to a node's current round buffer if the node has one.
func (e *Enumeration) keep(id graph.NodeID, vals ...ir.Value) {
	if buf, ok := e.cur[id]; ok {
		e.cur[id] = append(buf, vals...)
	}
}

// startNewRound promotes the buffers and returns how many objects the
// finished round added.
func (e *Enumeration) startNewRound() int {
	added := 0
	for _, id := range e.bookkept {
		added += len(e.cur[id])
		e.earlier[id] = append(e.earlier[id], e.prev[id]...)
		e.prev[id] = e.cur[id]
		e.cur[id] = []ir.Value{}
	}
	return added
}

// nodeGenerator returns the generator the engine drives for a node: a
// fresh one per round, except for parentless nodes whose generator is
// kept for the whole enumeration.
func (e *Enumeration) nodeGenerator(id graph.NodeID, ids bool) lazy.Generator[ir.Value] {
	key := rootKey{node: id, ids: ids}
	if gen, ok := e.roots[key]; ok {
		return gen
	}
	gen := e.newGenerator(id, ids)
	if len(e.graph.Parents(id)) == 0 {
		e.roots[key] = gen
	}
	return gen
}

func (e *Enumeration) halt(st lazy.State) (ir.Value, lazy.State, error) {
	e.state = st
	e.emit(Event{Kind: EventHalt, State: st})
	e.log.Debug("enumeration halted",
		"state", st,
		"rounds", e.Rounds(),
		"yielded", e.yielded,
		"events", e.clock.Current(),
		"derivations", e.derivations(),
	)
	return nil, st, nil
}

func (e *Enumeration) fail(err error) {
	if e.err != nil {
		return
	}
	if ee, ok := err.(*EnumerationError); ok && ee.RunID == "" {
		ee.RunID = e.runID
	}
	e.err = err
	e.log.Error("enumeration failed",
		"error", err,
		"rounds_started", e.quota.Current(),
		"max_rounds", e.quota.MaxRounds(),
		"yielded", e.yielded,
	)
}

// derivations returns how many rule applications the ledger holds, or 0
// without WithDerivationCheck.
func (e *Enumeration) derivations() int {
	if e.ledger == nil {
		return 0
	}
	return e.ledger.Size()
}

func (e *Enumeration) isDistinguished(v ir.Value) bool {
	return e.opts.distinguished[ir.Key(v)]
}

func (e *Enumeration) recordDerivation(n *graph.RuleAppNode, ids bool, app ir.RuleApp) *EnumerationError {
	if e.ledger == nil {
		return nil
	}
	id, err := app.ID()
	if err != nil {
		return newNodeError(ErrCodeUnhashable, n, "hashing %s: %v", app, err)
	}
	if !e.ledger.Record(n.ID(), ids, id) {
		return newNodeError(ErrCodeDuplicateDerivation, n, "%s resolved twice", app)
	}
	return nil
}

// Collect pulls up to limit results (limit <= 0 means no limit). The state
// is Ready when the limit stopped collection.
func Collect(e *Enumeration, limit int) ([]ir.Value, lazy.State, error) {
	var out []ir.Value
	for limit <= 0 || len(out) < limit {
		v, s, err := e.Next()
		if err != nil {
			return out, s, fmt.Errorf("collecting after %d results: %w", len(out), err)
		}
		if s != lazy.Ready {
			return out, s, nil
		}
		out = append(out, v)
	}
	return out, lazy.Ready, nil
}
