package engine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
	"github.com/roach88/objgen/internal/testutil"
	"github.com/roach88/objgen/internal/world"
)

func TestEnumerate_ChainClosedWorld(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, true)
	e := start(t, compileType(t, m, "Node"), w.Context(nil))

	vals, st := collectAll(t, e)
	assert.Equal(t, []string{"root", "n1", "n2", "n3"}, names(vals))
	assert.Equal(t, lazy.Exhausted, st)
	assert.Equal(t, 5, e.Rounds())
	assert.Equal(t, 4, e.Yielded())
	assert.Equal(t, "run-1", e.RunID())
}

func TestEnumerate_ChainOpenWorldIsUndetermined(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, false)
	e := start(t, compileType(t, m, "Node"), w.Context(nil))

	vals, st := collectAll(t, e)
	assert.Equal(t, []string{"root", "n1", "n2", "n3"}, names(vals))
	assert.Equal(t, lazy.Undetermined, st)
}

func TestEnumerate_TerminalStatesAreSticky(t *testing.T) {
	m := chainModel(t)
	for _, closed := range []bool{true, false} {
		w := chainWorld(t, m, 1, closed)
		e := start(t, compileType(t, m, "Node"), w.Context(nil))

		_, st := collectAll(t, e)
		for i := 0; i < 3; i++ {
			v, again, err := e.Next()
			require.NoError(t, err)
			assert.Nil(t, v)
			assert.Equal(t, st, again)
		}
		assert.Zero(t, e.SkipIndistinguishable())
	}
}

func TestEnumerate_CollectLimitResumes(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, true)
	e := start(t, compileType(t, m, "Node"), w.Context(nil))

	first, st, err := Collect(e, 2)
	require.NoError(t, err)
	assert.Equal(t, lazy.Ready, st)
	assert.Equal(t, []string{"root", "n1"}, names(first))

	rest, st := collectAll(t, e)
	assert.Equal(t, lazy.Exhausted, st)
	assert.Equal(t, []string{"n2", "n3"}, names(rest))
}

func TestEnumerate_OriginConstraint(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, true)
	root := lookup(t, w, "root")

	g := compileWhere(t, m, "Node", ir.Eq(ir.Fn("pred", ir.V("x")), ir.C(root)))
	vals, st := collectAll(t, start(t, g, w.Context(nil)))

	assert.Equal(t, []string{"n1"}, names(vals))
	assert.Equal(t, lazy.Exhausted, st)
}

func TestEnumerate_MutualRecursion(t *testing.T) {
	m := mutualModel(t)
	w := world.NewPartial(m)
	w.Closed = true
	a0 := lookup(t, w, "a0")
	objs := newObjects(t, w, "B", "b1", "b2")
	a1 := newObjects(t, w, "A", "a1")[0]
	require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "MkB", Args: []ir.Value{a0}}, objs[0]))
	require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "MkA", Args: []ir.Value{objs[0]}}, a1))
	require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "MkB", Args: []ir.Value{a1}}, objs[1]))

	vals, st := collectAll(t, start(t, compileType(t, m, "A"), w.Context(nil)))
	assert.Equal(t, []string{"a0", "a1"}, names(vals))
	assert.Equal(t, lazy.Exhausted, st)

	vals, st = collectAll(t, start(t, compileType(t, m, "B"), w.Context(nil)))
	assert.Equal(t, []string{"b1", "b2"}, names(vals))
	assert.Equal(t, lazy.Exhausted, st)
}

// Each node joins nodes from different rounds: d joins two nodes of
// round 2, e joins d (round 3) with root (round 0).
func TestEnumerate_JoinAcrossRounds(t *testing.T) {
	m := joinModel(t)
	w := world.NewPartial(m)
	w.Closed = true
	root := lookup(t, w, "root")
	objs := newObjects(t, w, "Node", "a", "b", "c", "d", "e")
	a, b, c, d, e := objs[0], objs[1], objs[2], objs[3], objs[4]
	require.NoError(t, w.SetSatisfiers(join(root, root), a))
	require.NoError(t, w.SetSatisfiers(join(a, root), b))
	require.NoError(t, w.SetSatisfiers(join(root, a), c))
	require.NoError(t, w.SetSatisfiers(join(b, c), d))
	require.NoError(t, w.SetSatisfiers(join(d, root), e))

	ctx := newCountingContext(w.Context(nil))
	en := start(t, compileType(t, m, "Node"), ctx, WithDerivationCheck(true))
	vals, st := collectAll(t, en)
	assert.Equal(t, lazy.Exhausted, st)
	assert.Equal(t, []string{"root", "a", "b", "c", "d", "e"}, names(vals))
	assert.Equal(t, 6, en.Rounds())

	assert.Len(t, ctx.resolved, 36)
	for app, n := range ctx.resolved {
		assert.Equalf(t, 1, n, "%s resolved %d times", app, n)
	}
	assert.Equal(t, 36, en.ledger.Size())
}

func TestEnumerate_Integers(t *testing.T) {
	m := chainModel(t)
	x := ir.V("x")
	tests := []struct {
		name  string
		typ   string
		where []ir.Formula
		limit int
		want  []ir.Value
		state lazy.State
	}{
		{
			name:  "closed interval",
			typ:   ir.TypeInteger,
			where: []ir.Formula{ir.Cmp(ir.FuncGE, x, ir.C(ir.Int(5))), ir.Cmp(ir.FuncLT, x, ir.C(ir.Int(10)))},
			want:  []ir.Value{ir.Int(5), ir.Int(6), ir.Int(7), ir.Int(8), ir.Int(9)},
			state: lazy.Exhausted,
		},
		{
			name:  "tightest of several bounds",
			typ:   ir.TypeInteger,
			where: []ir.Formula{ir.Cmp(ir.FuncGT, x, ir.C(ir.Int(1))), ir.Cmp(ir.FuncGE, x, ir.C(ir.Int(4))), ir.Cmp(ir.FuncLE, x, ir.C(ir.Int(5))), ir.Cmp(ir.FuncLE, x, ir.C(ir.Int(9)))},
			want:  []ir.Value{ir.Int(4), ir.Int(5)},
			state: lazy.Exhausted,
		},
		{
			name:  "empty interval",
			typ:   ir.TypeInteger,
			where: []ir.Formula{ir.Cmp(ir.FuncGT, x, ir.C(ir.Int(3))), ir.Cmp(ir.FuncLT, x, ir.C(ir.Int(4)))},
			want:  nil,
			state: lazy.Exhausted,
		},
		{
			name:  "negated bound",
			typ:   ir.TypeNaturalNum,
			where: []ir.Formula{ir.Not(ir.Cmp(ir.FuncGE, x, ir.C(ir.Int(3))))},
			want:  []ir.Value{ir.Int(0), ir.Int(1), ir.Int(2)},
			state: lazy.Exhausted,
		},
		{
			name:  "upper bound only counts down",
			typ:   ir.TypeInteger,
			where: []ir.Formula{ir.Cmp(ir.FuncLE, x, ir.C(ir.Int(3)))},
			limit: 4,
			want:  []ir.Value{ir.Int(3), ir.Int(2), ir.Int(1), ir.Int(0)},
			state: lazy.Ready,
		},
		{
			name:  "unbounded integers alternate",
			typ:   ir.TypeInteger,
			limit: 5,
			want:  []ir.Value{ir.Int(0), ir.Int(1), ir.Int(-1), ir.Int(2), ir.Int(-2)},
			state: lazy.Ready,
		},
		{
			name:  "timesteps start at epoch",
			typ:   ir.TypeTimestep,
			limit: 3,
			want:  []ir.Value{ir.Timestep(0), ir.Timestep(1), ir.Timestep(2)},
			state: lazy.Ready,
		},
		{
			name:  "literal",
			typ:   ir.TypeInteger,
			where: []ir.Formula{ir.Eq(x, ir.C(ir.Int(5)))},
			want:  []ir.Value{ir.Int(5)},
			state: lazy.Exhausted,
		},
		{
			name:  "null literal is empty",
			typ:   ir.TypeInteger,
			where: []ir.Formula{ir.Eq(x, ir.C(ir.Null{}))},
			want:  nil,
			state: lazy.Exhausted,
		},
		{
			name:  "unknown bound is undetermined",
			typ:   ir.TypeNaturalNum,
			where: []ir.Formula{ir.Cmp(ir.FuncLT, x, ir.Fn("limit"))},
			want:  nil,
			state: lazy.Undetermined,
		},
		{
			name:  "unknown literal is undetermined",
			typ:   ir.TypeInteger,
			where: []ir.Formula{ir.Eq(x, ir.Fn("limit"))},
			want:  nil,
			state: lazy.Undetermined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := world.NewPartial(m)
			e := start(t, compileWhere(t, m, tt.typ, tt.where...), w.Context(nil))

			vals, st, err := Collect(e, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, vals)
			assert.Equal(t, tt.state, st)
		})
	}
}

func TestEnumerate_BoundFromWorld(t *testing.T) {
	m := chainModel(t)
	w := world.NewPartial(m)
	require.NoError(t, w.SetValue("limit", nil, ir.Int(3)))

	g := compileWhere(t, m, ir.TypeNaturalNum, ir.Cmp(ir.FuncLT, ir.V("x"), ir.Fn("limit")))
	vals, st := collectAll(t, start(t, g, w.Context(nil)))
	assert.Equal(t, []ir.Value{ir.Int(0), ir.Int(1), ir.Int(2)}, vals)
	assert.Equal(t, lazy.Exhausted, st)

	require.NoError(t, w.SetValue("limit", nil, ir.Null{}))
	vals, st = collectAll(t, start(t, g, w.Context(nil)))
	assert.Empty(t, vals, "a null bound denotes no integers")
	assert.Equal(t, lazy.Exhausted, st)
}

func TestEnumerate_InvalidBound(t *testing.T) {
	m := chainModel(t)
	b := graph.NewBuilder()
	n := b.Integer(ir.TypeInteger, false)
	require.NoError(t, b.AddBound(n, graph.Bound{Term: ir.C(ir.String("ten"))}, true))
	g := b.Build(n, ir.TypeInteger)

	e := start(t, g, world.NewPartial(m).Context(nil))
	_, st, err := e.Next()
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidBound))
	assert.Equal(t, lazy.Undetermined, st)
	assert.Contains(t, err.Error(), "run=run-1")

	_, _, again := e.Next()
	assert.Same(t, err, again, "errors are sticky")
}

func TestEnumerate_UnknownBoundOutranksNullBound(t *testing.T) {
	m := chainModel(t)
	ctx := world.NewPartial(m).Context(nil) // limit has no value
	null := graph.Bound{Term: ir.C(ir.Null{})}
	unknown := graph.Bound{Term: ir.Fn("limit")}
	five := graph.Bound{Term: ir.C(ir.Int(5))}

	type bound struct {
		b     graph.Bound
		upper bool
	}
	tests := []struct {
		name   string
		bounds []bound
		want   lazy.State
	}{
		{"null lower, unknown upper", []bound{{null, false}, {unknown, true}}, lazy.Undetermined},
		{"unknown lower, null upper", []bound{{unknown, false}, {null, true}}, lazy.Undetermined},
		{"null then unknown lower", []bound{{null, false}, {unknown, false}}, lazy.Undetermined},
		{"null lower, known upper", []bound{{null, false}, {five, true}}, lazy.Exhausted},
		{"known lower, null upper", []bound{{five, false}, {null, true}}, lazy.Exhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := graph.NewBuilder()
			n := b.Integer(ir.TypeInteger, false)
			for _, bd := range tt.bounds {
				require.NoError(t, b.AddBound(n, bd.b, bd.upper))
			}

			vals, st := collectAll(t, start(t, b.Build(n, ir.TypeInteger), ctx))
			assert.Empty(t, vals)
			assert.Equal(t, tt.want, st)
		})
	}
}

func TestEnumerate_InfiniteParentAdvancesOnePerRound(t *testing.T) {
	m := radarModel(t)
	w := world.NewPartial(m)
	w.Closed = true
	for i := 0; i < 3; i++ {
		_, err := w.Generate(ir.RuleApp{Rule: "FalseAlarm", Args: []ir.Value{ir.Timestep(i)}}, 1)
		require.NoError(t, err)
	}
	echo := newObjects(t, w, "Blip", "echo")[0]
	a2 := lookup(t, w, "a2")
	require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "FromAircraft", Args: []ir.Value{a2, ir.Timestep(1)}}, echo))

	e := start(t, compileType(t, m, "Blip"), w.Context(nil))
	vals, st, err := Collect(e, 4)
	require.NoError(t, err)
	assert.Equal(t, lazy.Ready, st)
	assert.Equal(t, []string{"FalseAlarm(@0)#1", "echo", "FalseAlarm(@1)#1", "FalseAlarm(@2)#1"}, names(vals))
}

func TestEnumerate_MaxRounds(t *testing.T) {
	m := radarModel(t)
	w := world.NewPartial(m)
	w.Closed = true
	_, err := w.Generate(ir.RuleApp{Rule: "FalseAlarm", Args: []ir.Value{ir.Timestep(0)}}, 1)
	require.NoError(t, err)

	e := start(t, compileType(t, m, "Blip"), w.Context(nil), WithMaxRounds(6))
	vals, _, err := Collect(e, 0)
	require.Error(t, err)
	assert.True(t, IsRoundsExceeded(err))
	assert.Equal(t, []string{"FalseAlarm(@0)#1"}, names(vals), "results before the error stay valid")
	assert.Equal(t, 6, e.Rounds())

	var re *RoundsExceededError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "run-1", re.RunID)
	assert.Equal(t, 6, re.Limit)
}

func TestEnumerate_MaxRoundsOnFiniteClosure(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, true)

	vals, _, err := Collect(start(t, compileType(t, m, "Node"), w.Context(nil), WithMaxRounds(3)), 0)
	require.Error(t, err)
	assert.True(t, IsRoundsExceeded(err))
	assert.Equal(t, []string{"root", "n1", "n2"}, names(vals))

	vals, st := collectAll(t, start(t, compileType(t, m, "Node"), w.Context(nil), WithMaxRounds(5)))
	assert.Equal(t, lazy.Exhausted, st)
	assert.Len(t, vals, 4)
}

func TestEnumerate_EachApplicationResolvedOnce(t *testing.T) {
	m := radarModel(t)
	w := world.NewPartial(m)
	w.Closed = true
	for i := 0; i < 4; i++ {
		_, err := w.Generate(ir.RuleApp{Rule: "FalseAlarm", Args: []ir.Value{ir.Timestep(i)}}, 2)
		require.NoError(t, err)
	}
	ctx := newCountingContext(w.Context(nil))

	e := start(t, compileType(t, m, "Blip"), ctx, WithDerivationCheck(true))
	vals, _, err := Collect(e, 8)
	require.NoError(t, err)
	assert.Len(t, vals, 8)
	require.NotEmpty(t, ctx.resolved)
	for app, n := range ctx.resolved {
		assert.Equalf(t, 1, n, "%s resolved %d times", app, n)
	}
	assert.Equal(t, len(ctx.resolved), e.ledger.Size())
}

func TestEnumerate_DerivationCheckCatchesRepeats(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 1, true)
	root := lookup(t, w, "root")

	for _, check := range []bool{false, true} {
		e := start(t, compileType(t, m, "Node"), w.Context(nil), WithDerivationCheck(check))
		// Corrupt the round buffers so Succ(root) is formed twice.
		e.prev[1] = []ir.Value{root, root}
		e.includeBase = false
		e.target = e.nodeGenerator(e.graph.Target(), false)

		vals, _, err := Collect(e, 2)
		if !check {
			require.NoError(t, err)
			assert.Equal(t, []string{"n1", "n1"}, names(vals))
			continue
		}
		require.Error(t, err)
		assert.True(t, IsDuplicateDerivation(err))
		assert.Equal(t, []string{"n1"}, names(vals))
	}
}

func TestEnumerate_MissingBookkeeping(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 1, true)

	e := start(t, compileType(t, m, "Node"), w.Context(nil))
	delete(e.prev, 1)
	e.includeBase = false
	e.target = e.nodeGenerator(e.graph.Target(), false)

	_, st, err := e.Next()
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMissingBookkeeping))
	assert.Equal(t, lazy.Undetermined, st)
	assert.False(t, IsUsageError(err))
}

func TestStart_UsageErrors(t *testing.T) {
	m := chainModel(t)
	ctx := world.NewPartial(m).Context(nil)

	t.Run("infinite union parent", func(t *testing.T) {
		b := graph.NewBuilder()
		u := b.Union(ir.TypeInteger)
		require.NoError(t, b.AddParent(u, b.Integer(ir.TypeInteger, false)))

		_, err := Start(b.Build(u, ir.TypeInteger), ctx, WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-x")))
		require.Error(t, err)
		assert.True(t, IsUsageError(err))
		assert.True(t, HasCode(err, ErrCodeInfiniteUnionParent))

		var ee *EnumerationError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "run-x", ee.RunID)
		assert.Equal(t, graph.NodeID(1), ee.Node)
	})

	t.Run("not enumerable", func(t *testing.T) {
		b := graph.NewBuilder()
		n := b.Enumerated(ir.TypeString, nil, false)

		_, err := Start(b.Build(n, ir.TypeString), ctx)
		require.Error(t, err)
		assert.True(t, HasCode(err, ErrCodeNotEnumerable))
	})

	t.Run("compiled string query", func(t *testing.T) {
		_, err := Start(compileType(t, m, ir.TypeString), ctx)
		assert.True(t, HasCode(err, ErrCodeNotEnumerable))
	})
}

func TestEnumerate_SkipIndistinguishable(t *testing.T) {
	m := chainModel(t)
	build := func(t *testing.T) *world.Partial {
		w := world.NewPartial(m)
		w.Closed = true
		root := lookup(t, w, "root")
		objs := newObjects(t, w, "Node", "m1", "m2", "m3")
		require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "Succ", Args: []ir.Value{root}}, objs[0], objs[1]))
		require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "Succ", Args: []ir.Value{objs[1]}}, objs[2]))
		return w
	}

	t.Run("no skipping", func(t *testing.T) {
		w := build(t)
		vals, _ := collectAll(t, start(t, compileType(t, m, "Node"), w.Context(nil)))
		assert.Equal(t, []string{"root", "m1", "m2", "m3"}, names(vals))
	})

	t.Run("skipped objects do not feed later rounds", func(t *testing.T) {
		w := build(t)
		e := start(t, compileType(t, m, "Node"), w.Context(nil))
		assert.Zero(t, e.SkipIndistinguishable(), "nothing yielded yet")

		vals, _, err := Collect(e, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "m1"}, names(vals))
		assert.Equal(t, 1, e.SkipIndistinguishable())

		rest, st := collectAll(t, e)
		assert.Empty(t, rest)
		assert.Equal(t, lazy.Exhausted, st)
	})

	t.Run("distinguished objects come first and are never skipped", func(t *testing.T) {
		w := build(t)
		m2 := lookup(t, w, "m2")
		e := start(t, compileType(t, m, "Node"), w.Context(nil), WithDistinguished(m2))

		vals, _, err := Collect(e, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "m2"}, names(vals))
		assert.Zero(t, e.SkipIndistinguishable())

		rest, _ := collectAll(t, e)
		assert.Equal(t, []string{"m1", "m3"}, names(rest))
	})
}

func TestEnumerate_RuleApps(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, true)
	root := lookup(t, w, "root")

	e := start(t, compileType(t, m, "Node"), w.Context(nil), WithRuleApps(true), WithDerivationCheck(true))
	vals, st := collectAll(t, e)
	assert.Equal(t, lazy.Exhausted, st)
	assert.Equal(t, []string{"root", "Succ(root)", "Succ(n1)", "Succ(n2)"}, names(vals))

	ref, ok := vals[1].(ir.RuleAppRef)
	require.True(t, ok)
	want, err := ir.RuleAppID("Succ", []ir.Value{root})
	require.NoError(t, err)
	assert.Equal(t, want, ref.ID)
	assert.Equal(t, []ir.Value{root}, ref.Args)
}

func TestEnumerate_RuleAppsOncePerApplication(t *testing.T) {
	m := chainModel(t)
	w := world.NewPartial(m)
	w.Closed = true
	_, err := w.Generate(ir.RuleApp{Rule: "Succ", Args: []ir.Value{lookup(t, w, "root")}}, 3)
	require.NoError(t, err)

	vals, _ := collectAll(t, start(t, compileType(t, m, "Node"), w.Context(nil), WithRuleApps(true)))
	assert.Equal(t, []string{"root", "Succ(root)"}, names(vals))
}

func TestEnumerate_RuleAppsResolveEachApplicationOnce(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, true)
	ctx := newCountingContext(w.Context(nil))

	e := start(t, compileType(t, m, "Node"), ctx, WithRuleApps(true), WithDerivationCheck(true))
	vals, st := collectAll(t, e)
	assert.Equal(t, lazy.Exhausted, st)
	assert.Equal(t, []string{"root", "Succ(root)", "Succ(n1)", "Succ(n2)"}, names(vals))

	// The ids feed later rounds through their satisfiers, so Succ(n3) is
	// still formed, and nothing is resolved a second time for bookkeeping.
	assert.Equal(t, map[string]int{
		"Succ(root)": 1,
		"Succ(n1)":   1,
		"Succ(n2)":   1,
		"Succ(n3)":   1,
	}, ctx.resolved)
	assert.Equal(t, 4, e.ledger.Size())
}

func TestEnumerate_Tracer(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 1, true)

	var events []Event
	e := start(t, compileType(t, m, "Node"), w.Context(nil), WithTracer(func(ev Event) {
		events = append(events, ev)
	}))
	_, _ = collectAll(t, e)

	var kinds []EventKind
	var rounds []int
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, "run-1", ev.RunID)
		kinds = append(kinds, ev.Kind)
		rounds = append(rounds, ev.Round)
	}
	assert.Equal(t, []EventKind{
		EventRound, EventYield,
		EventRound, EventResolve, EventYield,
		EventRound, EventResolve, EventHalt,
	}, kinds)
	assert.Equal(t, []int{0, 0, 1, 1, 1, 2, 2, 2}, rounds)

	assert.Equal(t, "Succ(root)", events[3].App)
	assert.Equal(t, world.Resolved, events[3].Resolution)
	assert.Equal(t, world.Unsatisfied, events[6].Resolution)
	assert.Equal(t, lazy.Exhausted, events[7].State)
}

func TestEnumerate_LogsWithRunID(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 1, true)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, _ = collectAll(t, start(t, compileType(t, m, "Node"), w.Context(nil),
		WithLogger(logger), WithTracer(func(Event) {})))

	out := buf.String()
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "round complete")
	assert.Contains(t, out, "state=exhausted")
	assert.Contains(t, out, "events=8")
	assert.Contains(t, out, "derivations=0")
}

func TestEnumerate_LogsDerivationsAndQuota(t *testing.T) {
	m := chainModel(t)
	w := chainWorld(t, m, 3, true)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, _ = collectAll(t, start(t, compileType(t, m, "Node"), w.Context(nil),
		WithLogger(logger), WithDerivationCheck(true)))
	assert.Contains(t, buf.String(), "derivations=4")

	buf.Reset()
	_, _, err := Collect(start(t, compileType(t, m, "Node"), w.Context(nil),
		WithLogger(logger), WithMaxRounds(2)), 0)
	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, "enumeration failed")
	assert.Contains(t, out, "rounds_started=3")
	assert.Contains(t, out, "max_rounds=2")
}

func TestEnumerate_SharedGraph(t *testing.T) {
	m := chainModel(t)
	g := compileType(t, m, "Node")
	w1 := chainWorld(t, m, 1, true)
	w2 := chainWorld(t, m, 3, true)

	e1 := start(t, g, w1.Context(nil))
	e2 := start(t, g, w2.Context(nil))

	v1, _ := collectAll(t, e1)
	v2, _ := collectAll(t, e2)
	assert.Equal(t, []string{"root", "n1"}, names(v1))
	assert.Equal(t, []string{"root", "n1", "n2", "n3"}, names(v2))
}
