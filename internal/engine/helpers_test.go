package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/objgen/internal/compiler"
	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
	"github.com/roach88/objgen/internal/testutil"
	"github.com/roach88/objgen/internal/world"
)

// chainModel: Node objects linked by pred, starting at the guaranteed root.
func chainModel(t *testing.T) *ir.Model {
	t.Helper()
	m := ir.NewModel()
	require.NoError(t, m.AddType("Node", "root"))
	require.NoError(t, m.AddGenFunc("pred", "Node", "Node"))
	require.NoError(t, m.AddRule("Succ", "Node", "pred"))
	require.NoError(t, m.AddFunction("limit", ir.TypeInteger, nil))
	return m
}

// chainWorld links root -> n1 -> ... -> n<length>.
func chainWorld(t *testing.T, m *ir.Model, length int, closed bool) *world.Partial {
	t.Helper()
	w := world.NewPartial(m)
	w.Closed = closed
	prev, ok := w.Lookup("root")
	require.True(t, ok)
	for i := 1; i <= length; i++ {
		o, err := w.NewObject("Node", fmt.Sprintf("n%d", i))
		require.NoError(t, err)
		require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "Succ", Args: []ir.Value{prev}}, o))
		prev = o
	}
	return w
}

// radarModel: blips come from aircraft at a timestep or are false alarms.
func radarModel(t *testing.T) *ir.Model {
	t.Helper()
	m := ir.NewModel()
	require.NoError(t, m.AddType("Aircraft", "a1", "a2"))
	require.NoError(t, m.AddType("Blip"))
	require.NoError(t, m.AddGenFunc("source", "Blip", "Aircraft"))
	require.NoError(t, m.AddGenFunc("time", "Blip", ir.TypeTimestep))
	require.NoError(t, m.AddRule("FromAircraft", "Blip", "source", "time"))
	require.NoError(t, m.AddRule("FalseAlarm", "Blip", "time"))
	return m
}

// mutualModel: A and B generate each other.
func mutualModel(t *testing.T) *ir.Model {
	t.Helper()
	m := ir.NewModel()
	require.NoError(t, m.AddType("A", "a0"))
	require.NoError(t, m.AddType("B"))
	require.NoError(t, m.AddGenFunc("fromB", "A", "B"))
	require.NoError(t, m.AddGenFunc("fromA", "B", "A"))
	require.NoError(t, m.AddRule("MkA", "A", "fromB"))
	require.NoError(t, m.AddRule("MkB", "B", "fromA"))
	return m
}

// joinModel: Node objects made by joining two earlier nodes, starting at
// the guaranteed root.
func joinModel(t *testing.T) *ir.Model {
	t.Helper()
	m := ir.NewModel()
	require.NoError(t, m.AddType("Node", "root"))
	require.NoError(t, m.AddGenFunc("left", "Node", "Node"))
	require.NoError(t, m.AddGenFunc("right", "Node", "Node"))
	require.NoError(t, m.AddRule("Join", "Node", "left", "right"))
	return m
}

func join(x, y ir.Object) ir.RuleApp {
	return ir.RuleApp{Rule: "Join", Args: []ir.Value{x, y}}
}

func lookup(t *testing.T, w *world.Partial, name string) ir.Object {
	t.Helper()
	o, ok := w.Lookup(name)
	require.Truef(t, ok, "no object %q", name)
	return o
}

func newObjects(t *testing.T, w *world.Partial, typ string, names ...string) []ir.Object {
	t.Helper()
	out := make([]ir.Object, len(names))
	for i, n := range names {
		o, err := w.NewObject(typ, n)
		require.NoError(t, err)
		out[i] = o
	}
	return out
}

func compileType(t *testing.T, m *ir.Model, typ string) *graph.Graph {
	t.Helper()
	g, err := compiler.CompileType(m, typ)
	require.NoError(t, err)
	return g
}

func compileWhere(t *testing.T, m *ir.Model, typ string, where ...ir.Formula) *graph.Graph {
	t.Helper()
	g, err := compiler.Compile(m, typ, ir.V("x"), where, nil)
	require.NoError(t, err)
	return g
}

func start(t *testing.T, g *graph.Graph, ctx world.Context, opts ...Option) *Enumeration {
	t.Helper()
	opts = append([]Option{WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-1"))}, opts...)
	e, err := Start(g, ctx, opts...)
	require.NoError(t, err)
	return e
}

// collectAll drains an enumeration that is expected to terminate.
func collectAll(t *testing.T, e *Enumeration) ([]ir.Value, lazy.State) {
	t.Helper()
	vals, st, err := Collect(e, 0)
	require.NoError(t, err)
	return vals, st
}

func names(vals []ir.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = ir.Format(v)
	}
	return out
}

// countingContext counts how often each rule application is resolved.
type countingContext struct {
	world.Context
	resolved map[string]int
}

func newCountingContext(ctx world.Context) *countingContext {
	return &countingContext{Context: ctx, resolved: make(map[string]int)}
}

func (c *countingContext) Resolve(app ir.RuleApp) (world.ObjectSet, world.Resolution) {
	c.resolved[app.String()]++
	return c.Context.Resolve(app)
}
