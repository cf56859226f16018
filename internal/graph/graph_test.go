package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objgen/internal/ir"
)

type identifierSet map[string]bool

func (s identifierSet) UsesIdentifiers(typ string) bool { return s[typ] }

// buildChain builds the cyclic graph for a Node type with one
// self-referential rule: U = G + R, R's only parent is U.
func buildChain(t *testing.T) *Graph {
	t.Helper()
	b := NewBuilder()
	u := b.Union("Node")
	b.Intern(InternKey{Type: "Node", Kind: KindUnion}, u)
	g := b.Enumerated("Node", []ir.Value{ir.Object{Type: "Node", Name: "root"}}, true)
	require.NoError(t, b.AddParent(u, g))
	r := b.RuleApp("Node", "Succ", []NodeID{u})
	require.NoError(t, b.AddParent(u, r))
	return b.Build(u, "Node")
}

func TestBuildKeepsAncestorClosure(t *testing.T) {
	b := NewBuilder()
	b.Integer(ir.TypeInteger, false)
	lit := b.Literal(ir.TypeInteger, ir.C(ir.Int(5)))

	g := b.Build(lit, ir.TypeInteger)
	require.Equal(t, 1, g.Len())
	assert.Equal(t, NodeID(1), g.Target())
	assert.Equal(t, KindLiteral, g.Node(g.Target()).Kind())
}

func TestBuildRenumbersAndDerivesChildren(t *testing.T) {
	g := buildChain(t)

	require.Equal(t, 3, g.Len())
	target := g.Node(g.Target())
	assert.Equal(t, KindUnion, target.Kind())
	assert.Equal(t, []NodeID{2, 3}, g.Parents(1))
	assert.Equal(t, []NodeID{1}, g.Parents(3))
	assert.Equal(t, []NodeID{3}, g.Children(1), "union feeds the rule-app node")
	assert.Equal(t, []NodeID{1}, g.Children(2))
}

func TestBuildEmptyTarget(t *testing.T) {
	g := NewBuilder().Build(NoNode, "Node")

	require.Equal(t, 1, g.Len())
	target := g.Node(g.Target())
	assert.Equal(t, KindUnion, target.Kind())
	assert.Empty(t, target.Parents())
}

func TestBuildIsolatesFromBuilder(t *testing.T) {
	b := NewBuilder()
	n := b.Integer(ir.TypeInteger, false)
	require.NoError(t, b.AddBound(n, Bound{Term: ir.C(ir.Int(1))}, false))
	g := b.Build(n, ir.TypeInteger)

	require.NoError(t, b.AddBound(n, Bound{Term: ir.C(ir.Int(9))}, true))
	built := g.Node(g.Target()).(*IntegerNode)
	assert.Len(t, built.Lower, 1)
	assert.Empty(t, built.Upper, "later builder mutation must not leak into the graph")
	assert.False(t, built.Finite())
}

func TestBuilderRejectsWrongKinds(t *testing.T) {
	b := NewBuilder()
	lit := b.Literal("Node", ir.V("y"))
	assert.Error(t, b.AddParent(lit, lit))
	assert.Error(t, b.AddBound(lit, Bound{Term: ir.C(ir.Int(1))}, true))
}

func TestInterning(t *testing.T) {
	b := NewBuilder()
	key := InternKey{Type: "Node", Kind: KindUnion}
	_, ok := b.Interned(key)
	assert.False(t, ok)

	u := b.Union("Node")
	b.Intern(key, u)
	got, ok := b.Interned(key)
	assert.True(t, ok)
	assert.Equal(t, u, got)
}

func TestFiniteness(t *testing.T) {
	b := NewBuilder()
	bounded := b.Integer(ir.TypeInteger, false)
	require.NoError(t, b.AddBound(bounded, Bound{Term: ir.C(ir.Int(0))}, false))
	require.NoError(t, b.AddBound(bounded, Bound{Term: ir.C(ir.Int(3))}, true))
	half := b.Integer(ir.TypeTimestep, true)
	require.NoError(t, b.AddBound(half, Bound{Term: ir.Fn(ir.FuncEpoch)}, false))

	assert.True(t, b.Node(bounded).Finite())
	assert.False(t, b.Node(half).Finite())
	assert.True(t, b.Node(b.Enumerated(ir.TypeBoolean, nil, true)).Finite())
	assert.False(t, b.Node(b.Enumerated(ir.TypeReal, nil, false)).Finite())
	assert.True(t, b.Node(b.Union("Node")).Finite())
}

func TestRuleAppParents(t *testing.T) {
	g := buildChain(t)

	assert.Equal(t, []NodeID{1}, g.RuleAppParents())
	assert.True(t, g.IsRuleAppParent(1))
	assert.False(t, g.IsRuleAppParent(2))
	assert.False(t, g.IsRuleAppParent(NoNode))
	assert.False(t, g.IsRuleAppParent(42))
}

func TestNodeOutsideGraph(t *testing.T) {
	g := buildChain(t)

	assert.Nil(t, g.Node(NoNode))
	assert.Nil(t, g.Node(NodeID(g.Len()+1)))
	assert.NotNil(t, g.Node(NodeID(g.Len())))
}

func TestDependsOnIDOrder(t *testing.T) {
	g := buildChain(t)
	assert.True(t, g.DependsOnIDOrder(identifierSet{"Node": true}))
	assert.False(t, g.DependsOnIDOrder(identifierSet{}))

	lit := NewBuilder()
	l := lit.Literal(ir.TypeInteger, ir.C(ir.Int(5)))
	assert.False(t, lit.Build(l, ir.TypeInteger).DependsOnIDOrder(identifierSet{"Node": true}))
}

func TestDOT(t *testing.T) {
	dot := buildChain(t).DOT()

	assert.Contains(t, dot, "digraph objgen {")
	assert.Contains(t, dot, "n1 [shape=ellipse, peripheries=2, style=bold")
	assert.Contains(t, dot, "n2 [shape=box, peripheries=1, label=")
	assert.Contains(t, dot, "n3 [shape=hexagon, peripheries=1, label=")
	assert.Contains(t, dot, "n1 -> n3 [label=\"0\"];")
	assert.Contains(t, dot, "n2 -> n1;")
}

func TestNodeStrings(t *testing.T) {
	b := NewBuilder()
	n := b.Integer(ir.TypeInteger, false)
	require.NoError(t, b.AddBound(n, Bound{Term: ir.C(ir.Int(2)), Offset: 1}, false))
	assert.Equal(t, "#1 integer Integer [2+1 .. *]", b.Node(n).String())

	e := b.Enumerated(ir.TypeBoolean, []ir.Value{ir.Bool(false), ir.Bool(true)}, true)
	assert.Equal(t, "#2 enumerated Boolean {false, true}", b.Node(e).String())
}
