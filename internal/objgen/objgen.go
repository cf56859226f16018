// Package objgen is the public surface for enumerating the objects a
// declarative description denotes.
//
// A Graph is compiled once from a model and a description, then enumerated
// any number of times against different worlds:
//
//	g, err := objgen.New(m, "Node", "x", where, nil)
//	e, err := g.Enumerate(w.Context(nil))
//	for {
//		v, st, err := e.Next()
//		...
//	}
//
// Graphs are immutable and safe to share between goroutines; each
// enumeration owns its own state.
package objgen

import (
	"fmt"

	"github.com/roach88/objgen/internal/compiler"
	"github.com/roach88/objgen/internal/engine"
	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/world"
)

// Graph is a compiled object-generation graph.
type Graph struct {
	model *ir.Model
	typ   string
	g     *graph.Graph
}

// ForType compiles the graph for every object of typ.
func ForType(m *ir.Model, typ string) (*Graph, error) {
	g, err := compiler.CompileType(m, typ)
	if err != nil {
		return nil, fmt.Errorf("objgen: %s: %w", typ, err)
	}
	return &Graph{model: m, typ: typ, g: g}, nil
}

// New compiles the graph for {subject : typ | where}. free names the
// variables bound only when the graph is enumerated.
func New(m *ir.Model, typ, subject string, where []ir.Formula, free []string) (*Graph, error) {
	g, err := compiler.Compile(m, typ, ir.V(subject), where, free)
	if err != nil {
		return nil, fmt.Errorf("objgen: {%s : %s}: %w", subject, typ, err)
	}
	return &Graph{model: m, typ: typ, g: g}, nil
}

// ForQuery compiles a query declared by the model.
func ForQuery(m *ir.Model, name string) (*Graph, error) {
	q, ok := m.Query(name)
	if !ok {
		return nil, fmt.Errorf("objgen: unknown query %q", name)
	}
	return New(m, q.Type, q.Var, q.Where, q.Free)
}

// Type returns the type the graph enumerates.
func (g *Graph) Type() string { return g.typ }

// Model returns the model the graph was compiled from.
func (g *Graph) Model() *ir.Model { return g.model }

// Target returns the node whose satisfiers are enumerated.
func (g *Graph) Target() graph.NodeID { return g.g.Target() }

// Nodes returns every node, in id order.
func (g *Graph) Nodes() []graph.Node { return g.g.Nodes() }

// Node returns one node.
func (g *Graph) Node(id graph.NodeID) graph.Node { return g.g.Node(id) }

// Parents returns the parents of a node.
func (g *Graph) Parents(id graph.NodeID) []graph.NodeID { return g.g.Parents(id) }

// Children returns the children of a node.
func (g *Graph) Children(id graph.NodeID) []graph.NodeID { return g.g.Children(id) }

// DependsOnIDOrder reports whether the enumeration order depends on how
// ctx orders object identifiers. Callers that need a canonical order must
// randomize or sort when it returns true.
func (g *Graph) DependsOnIDOrder(ctx world.Context) bool {
	return g.g.DependsOnIDOrder(ctx)
}

// Enumerate starts a lazy enumeration of the target's satisfiers in ctx.
func (g *Graph) Enumerate(ctx world.Context, opts ...engine.Option) (*engine.Enumeration, error) {
	return engine.Start(g.g, ctx, opts...)
}

// DOT renders the graph in Graphviz format.
func (g *Graph) DOT() string { return g.g.DOT() }

// Raw returns the underlying node graph.
func (g *Graph) Raw() *graph.Graph { return g.g }
