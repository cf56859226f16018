package graph

import (
	"fmt"

	"github.com/roach88/objgen/internal/ir"
)

// InternKey identifies a canonical unconstrained node: the node standing for
// "all values of Type" under a given Kind. Only canonical nodes are interned.
type InternKey struct {
	Type string
	Kind Kind
}

// Builder accumulates nodes while a graph is being compiled. Nodes are
// mutable only through the Builder; Build freezes the ancestor closure of
// the target into an immutable Graph.
type Builder struct {
	nodes  []Node
	intern map[InternKey]NodeID
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{intern: make(map[InternKey]NodeID)}
}

// Len returns the number of nodes created so far.
func (b *Builder) Len() int { return len(b.nodes) }

// Interned returns the canonical node registered under key.
func (b *Builder) Interned(key InternKey) (NodeID, bool) {
	id, ok := b.intern[key]
	return id, ok
}

// Intern registers id as the canonical node for key. It must be called
// before the node's parents are compiled so that recursive types resolve
// to the node under construction.
func (b *Builder) Intern(key InternKey, id NodeID) {
	b.intern[key] = id
}

func (b *Builder) add(n Node) NodeID {
	id := NodeID(len(b.nodes) + 1)
	headerOf(n).id = id
	b.nodes = append(b.nodes, n)
	return id
}

// Node returns the node with the given id.
func (b *Builder) Node(id NodeID) Node {
	return b.nodes[id-1]
}

// Union creates an empty union node.
func (b *Builder) Union(typ string) NodeID {
	return b.add(&UnionNode{header: header{typ: typ}})
}

// AddParent appends parent to a union node's parents.
func (b *Builder) AddParent(union, parent NodeID) error {
	u, ok := b.Node(union).(*UnionNode)
	if !ok {
		return fmt.Errorf("node %d is %s, not a union", union, b.Node(union).Kind())
	}
	u.parents = append(u.parents, parent)
	return nil
}

// RuleApp creates a rule-application node with one parent per generating
// function of rule.
func (b *Builder) RuleApp(typ, rule string, parents []NodeID) NodeID {
	return b.add(&RuleAppNode{
		header: header{typ: typ, parents: append([]NodeID(nil), parents...)},
		Rule:   rule,
	})
}

// Literal creates a literal node for a term with no free variables.
func (b *Builder) Literal(typ string, t ir.Term) NodeID {
	return b.add(&LiteralNode{header: header{typ: typ}, Term: t})
}

// Integer creates an integer node without bounds.
func (b *Builder) Integer(typ string, timestep bool) NodeID {
	return b.add(&IntegerNode{header: header{typ: typ}, Timestep: timestep})
}

// AddBound adds an inclusive bound to an integer node.
func (b *Builder) AddBound(id NodeID, bound Bound, upper bool) error {
	n, ok := b.Node(id).(*IntegerNode)
	if !ok {
		return fmt.Errorf("node %d is %s, not an integer node", id, b.Node(id).Kind())
	}
	if upper {
		n.Upper = append(n.Upper, bound)
	} else {
		n.Lower = append(n.Lower, bound)
	}
	return nil
}

// Enumerated creates an enumerated node over constants.
func (b *Builder) Enumerated(typ string, constants []ir.Value, enumerable bool) NodeID {
	return b.add(&EnumeratedNode{
		header:     header{typ: typ},
		Constants:  append([]ir.Value(nil), constants...),
		Enumerable: enumerable,
	})
}

// Build freezes the ancestor closure of target. Nodes are renumbered in
// depth-first discovery order starting at the target, and child edges are
// derived from parent edges. Nodes not reachable from target are dropped.
// If target is NoNode the result is a graph whose target is a union of
// type typ with no parents.
func (b *Builder) Build(target NodeID, typ string) *Graph {
	if target == NoNode {
		target = b.Union(typ)
	}

	remap := make(map[NodeID]NodeID)
	var order []NodeID
	var visit func(id NodeID)
	visit = func(id NodeID) {
		if _, seen := remap[id]; seen {
			return
		}
		remap[id] = NodeID(len(order) + 1)
		order = append(order, id)
		for _, p := range headerOf(b.Node(id)).parents {
			visit(p)
		}
	}
	visit(target)

	nodes := make([]Node, len(order))
	for i, old := range order {
		n := cloneNode(b.Node(old))
		h := headerOf(n)
		h.id = NodeID(i + 1)
		h.children = nil
		parents := make([]NodeID, len(h.parents))
		for j, p := range h.parents {
			parents[j] = remap[p]
		}
		h.parents = parents
		nodes[i] = n
	}
	for _, n := range nodes {
		for _, p := range headerOf(n).parents {
			ph := headerOf(nodes[p-1])
			if len(ph.children) == 0 || ph.children[len(ph.children)-1] != n.ID() {
				ph.children = append(ph.children, n.ID())
			}
		}
	}

	return &Graph{nodes: nodes, target: remap[target]}
}

// cloneNode copies a node so the built graph shares nothing mutable with
// the builder.
func cloneNode(n Node) Node {
	switch x := n.(type) {
	case *UnionNode:
		c := *x
		return &c
	case *RuleAppNode:
		c := *x
		return &c
	case *LiteralNode:
		c := *x
		return &c
	case *IntegerNode:
		c := *x
		c.Lower = append([]Bound(nil), x.Lower...)
		c.Upper = append([]Bound(nil), x.Upper...)
		return &c
	case *EnumeratedNode:
		c := *x
		c.Constants = append([]ir.Value(nil), x.Constants...)
		return &c
	}
	panic(fmt.Sprintf("graph: unknown node type %T", n))
}
