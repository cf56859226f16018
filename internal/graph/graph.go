package graph

import "slices"

// IdentifierOracle reports whether a world names objects of a type with
// identifiers. The world's evaluation context satisfies it.
type IdentifierOracle interface {
	UsesIdentifiers(typ string) bool
}

// Graph is an immutable object-generation graph: the ancestor closure of a
// target node. It may be shared by concurrent enumerations.
type Graph struct {
	nodes  []Node
	target NodeID
}

// Target returns the id of the node whose satisfiers are enumerated.
func (g *Graph) Target() NodeID { return g.target }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id, or nil if the graph has no
// such node (NoNode included).
func (g *Graph) Node(id NodeID) Node {
	if id == NoNode || int(id) > len(g.nodes) {
		return nil
	}
	return g.nodes[id-1]
}

// Nodes returns every node in id order.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Parents returns the parent ids of a node.
func (g *Graph) Parents(id NodeID) []NodeID {
	return g.Node(id).Parents()
}

// Children returns the child ids of a node.
func (g *Graph) Children(id NodeID) []NodeID {
	return g.Node(id).Children()
}

// RuleAppParents returns, in ascending order, every node that is a parent
// of at least one rule-application node. These are the nodes whose objects
// the fixpoint engine tracks round by round.
func (g *Graph) RuleAppParents() []NodeID {
	var out []NodeID
	for _, n := range g.nodes {
		if n.Kind() != KindRuleApp {
			continue
		}
		for _, p := range headerOf(n).parents {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return out
}

// IsRuleAppParent reports whether id is the parent of a rule-app node,
// that is, whether the engine keeps round buffers for it.
func (g *Graph) IsRuleAppParent(id NodeID) bool {
	n := g.Node(id)
	if n == nil {
		return false
	}
	for _, c := range headerOf(n).children {
		if g.Node(c).Kind() == KindRuleApp {
			return true
		}
	}
	return false
}

// DependsOnIDOrder reports whether the enumeration order depends on the
// identifiers the world assigns: true iff some rule-application node in the
// graph generates a type that oracle names with identifiers.
func (g *Graph) DependsOnIDOrder(oracle IdentifierOracle) bool {
	for _, n := range g.nodes {
		if n.Kind() == KindRuleApp && oracle.UsesIdentifiers(n.Type()) {
			return true
		}
	}
	return false
}
