package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/objgen/internal/ir"
)

// NodeID is a handle into a graph's node registry. IDs are 1-based;
// NoNode (0) stands for "no node", the empty set.
type NodeID uint32

// NoNode is the zero NodeID.
const NoNode NodeID = 0

// Kind names a node variant.
type Kind uint8

const (
	KindUnion Kind = iota + 1
	KindRuleApp
	KindLiteral
	KindInteger
	KindEnumerated
)

func (k Kind) String() string {
	switch k {
	case KindUnion:
		return "union"
	case KindRuleApp:
		return "ruleapp"
	case KindLiteral:
		return "literal"
	case KindInteger:
		return "integer"
	case KindEnumerated:
		return "enumerated"
	default:
		return "invalid"
	}
}

// Node is a sealed interface over the five node variants.
// Only *UnionNode, *RuleAppNode, *LiteralNode, *IntegerNode and
// *EnumeratedNode implement it.
type Node interface {
	ID() NodeID
	Kind() Kind
	// Type is the type of the objects the node produces.
	Type() string
	// Parents are the nodes whose output drives this node's enumeration.
	Parents() []NodeID
	// Children are the reverse edges, kept for introspection only.
	Children() []NodeID
	// Finite reports whether the node can be drained completely.
	Finite() bool
	String() string
	node()
}

type header struct {
	id       NodeID
	typ      string
	parents  []NodeID
	children []NodeID
}

func (h *header) ID() NodeID         { return h.id }
func (h *header) Type() string       { return h.typ }
func (h *header) Parents() []NodeID  { return append([]NodeID(nil), h.parents...) }
func (h *header) Children() []NodeID { return append([]NodeID(nil), h.children...) }

// UnionNode produces the concatenation of its parents' sets. Parents are
// assumed pairwise disjoint and finite.
type UnionNode struct {
	header
}

func (*UnionNode) node()        {}
func (*UnionNode) Kind() Kind   { return KindUnion }
func (*UnionNode) Finite() bool { return true }

func (n *UnionNode) String() string {
	return fmt.Sprintf("#%d union %s", n.id, n.typ)
}

// RuleAppNode produces the satisfiers of applications of one generative
// rule. Parent i supplies the values of the rule's i-th generating function.
type RuleAppNode struct {
	header
	Rule string
}

func (*RuleAppNode) node()        {}
func (*RuleAppNode) Kind() Kind   { return KindRuleApp }
func (*RuleAppNode) Finite() bool { return true }

func (n *RuleAppNode) String() string {
	return fmt.Sprintf("#%d ruleapp %s %s", n.id, n.Rule, n.typ)
}

// LiteralNode produces the single value of a term that has no free
// variables.
type LiteralNode struct {
	header
	Term ir.Term
}

func (*LiteralNode) node()        {}
func (*LiteralNode) Kind() Kind   { return KindLiteral }
func (*LiteralNode) Finite() bool { return true }

func (n *LiteralNode) String() string {
	return fmt.Sprintf("#%d literal %s = %s", n.id, n.typ, n.Term)
}

// Bound is an inclusive integer bound: the value of Term plus Offset.
// Strict lower bounds carry Offset +1, strict upper bounds -1.
type Bound struct {
	Term   ir.Term
	Offset int64
}

func (b Bound) String() string {
	switch {
	case b.Offset > 0:
		return fmt.Sprintf("%s+%d", b.Term, b.Offset)
	case b.Offset < 0:
		return fmt.Sprintf("%s%d", b.Term, b.Offset)
	}
	return b.Term.String()
}

// IntegerNode produces integers (or timesteps) between the tightest of its
// lower bounds and the tightest of its upper bounds.
type IntegerNode struct {
	header
	Lower    []Bound
	Upper    []Bound
	Timestep bool
}

func (*IntegerNode) node()      {}
func (*IntegerNode) Kind() Kind { return KindInteger }

// Finite reports whether both a lower and an upper bound exist.
func (n *IntegerNode) Finite() bool { return len(n.Lower) > 0 && len(n.Upper) > 0 }

func (n *IntegerNode) String() string {
	return fmt.Sprintf("#%d integer %s [%s .. %s]", n.id, n.typ, joinBounds(n.Lower), joinBounds(n.Upper))
}

func joinBounds(bs []Bound) string {
	if len(bs) == 0 {
		return "*"
	}
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = b.String()
	}
	return strings.Join(parts, ", ")
}

// EnumeratedNode produces a fixed constant list: guaranteed objects of a
// user type, or the values of Boolean. Other built-in types are not
// enumerable.
type EnumeratedNode struct {
	header
	Constants  []ir.Value
	Enumerable bool
}

func (*EnumeratedNode) node()          {}
func (*EnumeratedNode) Kind() Kind     { return KindEnumerated }
func (n *EnumeratedNode) Finite() bool { return n.Enumerable }

func (n *EnumeratedNode) String() string {
	if !n.Enumerable {
		return fmt.Sprintf("#%d enumerated %s (not enumerable)", n.id, n.typ)
	}
	parts := make([]string, len(n.Constants))
	for i, c := range n.Constants {
		parts[i] = ir.Format(c)
	}
	return fmt.Sprintf("#%d enumerated %s {%s}", n.id, n.typ, strings.Join(parts, ", "))
}

// headerOf returns the shared header of any node variant.
func headerOf(n Node) *header {
	switch x := n.(type) {
	case *UnionNode:
		return &x.header
	case *RuleAppNode:
		return &x.header
	case *LiteralNode:
		return &x.header
	case *IntegerNode:
		return &x.header
	case *EnumeratedNode:
		return &x.header
	}
	panic(fmt.Sprintf("graph: unknown node type %T", n))
}
