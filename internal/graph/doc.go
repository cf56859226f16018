// Package graph holds the object-generation graph: a registry of nodes that
// each stand for a set of values, connected by parent edges that say which
// sets a node's enumeration is computed from.
//
// Five node variants exist and the set is closed:
//
//   - UnionNode: concatenation of disjoint parent sets
//   - RuleAppNode: satisfiers of one generative rule, one parent per
//     generating function (argument position)
//   - LiteralNode: the single value of a variable-free term
//   - IntegerNode: integers or timesteps within extracted bounds
//   - EnumeratedNode: a fixed constant list (guaranteed objects, Boolean)
//
// Nodes reference each other by NodeID rather than by pointer. Cycles
// through rule-application nodes are expected: a recursive type's union node
// is a parent of the rule-app node that generates it.
//
// A Builder creates and interns nodes during compilation; Build freezes the
// target's ancestor closure into an immutable Graph.
package graph
