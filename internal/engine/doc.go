// Package engine enumerates the objects a compiled generation graph
// denotes, against a partial world.
//
// Enumeration proceeds in rounds. In each round the target node's
// generator is driven to exhaustion; rule-application nodes only consider
// argument tuples with at least one object that was new in the previous
// round, so no rule application is resolved twice. At the end of a round
// every node that feeds a rule-application node is drained (or, if it is
// infinite, advanced by one object) and the per-node buffers are promoted:
//
//	earlier += previous
//	previous = current
//	current  = empty
//
// A round that adds nothing to any buffer ends the enumeration. Base cases
// (literals, guaranteed objects, integers, empty argument tuples) are only
// produced in round 0.
//
// SEMANTICS:
//
// Undetermined is not an error. It means the world does not yet know
// something the next result depends on; the enumeration halts and the
// caller retries after extending the world. Usage faults (an infinite node
// under a union, a non-enumerable built-in type, broken bookkeeping) are
// errors and are never retried.
//
// CONCURRENCY:
//
// An Enumeration is single-threaded and pull-based: nothing is computed
// ahead of what the caller asks for, and dropping an Enumeration leaks
// nothing. Graphs are immutable and may be shared by any number of
// concurrent enumerations, each with its own Enumeration value.
package engine
