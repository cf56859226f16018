// Package world holds the partial worlds the enumeration engine runs
// against.
//
// A world answers three kinds of question: the value of a term under a
// variable assignment, the satisfiers of a rule application, and whether a
// type's objects are named by identifiers. Any answer may be unknown. The
// engine treats unknown answers as Undetermined and stops there, so a
// partial world can be extended and the enumeration retried.
//
// Partial is the in-memory implementation. Fixtures load a Partial from
// YAML or TOML; internal/store persists one in SQLite.
package world
