// Package store provides SQLite-backed persistence for partial worlds and
// recorded enumeration runs.
//
// The store holds:
//   - Worlds: the objects, rule-application satisfiers and function values
//     of a named world.Partial
//   - Runs: one enumeration of a query against a stored world, with its
//     results in yield order and its terminal state
//
// # Patterns
//
// Logical ordering:
//   - Every list is written with an explicit seq and read back with
//     ORDER BY seq, so a world loaded from the store enumerates exactly like
//     the world that was saved
//
// Canonical values:
//   - Values and argument lists are stored as canonical JSON
//     (ir.MarshalValue), rule and function applications are keyed by their
//     content-addressed ids (ir.RuleAppID, ir.FuncAppID)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
