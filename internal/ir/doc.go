// Package ir provides the model representation shared by every objgen package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the model layer at the
// bottom of the dependency graph with no cycles.
//
// Key design constraints:
//   - Values are a closed set (Null, Int, Bool, String, Timestep, Object,
//     RuleAppRef); there are no floats
//   - Terms and formulas are sealed interfaces compared structurally
//   - Canonical JSON (RFC 8785 ordering, NFC strings) is the only encoding
//     used for identity: map keys, rule-application ids and storage
//   - Declaration order of types and rules is preserved, so every walk over
//     the model is deterministic
package ir
