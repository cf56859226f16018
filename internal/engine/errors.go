package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/objgen/internal/graph"
)

// EnumerationError is a fatal fault detected while enumerating a graph.
//
// Enumeration errors include:
//   - Infinite union parent: a union node would have to drain an infinite
//     parent
//   - Not enumerable: a built-in type with no enumerable constant set
//   - Duplicate derivation: a rule application was resolved twice for the
//     same node
//   - Missing bookkeeping: a rule-application parent has no round buffers
//   - Invalid bound: an integer bound evaluated to a non-integer
//   - Unhashable application: no canonical id for a rule application
type EnumerationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the node at fault, if any.
	Node graph.NodeID

	// Type is the type of that node.
	Type string

	// RunID identifies the enumeration.
	RunID string
}

// ErrorCode categorizes enumeration errors.
type ErrorCode string

const (
	// ErrCodeInfiniteUnionParent indicates a union node over an infinite parent.
	ErrCodeInfiniteUnionParent ErrorCode = "INFINITE_UNION_PARENT"

	// ErrCodeNotEnumerable indicates enumeration of a non-enumerable type.
	ErrCodeNotEnumerable ErrorCode = "NOT_ENUMERABLE"

	// ErrCodeDuplicateDerivation indicates a rule application resolved twice.
	ErrCodeDuplicateDerivation ErrorCode = "DUPLICATE_DERIVATION"

	// ErrCodeMissingBookkeeping indicates a rule-application parent with no
	// round buffers.
	ErrCodeMissingBookkeeping ErrorCode = "MISSING_BOOKKEEPING"

	// ErrCodeInvalidBound indicates an integer bound with a non-integer value.
	ErrCodeInvalidBound ErrorCode = "INVALID_BOUND"

	// ErrCodeUnhashable indicates a rule application whose arguments have
	// no canonical encoding.
	ErrCodeUnhashable ErrorCode = "UNHASHABLE_APPLICATION"
)

// Error implements the error interface.
func (e *EnumerationError) Error() string {
	switch {
	case e.Node != graph.NoNode && e.RunID != "":
		return fmt.Sprintf("%s: %s (node=#%d %s, run=%s)", e.Code, e.Message, e.Node, e.Type, e.RunID)
	case e.Node != graph.NoNode:
		return fmt.Sprintf("%s: %s (node=#%d %s)", e.Code, e.Message, e.Node, e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is an EnumerationError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var ee *EnumerationError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsUsageError returns true for the static usage faults: an infinite union
// parent or a non-enumerable type.
func IsUsageError(err error) bool {
	return HasCode(err, ErrCodeInfiniteUnionParent) || HasCode(err, ErrCodeNotEnumerable)
}

// IsDuplicateDerivation returns true if err reports a rule application
// resolved twice.
func IsDuplicateDerivation(err error) bool {
	return HasCode(err, ErrCodeDuplicateDerivation)
}

func newNodeError(code ErrorCode, n graph.Node, format string, args ...any) *EnumerationError {
	return &EnumerationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Node:    n.ID(),
		Type:    n.Type(),
	}
}
