package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/objgen/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Term errors (E101-E109)
	ErrUnknownFunction = "E101" // function name not declared
	ErrArity           = "E102" // wrong number of arguments
	ErrUnknownObject   = "E103" // constant object not declared by the model

	// Query errors (E110-E119)
	ErrSubjectNotFree   = "E110" // query variable missing from the free set
	ErrNotEnumerable    = "E111" // query over a non-enumerable built-in
	ErrUnusedConstraint = "E112" // constraint does not mention the subject
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks every query of a model. It returns all problems found
// (does not fail-fast). Declarations are already checked by Model itself.
func Validate(m *ir.Model) []ValidationError {
	var errs []ValidationError
	for _, q := range m.Queries() {
		errs = append(errs, validateQuery(m, q)...)
	}
	return errs
}

func validateQuery(m *ir.Model, q *ir.Query) []ValidationError {
	var errs []ValidationError
	field := "queries." + q.Name

	if !slices.Contains(q.Free, q.Var) {
		errs = append(errs, ValidationError{
			Field:   field + ".free",
			Message: fmt.Sprintf("query variable %q must be free", q.Var),
			Code:    ErrSubjectNotFree,
		})
	}

	if t, ok := m.Type(q.Type); ok && t.Builtin && !t.Enumerable() &&
		!m.IsSubtypeOf(q.Type, ir.TypeInteger) && q.Type != ir.TypeTimestep && !pinsSubject(q) {
		errs = append(errs, ValidationError{
			Field:   field + ".type",
			Message: fmt.Sprintf("values of %s cannot be enumerated; add an equality on %s", q.Type, q.Var),
			Code:    ErrNotEnumerable,
		})
	}

	for i, f := range q.Where {
		ff := fmt.Sprintf("%s.where[%d]", field, i)
		if !ir.ContainsTerm(f, ir.V(q.Var)) {
			errs = append(errs, ValidationError{
				Field:   ff,
				Message: fmt.Sprintf("constraint %s does not mention %s and is ignored", f, q.Var),
				Code:    ErrUnusedConstraint,
			})
		}
		for _, t := range ir.Subterms(f) {
			errs = append(errs, validateTerm(m, t, ff)...)
		}
	}
	return errs
}

// pinsSubject reports whether some equality fixes the query variable.
func pinsSubject(q *ir.Query) bool {
	for _, f := range q.Where {
		if eq, ok := f.(ir.Equality); ok {
			if _, ok := eq.Other(ir.V(q.Var)); ok {
				return true
			}
		}
	}
	return false
}

func validateTerm(m *ir.Model, t ir.Term, field string) []ValidationError {
	switch x := t.(type) {
	case ir.Const:
		if obj, ok := x.Value.(ir.Object); ok {
			if _, declared := m.Object(obj.Name); !declared {
				return []ValidationError{{
					Field:   field,
					Message: fmt.Sprintf("object %q is not a guaranteed object", obj.Name),
					Code:    ErrUnknownObject,
				}}
			}
		}
	case ir.FuncApp:
		want, ok := arity(m, x.Func)
		if !ok {
			return []ValidationError{{
				Field:   field,
				Message: fmt.Sprintf("unknown function %q", x.Func),
				Code:    ErrUnknownFunction,
			}}
		}
		if want != len(x.Args) {
			return []ValidationError{{
				Field:   field,
				Message: fmt.Sprintf("%s takes %d argument(s), got %d", x.Func, want, len(x.Args)),
				Code:    ErrArity,
			}}
		}
	}
	return nil
}

func arity(m *ir.Model, fn string) (int, bool) {
	switch {
	case ir.IsComparison(fn), fn == ir.FuncPlus, fn == ir.FuncMinus:
		return 2, true
	case fn == ir.FuncZero, fn == ir.FuncEpoch:
		return 0, true
	case m.IsGenFunc(fn):
		return 1, true
	}
	if f, ok := m.Function(fn); ok {
		return len(f.Args), true
	}
	return 0, false
}
