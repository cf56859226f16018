package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Built-in function names.
const (
	FuncLT    = "<"
	FuncLE    = "<="
	FuncGT    = ">"
	FuncGE    = ">="
	FuncPlus  = "+"
	FuncMinus = "-"
	FuncZero  = "zero"
	FuncEpoch = "epoch"
)

// IsComparison reports whether fn is one of the four order comparisons.
func IsComparison(fn string) bool {
	switch fn {
	case FuncLT, FuncLE, FuncGT, FuncGE:
		return true
	}
	return false
}

// IsBuiltinFunc reports whether fn is a built-in function.
func IsBuiltinFunc(fn string) bool {
	switch fn {
	case FuncPlus, FuncMinus, FuncZero, FuncEpoch:
		return true
	}
	return IsComparison(fn)
}

// Term is a sealed interface for terms.
// Only Var, Const, and FuncApp implement it.
type Term interface {
	fmt.Stringer
	term()
}

// Var is a logical variable.
type Var struct {
	Name string
}

func (Var) term() {}

func (v Var) String() string { return v.Name }

// Const is a constant value.
type Const struct {
	Value Value
}

func (Const) term() {}

func (c Const) String() string { return Format(c.Value) }

// FuncApp applies a function (ordinary, generating or built-in) to terms.
type FuncApp struct {
	Func string
	Args []Term
}

func (FuncApp) term() {}

func (f FuncApp) String() string {
	if IsComparison(f.Func) || f.Func == FuncPlus || f.Func == FuncMinus {
		if len(f.Args) == 2 {
			return fmt.Sprintf("(%s %s %s)", f.Args[0], f.Func, f.Args[1])
		}
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return f.Func + "(" + strings.Join(parts, ", ") + ")"
}

// V returns a variable term.
func V(name string) Var { return Var{Name: name} }

// C returns a constant term.
func C(v Value) Const { return Const{Value: v} }

// Fn returns a function application term.
func Fn(name string, args ...Term) FuncApp { return FuncApp{Func: name, Args: args} }

// TermsEqual reports structural equality of two terms.
func TermsEqual(a, b Term) bool {
	switch x := a.(type) {
	case Var:
		y, ok := b.(Var)
		return ok && x.Name == y.Name
	case Const:
		y, ok := b.(Const)
		return ok && ValuesEqual(x.Value, y.Value)
	case FuncApp:
		y, ok := b.(FuncApp)
		if !ok || x.Func != y.Func || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !TermsEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Contains reports whether sub occurs in t (t itself included).
func Contains(t, sub Term) bool {
	found := false
	walkTerm(t, func(x Term) bool {
		if TermsEqual(x, sub) {
			found = true
		}
		return !found
	})
	return found
}

// FreeVars returns the sorted, distinct variable names occurring in t.
func FreeVars(t Term) []string {
	var out []string
	walkTerm(t, func(x Term) bool {
		if v, ok := x.(Var); ok && !slices.Contains(out, v.Name) {
			out = append(out, v.Name)
		}
		return true
	})
	slices.Sort(out)
	return out
}

// MentionsAny reports whether any variable of t is in vars.
func MentionsAny(t Term, vars map[string]bool) bool {
	for _, v := range FreeVars(t) {
		if vars[v] {
			return true
		}
	}
	return false
}

// walkTerm visits t and its subterms in pre-order until visit returns false.
func walkTerm(t Term, visit func(Term) bool) bool {
	if !visit(t) {
		return false
	}
	if f, ok := t.(FuncApp); ok {
		for _, a := range f.Args {
			if !walkTerm(a, visit) {
				return false
			}
		}
	}
	return true
}
