package ir

import "fmt"

// Formula is a sealed interface for literal constraints.
// Only Atom, Equality, and Neg implement it.
type Formula interface {
	fmt.Stringer
	formula()
}

// Atom asserts a boolean-valued term, e.g. (x < 5).
type Atom struct {
	Term Term
}

func (Atom) formula() {}

func (a Atom) String() string { return a.Term.String() }

// Equality asserts Left == Right.
type Equality struct {
	Left  Term
	Right Term
}

func (Equality) formula() {}

func (e Equality) String() string { return fmt.Sprintf("%s == %s", e.Left, e.Right) }

// Other returns the side of the equality opposite to t, if t is one side.
func (e Equality) Other(t Term) (Term, bool) {
	switch {
	case TermsEqual(e.Left, t):
		return e.Right, true
	case TermsEqual(e.Right, t):
		return e.Left, true
	}
	return nil, false
}

// AssertsNull reports whether the equality states t == null.
func (e Equality) AssertsNull(t Term) bool {
	other, ok := e.Other(t)
	if !ok {
		return false
	}
	c, ok := other.(Const)
	return ok && IsNull(c.Value)
}

// Neg negates a formula.
type Neg struct {
	Inner Formula
}

func (Neg) formula() {}

func (n Neg) String() string { return fmt.Sprintf("!(%s)", n.Inner) }

// Eq returns an equality formula.
func Eq(left, right Term) Equality { return Equality{Left: left, Right: right} }

// Not negates f.
func Not(f Formula) Neg { return Neg{Inner: f} }

// Cmp returns the atom (left op right) for a comparison op.
func Cmp(op string, left, right Term) Atom {
	return Atom{Term: Fn(op, left, right)}
}

// FormulaTerms returns the top-level terms of f.
func FormulaTerms(f Formula) []Term {
	switch x := f.(type) {
	case Atom:
		return []Term{x.Term}
	case Equality:
		return []Term{x.Left, x.Right}
	case Neg:
		return FormulaTerms(x.Inner)
	}
	return nil
}

// ContainsTerm reports whether t occurs anywhere in f.
func ContainsTerm(f Formula, t Term) bool {
	for _, top := range FormulaTerms(f) {
		if Contains(top, t) {
			return true
		}
	}
	return false
}

// Subterms returns every term occurring in f, in pre-order.
func Subterms(f Formula) []Term {
	var out []Term
	for _, top := range FormulaTerms(f) {
		walkTerm(top, func(x Term) bool {
			out = append(out, x)
			return true
		})
	}
	return out
}
