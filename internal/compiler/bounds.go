package compiler

import (
	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
)

// extractBound reads an integer bound on subject from f.
//
// f must be a comparison atom or the negation of one, with subject as one
// operand and a term free of free variables as the other. The result is
// normalized to an inclusive bound: negation flips both the direction and
// the strictness, operand order flips the direction, and strict bounds
// become inclusive through an offset of +1 (lower) or -1 (upper).
func extractBound(f ir.Formula, subject ir.Term, free map[string]bool) (graph.Bound, bool, bool) {
	positive := true
	atom, ok := f.(ir.Atom)
	if !ok {
		neg, isNeg := f.(ir.Neg)
		if !isNeg {
			return graph.Bound{}, false, false
		}
		if atom, ok = neg.Inner.(ir.Atom); !ok {
			return graph.Bound{}, false, false
		}
		positive = false
	}

	app, ok := atom.Term.(ir.FuncApp)
	if !ok || !ir.IsComparison(app.Func) || len(app.Args) != 2 {
		return graph.Bound{}, false, false
	}

	var other ir.Term
	subjectFirst := true
	switch {
	case ir.TermsEqual(app.Args[0], subject):
		other = app.Args[1]
	case ir.TermsEqual(app.Args[1], subject):
		other = app.Args[0]
		subjectFirst = false
	default:
		return graph.Bound{}, false, false
	}
	if ir.MentionsAny(other, free) {
		return graph.Bound{}, false, false
	}

	strict := app.Func == ir.FuncLT || app.Func == ir.FuncGT
	upper := app.Func == ir.FuncLT || app.Func == ir.FuncLE
	if !positive {
		upper = !upper
		strict = !strict
	}
	if !subjectFirst {
		upper = !upper
	}

	b := graph.Bound{Term: other}
	if strict {
		if upper {
			b.Offset = -1
		} else {
			b.Offset = 1
		}
	}
	return b, upper, true
}
