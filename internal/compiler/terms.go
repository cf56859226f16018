package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/objgen/internal/ir"
)

// compileTerm parses a term. Scalars are shorthand: a string is a variable,
// an int or bool is a constant, null is the Null constant. Structs carry
// one tag:
//
//	{var: "x"}  {ts: 3}  {str: "text"}  {obj: "root"}  {fn: "pred", args: ["x"]}
func compileTerm(m *ir.Model, v cue.Value, field string) (ir.Term, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.V(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.C(ir.Int(n)), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.C(ir.Bool(b)), nil
	case cue.NullKind:
		return ir.C(ir.Null{}), nil
	case cue.StructKind:
		return compileTaggedTerm(m, v, field)
	case cue.FloatKind:
		return nil, &CompileError{Field: field, Message: "floats are not supported in terms", Pos: v.Pos()}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported term kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func compileTaggedTerm(m *ir.Model, v cue.Value, field string) (ir.Term, error) {
	if tv := v.LookupPath(cue.ParsePath("var")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.V(s), nil
	}
	if tv := v.LookupPath(cue.ParsePath("ts")); tv.Exists() {
		n, err := tv.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.C(ir.Timestep(n)), nil
	}
	if tv := v.LookupPath(cue.ParsePath("str")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.C(ir.String(s)), nil
	}
	if tv := v.LookupPath(cue.ParsePath("obj")); tv.Exists() {
		name, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj, ok := m.Object(name)
		if !ok {
			return nil, &CompileError{Field: field, Message: fmt.Sprintf("unknown guaranteed object %q", name), Pos: tv.Pos()}
		}
		return ir.C(obj), nil
	}
	if tv := v.LookupPath(cue.ParsePath("fn")); tv.Exists() {
		name, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		args, err := compileTermList(m, v.LookupPath(cue.ParsePath("args")), field+".args")
		if err != nil {
			return nil, err
		}
		return ir.Fn(name, args...), nil
	}
	return nil, &CompileError{
		Field:   field,
		Message: "term must be one of var, ts, str, obj, fn",
		Pos:     v.Pos(),
	}
}

func compileTermList(m *ir.Model, v cue.Value, field string) ([]ir.Term, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Term
	for i := 0; iter.Next(); i++ {
		t, err := compileTerm(m, iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

var comparisonTags = []struct {
	tag string
	op  string
}{
	{"lt", ir.FuncLT},
	{"le", ir.FuncLE},
	{"gt", ir.FuncGT},
	{"ge", ir.FuncGE},
}

// compileFormula parses a literal constraint:
//
//	{eq: [a, b]}  {not: f}  {lt: [a, b]} {le: ...} {gt: ...} {ge: ...}  {atom: t}
func compileFormula(m *ir.Model, v cue.Value, field string) (ir.Formula, error) {
	if fv := v.LookupPath(cue.ParsePath("eq")); fv.Exists() {
		pair, err := compileTermPair(m, fv, field+".eq")
		if err != nil {
			return nil, err
		}
		return ir.Eq(pair[0], pair[1]), nil
	}
	if fv := v.LookupPath(cue.ParsePath("not")); fv.Exists() {
		inner, err := compileFormula(m, fv, field+".not")
		if err != nil {
			return nil, err
		}
		return ir.Not(inner), nil
	}
	for _, c := range comparisonTags {
		if fv := v.LookupPath(cue.ParsePath(c.tag)); fv.Exists() {
			pair, err := compileTermPair(m, fv, field+"."+c.tag)
			if err != nil {
				return nil, err
			}
			return ir.Cmp(c.op, pair[0], pair[1]), nil
		}
	}
	if fv := v.LookupPath(cue.ParsePath("atom")); fv.Exists() {
		t, err := compileTerm(m, fv, field+".atom")
		if err != nil {
			return nil, err
		}
		return ir.Atom{Term: t}, nil
	}
	return nil, &CompileError{
		Field:   field,
		Message: "formula must be one of eq, not, lt, le, gt, ge, atom",
		Pos:     v.Pos(),
	}
}

func compileTermPair(m *ir.Model, v cue.Value, field string) ([2]ir.Term, error) {
	terms, err := compileTermList(m, v, field)
	if err != nil {
		return [2]ir.Term{}, err
	}
	if len(terms) != 2 {
		return [2]ir.Term{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected 2 operands, got %d", len(terms)),
			Pos:     v.Pos(),
		}
	}
	return [2]ir.Term{terms[0], terms[1]}, nil
}
