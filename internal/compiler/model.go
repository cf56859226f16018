package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/objgen/internal/ir"
)

// CompileModel parses a CUE value into a Model.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the model root:
//
//	types: Node: guaranteed: ["root"]
//	genfuncs: pred: {of: "Node", ret: "Node"}
//	rules: Succ: {type: "Node", genfuncs: ["pred"]}
//	functions: limit: {ret: "Integer"}
//	queries: small: {type: "Integer", var: "x", where: [{lt: ["x", "limit"]}]}
//
// Sections are applied in dependency order regardless of their order in the
// source. Declaration order within a section is preserved.
func CompileModel(v cue.Value) (*ir.Model, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	m := ir.NewModel()
	steps := []struct {
		section string
		apply   func(*ir.Model, string, cue.Value) error
	}{
		{"types", compileType},
		{"genfuncs", compileGenFunc},
		{"rules", compileRule},
		{"functions", compileFunction},
		{"queries", compileQuery},
	}
	for _, step := range steps {
		sectionVal := v.LookupPath(cue.ParsePath(step.section))
		if !sectionVal.Exists() {
			continue
		}
		iter, err := sectionVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			if err := step.apply(m, iter.Label(), iter.Value()); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func compileType(m *ir.Model, name string, v cue.Value) error {
	guaranteed, err := stringList(v, "guaranteed")
	if err != nil {
		return err
	}
	return declare(m.AddType(name, guaranteed...), "types."+name, v)
}

func compileGenFunc(m *ir.Model, name string, v cue.Value) error {
	of, err := requiredString(v, "of", "genfuncs."+name)
	if err != nil {
		return err
	}
	ret, err := requiredString(v, "ret", "genfuncs."+name)
	if err != nil {
		return err
	}
	return declare(m.AddGenFunc(name, of, ret), "genfuncs."+name, v)
}

func compileRule(m *ir.Model, name string, v cue.Value) error {
	typ, err := requiredString(v, "type", "rules."+name)
	if err != nil {
		return err
	}
	genFuncs, err := stringList(v, "genfuncs")
	if err != nil {
		return err
	}
	return declare(m.AddRule(name, typ, genFuncs...), "rules."+name, v)
}

func compileFunction(m *ir.Model, name string, v cue.Value) error {
	field := "functions." + name
	ret, err := requiredString(v, "ret", field)
	if err != nil {
		return err
	}
	args, err := stringList(v, "args")
	if err != nil {
		return err
	}

	var value ir.Value
	if valueVal := v.LookupPath(cue.ParsePath("value")); valueVal.Exists() {
		t, err := compileTerm(m, valueVal, field+".value")
		if err != nil {
			return err
		}
		c, ok := t.(ir.Const)
		if !ok {
			return &CompileError{Field: field + ".value", Message: "non-random value must be a constant", Pos: valueVal.Pos()}
		}
		value = c.Value
	}
	return declare(m.AddFunction(name, ret, value, args...), field, v)
}

func compileQuery(m *ir.Model, name string, v cue.Value) error {
	field := "queries." + name
	typ, err := requiredString(v, "type", field)
	if err != nil {
		return err
	}
	q := ir.Query{Name: name, Type: typ, Var: "x"}

	if varVal := v.LookupPath(cue.ParsePath("var")); varVal.Exists() {
		if q.Var, err = varVal.String(); err != nil {
			return formatCUEError(err)
		}
	}
	if q.Free, err = stringList(v, "free"); err != nil {
		return err
	}

	whereVal := v.LookupPath(cue.ParsePath("where"))
	if whereVal.Exists() {
		iter, err := whereVal.List()
		if err != nil {
			return formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			f, err := compileFormula(m, iter.Value(), fmt.Sprintf("%s.where[%d]", field, i))
			if err != nil {
				return err
			}
			q.Where = append(q.Where, f)
		}
	}
	return declare(m.AddQuery(q), field, v)
}

// declare wraps a model declaration error with the CUE position.
func declare(err error, field string, v cue.Value) error {
	if err == nil {
		return nil
	}
	return &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
}

func requiredString(v cue.Value, name, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value, name string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(name))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
