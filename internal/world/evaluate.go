package world

import (
	"slices"

	"github.com/roach88/objgen/internal/ir"
)

type partialContext struct {
	world      *Partial
	assignment map[string]ir.Value
}

func (c *partialContext) UsesIdentifiers(typ string) bool {
	return slices.Contains(c.world.identifiers, typ)
}

func (c *partialContext) Resolve(app ir.RuleApp) (ObjectSet, Resolution) {
	rec, ok := c.world.apps[appKey(app)]
	switch {
	case !ok && c.world.Closed:
		return ObjectSet{}, Unsatisfied
	case !ok, rec.Undetermined:
		return ObjectSet{}, Undetermined
	}
	return NewObjectSet(rec.Objects...), Resolved
}

// Evaluate follows the usual rules for partial worlds: any function of Null
// is Null, a generating function of an object returns the matching argument
// of the application that generated it (Null for guaranteed objects and
// for objects of other rules), and a random function is known only if the
// world recorded its value.
func (c *partialContext) Evaluate(t ir.Term) (ir.Value, bool) {
	switch x := t.(type) {
	case ir.Var:
		v, ok := c.assignment[x.Name]
		return v, ok
	case ir.Const:
		return x.Value, true
	case ir.FuncApp:
		return c.apply(x)
	}
	return nil, false
}

func (c *partialContext) apply(app ir.FuncApp) (ir.Value, bool) {
	args := make([]ir.Value, len(app.Args))
	for i, a := range app.Args {
		v, ok := c.Evaluate(a)
		if !ok {
			return nil, false
		}
		args[i] = v
	}

	switch app.Func {
	case ir.FuncZero:
		return ir.Int(0), true
	case ir.FuncEpoch:
		return ir.Timestep(0), true
	}
	if slices.ContainsFunc(args, ir.IsNull) {
		return ir.Null{}, true
	}

	m := c.world.model
	switch {
	case ir.IsComparison(app.Func):
		return compare(app.Func, args)
	case app.Func == ir.FuncPlus || app.Func == ir.FuncMinus:
		return arith(app.Func, args)
	case m.IsGenFunc(app.Func):
		return c.genFunc(app.Func, args)
	}

	f, ok := m.Function(app.Func)
	if !ok {
		return nil, false
	}
	if f.NonRandom() {
		return f.Value, true
	}
	rec, ok := c.world.values[funcKey(app.Func, args)]
	if !ok {
		return nil, false
	}
	return rec.Value, true
}

func (c *partialContext) genFunc(name string, args []ir.Value) (ir.Value, bool) {
	if len(args) != 1 {
		return nil, false
	}
	obj, ok := args[0].(ir.Object)
	if !ok {
		return ir.Null{}, true
	}
	key, ok := c.world.origins[obj.Name]
	if !ok {
		return ir.Null{}, true
	}
	rec := c.world.apps[key]
	r, ok := c.world.model.Rule(rec.App.Rule)
	if !ok {
		return nil, false
	}
	i := slices.Index(r.GenFuncs, name)
	if i < 0 {
		return ir.Null{}, true
	}
	return rec.App.Args[i], true
}

// numeric reads an Int or Timestep. timestep reports which it was.
func numeric(v ir.Value) (n int64, timestep bool, ok bool) {
	switch x := v.(type) {
	case ir.Int:
		return int64(x), false, true
	case ir.Timestep:
		return int64(x), true, true
	}
	return 0, false, false
}

func compare(op string, args []ir.Value) (ir.Value, bool) {
	if len(args) != 2 {
		return nil, false
	}
	a, _, ok := numeric(args[0])
	if !ok {
		return nil, false
	}
	b, _, ok := numeric(args[1])
	if !ok {
		return nil, false
	}
	switch op {
	case ir.FuncLT:
		return ir.Bool(a < b), true
	case ir.FuncLE:
		return ir.Bool(a <= b), true
	case ir.FuncGT:
		return ir.Bool(a > b), true
	case ir.FuncGE:
		return ir.Bool(a >= b), true
	}
	return nil, false
}

// arith adds or subtracts. A timestep plus or minus an integer is a
// timestep; the difference of two timesteps is an integer.
func arith(op string, args []ir.Value) (ir.Value, bool) {
	if len(args) != 2 {
		return nil, false
	}
	a, ats, ok := numeric(args[0])
	if !ok {
		return nil, false
	}
	b, bts, ok := numeric(args[1])
	if !ok {
		return nil, false
	}
	if op == ir.FuncMinus {
		if ats && bts {
			return ir.Int(a - b), true
		}
		if ats {
			return ir.Timestep(a - b), true
		}
		if bts {
			return nil, false
		}
		return ir.Int(a - b), true
	}
	if ats && bts {
		return nil, false
	}
	if ats || bts {
		return ir.Timestep(a + b), true
	}
	return ir.Int(a + b), true
}
