package compiler

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
)

// Compile builds the object-generation graph for
//
//	{subject : typ | constraints}
//
// freeVars names the variables whose values are unknown when the graph is
// enumerated; the subject is always free. Terms mentioning a free variable
// never become literal nodes or bounds.
//
// Compilation is a structural over-approximation: constraints are used only
// to pick literal values, integer bounds, and which generative rules can
// produce a satisfier. Callers must still check every enumerated value
// against the full constraint list.
//
// The result always has a target. When the constraints force the empty set
// the target is a union node with no parents.
func Compile(m *ir.Model, typ string, subject ir.Var, constraints []ir.Formula, freeVars []string) (*graph.Graph, error) {
	c := newGraphCompiler(m, subject, freeVars)
	target, err := c.typeNode(typ, subject, constraints)
	if err != nil {
		return nil, err
	}
	g := c.b.Build(target, typ)
	slog.Debug("compiled object generation graph",
		"type", typ,
		"subject", subject.Name,
		"constraints", len(constraints),
		"nodes", g.Len(),
		"created", c.b.Len(),
		"intern_hits", c.hits,
	)
	return g, nil
}

// CompileType builds the graph for every value of typ.
func CompileType(m *ir.Model, typ string) (*graph.Graph, error) {
	return Compile(m, typ, ir.V("_"), nil, nil)
}

// CompileQuery builds the graph for a declared query.
func CompileQuery(m *ir.Model, q *ir.Query) (*graph.Graph, error) {
	return Compile(m, q.Type, ir.V(q.Var), q.Where, q.Free)
}

type graphCompiler struct {
	model *ir.Model
	free  map[string]bool
	b     *graph.Builder
	hits  int
}

func newGraphCompiler(m *ir.Model, subject ir.Var, freeVars []string) *graphCompiler {
	free := map[string]bool{subject.Name: true}
	for _, v := range freeVars {
		free[v] = true
	}
	return &graphCompiler{model: m, free: free, b: graph.NewBuilder()}
}

// typeNode compiles {subject : typ | cons}. It returns graph.NoNode when the
// constraints force the empty set.
func (c *graphCompiler) typeNode(typ string, subject ir.Term, cons []ir.Formula) (graph.NodeID, error) {
	t, ok := c.model.Type(typ)
	if !ok {
		return graph.NoNode, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("%s %q", ir.ErrUnknownType, typ),
		}
	}

	var relevant []ir.Formula
	for _, f := range cons {
		if !ir.ContainsTerm(f, subject) {
			continue
		}
		if eq, ok := f.(ir.Equality); ok {
			if eq.AssertsNull(subject) {
				return graph.NoNode, nil
			}
			if other, ok := eq.Other(subject); ok && !ir.MentionsAny(other, c.free) {
				return c.b.Literal(typ, other), nil
			}
		}
		relevant = append(relevant, f)
	}

	switch {
	case typ == ir.TypeTimestep || c.model.IsSubtypeOf(typ, ir.TypeInteger):
		return c.integerNode(typ, subject, relevant)
	case t.Builtin:
		return c.enumeratedNode(t), nil
	default:
		return c.userTypeNode(t, subject, relevant)
	}
}

func (c *graphCompiler) integerNode(typ string, subject ir.Term, cons []ir.Formula) (graph.NodeID, error) {
	timestep := typ == ir.TypeTimestep
	var lower, upper []graph.Bound
	for _, f := range cons {
		b, isUpper, ok := extractBound(f, subject, c.free)
		if !ok {
			continue
		}
		if isUpper {
			upper = append(upper, b)
		} else {
			lower = append(lower, b)
		}
	}

	key := graph.InternKey{Type: typ, Kind: graph.KindInteger}
	canonical := len(lower) == 0 && len(upper) == 0
	if canonical {
		if id, ok := c.b.Interned(key); ok {
			c.hits++
			return id, nil
		}
	}

	id := c.b.Integer(typ, timestep)
	if canonical {
		c.b.Intern(key, id)
	}
	switch {
	case timestep:
		lower = append([]graph.Bound{{Term: ir.Fn(ir.FuncEpoch)}}, lower...)
	case c.model.IsSubtypeOf(typ, ir.TypeNaturalNum):
		lower = append([]graph.Bound{{Term: ir.Fn(ir.FuncZero)}}, lower...)
	}
	for _, b := range lower {
		if err := c.b.AddBound(id, b, false); err != nil {
			return graph.NoNode, err
		}
	}
	for _, b := range upper {
		if err := c.b.AddBound(id, b, true); err != nil {
			return graph.NoNode, err
		}
	}
	return id, nil
}

// enumeratedNode returns the interned constant node for a built-in type.
func (c *graphCompiler) enumeratedNode(t *ir.Type) graph.NodeID {
	key := graph.InternKey{Type: t.Name, Kind: graph.KindEnumerated}
	if id, ok := c.b.Interned(key); ok {
		c.hits++
		return id
	}
	id := c.b.Enumerated(t.Name, t.Constants(), t.Enumerable())
	c.b.Intern(key, id)
	return id
}

func (c *graphCompiler) userTypeNode(t *ir.Type, subject ir.Term, cons []ir.Formula) (graph.NodeID, error) {
	var nonNull []string
	var originCons []ir.Formula
	for _, f := range cons {
		applied := c.genFuncsApplied(f, subject)
		if len(applied) == 0 {
			continue
		}
		originCons = append(originCons, f)
		for _, g := range applied {
			if !slices.Contains(nonNull, g) && c.impliesNonNull(f, ir.Fn(g, subject)) {
				nonNull = append(nonNull, g)
			}
		}
	}

	key := graph.InternKey{Type: t.Name, Kind: graph.KindUnion}
	canonical := len(originCons) == 0
	if canonical {
		if id, ok := c.b.Interned(key); ok {
			c.hits++
			return id, nil
		}
	}

	// Interned before the parents are compiled: a recursive rule reaches
	// this same node instead of recursing forever.
	u := c.b.Union(t.Name)
	if canonical {
		c.b.Intern(key, u)
	}

	if len(nonNull) == 0 {
		g := c.b.Enumerated(t.Name, t.Constants(), true)
		if err := c.b.AddParent(u, g); err != nil {
			return graph.NoNode, err
		}
	}

	for _, r := range c.model.RulesFor(t.Name) {
		if !r.CoversGenFuncs(nonNull) {
			continue
		}
		n, err := c.ruleAppNode(r, subject, originCons)
		if err != nil {
			return graph.NoNode, err
		}
		if n == graph.NoNode {
			continue
		}
		if err := c.b.AddParent(u, n); err != nil {
			return graph.NoNode, err
		}
	}
	return u, nil
}

// ruleAppNode compiles the satisfiers of rule r whose i-th generating
// function, applied to subject, satisfies cons. Any empty argument position
// makes the whole rule empty.
func (c *graphCompiler) ruleAppNode(r *ir.Rule, subject ir.Term, cons []ir.Formula) (graph.NodeID, error) {
	parents := make([]graph.NodeID, 0, len(r.GenFuncs))
	for _, name := range r.GenFuncs {
		gf, ok := c.model.GenFunc(name)
		if !ok {
			return graph.NoNode, &CompileError{
				Field:   "rules." + r.Name,
				Message: fmt.Sprintf("unknown generating function %q", name),
			}
		}
		p, err := c.typeNode(gf.Ret, ir.Fn(name, subject), cons)
		if err != nil {
			return graph.NoNode, err
		}
		if p == graph.NoNode {
			return graph.NoNode, nil
		}
		parents = append(parents, p)
	}
	return c.b.RuleApp(r.Type, r.Name, parents), nil
}

// genFuncsApplied returns, in first-occurrence order, the generating
// functions g such that g(subject) occurs in f.
func (c *graphCompiler) genFuncsApplied(f ir.Formula, subject ir.Term) []string {
	var out []string
	for _, t := range ir.Subterms(f) {
		app, ok := t.(ir.FuncApp)
		if !ok || len(app.Args) != 1 || !c.model.IsGenFunc(app.Func) {
			continue
		}
		if ir.TermsEqual(app.Args[0], subject) && !slices.Contains(out, app.Func) {
			out = append(out, app.Func)
		}
	}
	return out
}

// impliesNonNull reports whether f, which mentions t, can only hold when t
// is non-null.
func (c *graphCompiler) impliesNonNull(f ir.Formula, t ir.Term) bool {
	if !ir.ContainsTerm(f, t) {
		return false
	}
	switch x := f.(type) {
	case ir.Atom:
		// Functions of null are null, and null is not true.
		return true
	case ir.Equality:
		return (ir.Contains(x.Left, t) && c.isNonNullTerm(x.Right)) ||
			(ir.Contains(x.Right, t) && c.isNonNullTerm(x.Left))
	case ir.Neg:
		if eq, ok := x.Inner.(ir.Equality); ok {
			return eq.AssertsNull(t)
		}
	}
	return false
}

// isNonNullTerm reports whether t is a variable or a variable-free term with
// a known non-null value.
func (c *graphCompiler) isNonNullTerm(t ir.Term) bool {
	if _, ok := t.(ir.Var); ok {
		return true
	}
	if len(ir.FreeVars(t)) > 0 {
		return false
	}
	v, ok := c.model.ConstantValue(t)
	return ok && !ir.IsNull(v)
}
