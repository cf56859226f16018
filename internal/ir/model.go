package ir

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a name does not resolve to a declared type.
var ErrUnknownType = errors.New("unknown type")

// Model holds the declarations a graph is compiled against: types,
// generating functions, generative rules, ordinary functions and queries.
// Declaration order is preserved for rules, so compilation is deterministic.
//
// A Model is built once and then only read; it is safe to share between
// goroutines after construction.
type Model struct {
	types      map[string]*Type
	typeOrder  []string
	genFuncs   map[string]*GenFunc
	rules      map[string]*Rule
	ruleOrder  []string
	functions  map[string]*Function
	queries    map[string]*Query
	queryOrder []string
	objects    map[string]Object
}

// NewModel returns a model holding only the built-in types.
func NewModel() *Model {
	m := &Model{
		types:     make(map[string]*Type),
		genFuncs:  make(map[string]*GenFunc),
		rules:     make(map[string]*Rule),
		functions: make(map[string]*Function),
		queries:   make(map[string]*Query),
		objects:   make(map[string]Object),
	}
	for _, t := range []*Type{
		{Name: TypeInteger, Builtin: true},
		{Name: TypeNaturalNum, Builtin: true, Super: TypeInteger},
		{Name: TypeTimestep, Builtin: true},
		{Name: TypeBoolean, Builtin: true},
		{Name: TypeReal, Builtin: true},
		{Name: TypeString, Builtin: true},
	} {
		m.types[t.Name] = t
		m.typeOrder = append(m.typeOrder, t.Name)
	}
	return m
}

// AddType declares a user type with its guaranteed objects.
// Guaranteed object names are global across types.
func (m *Model) AddType(name string, guaranteed ...string) error {
	if name == "" {
		return errors.New("type name is required")
	}
	if _, ok := m.types[name]; ok {
		return fmt.Errorf("type %q already declared", name)
	}
	t := &Type{Name: name}
	for _, g := range guaranteed {
		if _, ok := m.objects[g]; ok {
			return fmt.Errorf("type %q: guaranteed object %q already declared", name, g)
		}
		obj := Object{Type: name, Name: g}
		t.Guaranteed = append(t.Guaranteed, obj)
		m.objects[g] = obj
	}
	m.types[name] = t
	m.typeOrder = append(m.typeOrder, name)
	return nil
}

// AddGenFunc declares a generating function from objects of type of to
// their generating argument of type ret.
func (m *Model) AddGenFunc(name, of, ret string) error {
	if _, ok := m.genFuncs[name]; ok {
		return fmt.Errorf("generating function %q already declared", name)
	}
	if _, ok := m.functions[name]; ok {
		return fmt.Errorf("generating function %q collides with function", name)
	}
	t, ok := m.types[of]
	if !ok {
		return fmt.Errorf("generating function %q: %w %q", name, ErrUnknownType, of)
	}
	if t.Builtin {
		return fmt.Errorf("generating function %q: built-in type %q has no generative rules", name, of)
	}
	if _, ok := m.types[ret]; !ok {
		return fmt.Errorf("generating function %q: %w %q", name, ErrUnknownType, ret)
	}
	m.genFuncs[name] = &GenFunc{Name: name, Of: of, Ret: ret}
	return nil
}

// AddRule declares a generative rule for typ. Every generating function must
// be declared with Of == typ and appear at most once.
func (m *Model) AddRule(name, typ string, genFuncs ...string) error {
	if _, ok := m.rules[name]; ok {
		return fmt.Errorf("rule %q already declared", name)
	}
	t, ok := m.types[typ]
	if !ok {
		return fmt.Errorf("rule %q: %w %q", name, ErrUnknownType, typ)
	}
	if t.Builtin {
		return fmt.Errorf("rule %q: built-in type %q cannot have generative rules", name, typ)
	}
	seen := make(map[string]bool, len(genFuncs))
	for _, g := range genFuncs {
		gf, ok := m.genFuncs[g]
		if !ok {
			return fmt.Errorf("rule %q: unknown generating function %q", name, g)
		}
		if gf.Of != typ {
			return fmt.Errorf("rule %q: generating function %q applies to %s, not %s", name, g, gf.Of, typ)
		}
		if seen[g] {
			return fmt.Errorf("rule %q: generating function %q listed twice", name, g)
		}
		seen[g] = true
	}
	m.rules[name] = &Rule{Name: name, Type: typ, GenFuncs: append([]string(nil), genFuncs...)}
	m.ruleOrder = append(m.ruleOrder, name)
	return nil
}

// AddFunction declares an ordinary function. A non-nil value makes it
// non-random.
func (m *Model) AddFunction(name, ret string, value Value, args ...string) error {
	if _, ok := m.functions[name]; ok {
		return fmt.Errorf("function %q already declared", name)
	}
	if _, ok := m.genFuncs[name]; ok {
		return fmt.Errorf("function %q collides with generating function", name)
	}
	if IsBuiltinFunc(name) {
		return fmt.Errorf("function %q shadows a built-in", name)
	}
	if _, ok := m.types[ret]; !ok {
		return fmt.Errorf("function %q: %w %q", name, ErrUnknownType, ret)
	}
	for _, a := range args {
		if _, ok := m.types[a]; !ok {
			return fmt.Errorf("function %q: %w %q", name, ErrUnknownType, a)
		}
	}
	m.functions[name] = &Function{Name: name, Args: args, Ret: ret, Value: value}
	return nil
}

// AddQuery registers a query. Var defaults to "x" and Free to [Var].
func (m *Model) AddQuery(q Query) error {
	if q.Var == "" {
		q.Var = "x"
	}
	if _, ok := m.queries[q.Name]; ok {
		return fmt.Errorf("query %q already declared", q.Name)
	}
	if _, ok := m.types[q.Type]; !ok {
		return fmt.Errorf("query %q: %w %q", q.Name, ErrUnknownType, q.Type)
	}
	if len(q.Free) == 0 {
		q.Free = []string{q.Var}
	}
	m.queries[q.Name] = &q
	m.queryOrder = append(m.queryOrder, q.Name)
	return nil
}

// Type returns the named type.
func (m *Model) Type(name string) (*Type, bool) {
	t, ok := m.types[name]
	return t, ok
}

// Types returns all types in declaration order, built-ins first.
func (m *Model) Types() []*Type {
	out := make([]*Type, len(m.typeOrder))
	for i, n := range m.typeOrder {
		out[i] = m.types[n]
	}
	return out
}

// IsSubtypeOf reports whether typ is sup or a (transitive) subtype of it.
func (m *Model) IsSubtypeOf(typ, sup string) bool {
	for name := typ; name != ""; {
		if name == sup {
			return true
		}
		t, ok := m.types[name]
		if !ok {
			return false
		}
		name = t.Super
	}
	return false
}

// GenFunc returns the named generating function.
func (m *Model) GenFunc(name string) (*GenFunc, bool) {
	g, ok := m.genFuncs[name]
	return g, ok
}

// IsGenFunc reports whether name is a generating function.
func (m *Model) IsGenFunc(name string) bool {
	_, ok := m.genFuncs[name]
	return ok
}

// Rules returns every rule in declaration order.
func (m *Model) Rules() []*Rule {
	out := make([]*Rule, len(m.ruleOrder))
	for i, n := range m.ruleOrder {
		out[i] = m.rules[n]
	}
	return out
}

// Rule returns the named rule.
func (m *Model) Rule(name string) (*Rule, bool) {
	r, ok := m.rules[name]
	return r, ok
}

// RulesFor returns the rules generating objects of typ, in declaration order.
func (m *Model) RulesFor(typ string) []*Rule {
	var out []*Rule
	for _, n := range m.ruleOrder {
		if r := m.rules[n]; r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

// Function returns the named ordinary function.
func (m *Model) Function(name string) (*Function, bool) {
	f, ok := m.functions[name]
	return f, ok
}

// Object returns the guaranteed object with the given name.
func (m *Model) Object(name string) (Object, bool) {
	o, ok := m.objects[name]
	return o, ok
}

// Query returns the named query.
func (m *Model) Query(name string) (*Query, bool) {
	q, ok := m.queries[name]
	return q, ok
}

// Queries returns all queries in declaration order.
func (m *Model) Queries() []*Query {
	out := make([]*Query, len(m.queryOrder))
	for i, n := range m.queryOrder {
		out[i] = m.queries[n]
	}
	return out
}

// ConstantValue returns the value t has in every world, if it has one:
// constants, non-random functions of no arguments and the zero/epoch
// built-ins.
func (m *Model) ConstantValue(t Term) (Value, bool) {
	switch term := t.(type) {
	case Const:
		return term.Value, true
	case FuncApp:
		if len(term.Args) != 0 {
			return nil, false
		}
		switch term.Func {
		case FuncZero:
			return Int(0), true
		case FuncEpoch:
			return Timestep(0), true
		}
		if f, ok := m.functions[term.Func]; ok && f.NonRandom() {
			return f.Value, true
		}
	}
	return nil, false
}
