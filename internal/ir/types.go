package ir

import "slices"

// Built-in type names.
const (
	TypeInteger    = "Integer"
	TypeNaturalNum = "NaturalNum"
	TypeTimestep   = "Timestep"
	TypeBoolean    = "Boolean"
	TypeReal       = "Real"
	TypeString     = "String"
)

// Type is a declared type. Built-in types have no guaranteed objects;
// user types enumerate their guaranteed objects as base cases.
type Type struct {
	Name       string   `json:"name"`
	Builtin    bool     `json:"builtin"`
	Super      string   `json:"super,omitempty"`
	Guaranteed []Object `json:"guaranteed,omitempty"`
}

// Enumerable reports whether the type has a finite, known constant set.
// Boolean and every user type are enumerable; the other built-ins are not.
func (t *Type) Enumerable() bool {
	return !t.Builtin || t.Name == TypeBoolean
}

// Constants returns the enumerable constant set: {false, true} for Boolean,
// the guaranteed objects for user types, nil otherwise.
func (t *Type) Constants() []Value {
	if t.Name == TypeBoolean {
		return []Value{Bool(false), Bool(true)}
	}
	out := make([]Value, len(t.Guaranteed))
	for i, o := range t.Guaranteed {
		out[i] = o
	}
	return out
}

// GenFunc is a generating function. Applied to an object of type Of that a
// rule generated, it returns the argument that generated it, of type Ret.
// Applied to any other object it returns Null.
type GenFunc struct {
	Name string `json:"name"`
	Of   string `json:"of"`
	Ret  string `json:"ret"`
}

// Rule is a generative rule: objects of Type generated from one argument per
// generating function, in order.
type Rule struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	GenFuncs []string `json:"genfuncs"`
}

// CoversGenFuncs reports whether every name in required is one of the
// rule's generating functions.
func (r *Rule) CoversGenFuncs(required []string) bool {
	for _, g := range required {
		if !slices.Contains(r.GenFuncs, g) {
			return false
		}
	}
	return true
}

// Function is an ordinary function. A non-nil Value makes it non-random:
// its application evaluates to Value in every world.
type Function struct {
	Name  string   `json:"name"`
	Args  []string `json:"args,omitempty"`
	Ret   string   `json:"ret"`
	Value Value    `json:"-"`
}

// NonRandom reports whether the function has a fixed value.
func (f *Function) NonRandom() bool {
	return f.Value != nil
}

// Query is a named object-set description: all values of Type bound to Var
// such that every formula in Where holds. Free lists the variables whose
// values are not known at enumeration time; it defaults to [Var].
type Query struct {
	Name  string    `json:"name"`
	Type  string    `json:"type"`
	Var   string    `json:"var"`
	Where []Formula `json:"-"`
	Free  []string  `json:"free"`
}

// RuleApp is the application of a generative rule to argument values.
type RuleApp struct {
	Rule string
	Args []Value
}

// ID returns the content-addressed id of the application.
func (a RuleApp) ID() (string, error) {
	return RuleAppID(a.Rule, a.Args)
}

// String renders the application as Rule(args).
func (a RuleApp) String() string {
	return FormatApp(a.Rule, a.Args)
}
