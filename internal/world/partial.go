package world

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/objgen/internal/ir"
)

// ErrUnknownObject is returned when a name is neither a guaranteed object
// nor an object the world created.
var ErrUnknownObject = errors.New("unknown object")

// AppRecord is one rule application known to a world.
type AppRecord struct {
	App          ir.RuleApp
	Objects      []ir.Object
	Undetermined bool
}

// ValueRecord is the value of one random function application.
type ValueRecord struct {
	Func  string
	Args  []ir.Value
	Value ir.Value
}

// Partial is an in-memory partial world over a model.
//
// It records function values, the satisfiers of rule applications, and
// the application that generated each world object. Everything it does
// not record is unknown, except that a Closed world answers Unsatisfied for
// rule applications it has never heard of.
//
// Insertion order is preserved everywhere, so enumeration against a
// Partial is deterministic. A Partial is not safe for concurrent mutation;
// contexts taken from it may be shared once it is no longer modified.
type Partial struct {
	model  *ir.Model
	Closed bool

	objects     map[string]ir.Object
	objectOrder []string
	origins     map[string]string // object name -> app key

	apps     map[string]*AppRecord
	appOrder []string

	values     map[string]*ValueRecord
	valueOrder []string

	identifiers []string
}

// NewPartial returns an empty, open world over m.
func NewPartial(m *ir.Model) *Partial {
	return &Partial{
		model:   m,
		objects: make(map[string]ir.Object),
		origins: make(map[string]string),
		apps:    make(map[string]*AppRecord),
		values:  make(map[string]*ValueRecord),
	}
}

// Model returns the model the world is built over.
func (w *Partial) Model() *ir.Model { return w.model }

// NewObject declares a world object of a user type.
func (w *Partial) NewObject(typ, name string) (ir.Object, error) {
	t, ok := w.model.Type(typ)
	if !ok {
		return ir.Object{}, fmt.Errorf("object %q: %w %q", name, ir.ErrUnknownType, typ)
	}
	if t.Builtin {
		return ir.Object{}, fmt.Errorf("object %q: built-in type %s has no objects", name, typ)
	}
	if _, ok := w.Lookup(name); ok {
		return ir.Object{}, fmt.Errorf("object %q already exists", name)
	}
	obj := ir.Object{Type: typ, Name: name}
	w.objects[name] = obj
	w.objectOrder = append(w.objectOrder, name)
	return obj, nil
}

// Lookup finds a guaranteed or world object by name.
func (w *Partial) Lookup(name string) (ir.Object, bool) {
	if o, ok := w.model.Object(name); ok {
		return o, true
	}
	o, ok := w.objects[name]
	return o, ok
}

// Objects returns the world objects in creation order. Guaranteed objects
// are not included.
func (w *Partial) Objects() []ir.Object {
	out := make([]ir.Object, len(w.objectOrder))
	for i, n := range w.objectOrder {
		out[i] = w.objects[n]
	}
	return out
}

// SetSatisfiers records the satisfiers of app. Each object must be a world
// object of the rule's type that no other application generated.
func (w *Partial) SetSatisfiers(app ir.RuleApp, objs ...ir.Object) error {
	r, err := w.checkApp(app)
	if err != nil {
		return err
	}
	key := appKey(app)
	seen := make(map[string]bool, len(objs))
	for _, o := range objs {
		if seen[o.Name] {
			return fmt.Errorf("%s: object %s listed twice", app, o.Name)
		}
		seen[o.Name] = true
		if o.Type != r.Type {
			return fmt.Errorf("%s: object %s has type %s, want %s", app, o.Name, o.Type, r.Type)
		}
		if _, ok := w.objects[o.Name]; !ok {
			return fmt.Errorf("%s: %w %q", app, ErrUnknownObject, o.Name)
		}
		if prev, ok := w.origins[o.Name]; ok {
			return fmt.Errorf("%s: object %s already generated by %s", app, o.Name, w.apps[prev].App)
		}
	}
	for _, o := range objs {
		w.origins[o.Name] = key
	}
	rec := w.record(app, key)
	rec.Objects = append(rec.Objects, objs...)
	rec.Undetermined = false
	return nil
}

// Generate creates n fresh objects as satisfiers of app and returns them.
// Objects are named after the application: Succ(root)#1, Succ(root)#2, ...
func (w *Partial) Generate(app ir.RuleApp, n int) ([]ir.Object, error) {
	r, err := w.checkApp(app)
	if err != nil {
		return nil, err
	}
	base := app.String()
	existing := 0
	if rec, ok := w.apps[appKey(app)]; ok {
		existing = len(rec.Objects)
	}
	objs := make([]ir.Object, 0, n)
	for i := 1; i <= n; i++ {
		o, err := w.NewObject(r.Type, fmt.Sprintf("%s#%d", base, existing+i))
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
	if err := w.SetSatisfiers(app, objs...); err != nil {
		return nil, err
	}
	return objs, nil
}

// SetUndetermined marks app as known to exist but with unknown satisfiers.
func (w *Partial) SetUndetermined(app ir.RuleApp) error {
	if _, err := w.checkApp(app); err != nil {
		return err
	}
	key := appKey(app)
	if rec, ok := w.apps[key]; ok && len(rec.Objects) > 0 {
		return fmt.Errorf("%s: already has %d satisfiers", app, len(rec.Objects))
	}
	w.record(app, key).Undetermined = true
	return nil
}

// Apps returns the known rule applications in insertion order.
func (w *Partial) Apps() []AppRecord {
	out := make([]AppRecord, len(w.appOrder))
	for i, k := range w.appOrder {
		rec := w.apps[k]
		out[i] = AppRecord{
			App:          rec.App,
			Objects:      append([]ir.Object(nil), rec.Objects...),
			Undetermined: rec.Undetermined,
		}
	}
	return out
}

// SetValue records the value of a random function application.
func (w *Partial) SetValue(fn string, args []ir.Value, v ir.Value) error {
	f, ok := w.model.Function(fn)
	if !ok {
		return fmt.Errorf("unknown function %q", fn)
	}
	if f.NonRandom() {
		return fmt.Errorf("function %q is non-random", fn)
	}
	if len(args) != len(f.Args) {
		return fmt.Errorf("%s takes %d argument(s), got %d", fn, len(f.Args), len(args))
	}
	if v == nil {
		return fmt.Errorf("%s: value is required", ir.FormatApp(fn, args))
	}
	key := funcKey(fn, args)
	if rec, ok := w.values[key]; ok {
		rec.Value = v
		return nil
	}
	w.values[key] = &ValueRecord{Func: fn, Args: append([]ir.Value(nil), args...), Value: v}
	w.valueOrder = append(w.valueOrder, key)
	return nil
}

// Values returns the recorded function values in insertion order.
func (w *Partial) Values() []ValueRecord {
	out := make([]ValueRecord, len(w.valueOrder))
	for i, k := range w.valueOrder {
		out[i] = *w.values[k]
	}
	return out
}

// SetIdentifiers marks the types whose objects are named by identifiers.
func (w *Partial) SetIdentifiers(types ...string) {
	for _, t := range types {
		if !slices.Contains(w.identifiers, t) {
			w.identifiers = append(w.identifiers, t)
		}
	}
}

// Identifiers returns the identifier-typed types.
func (w *Partial) Identifiers() []string {
	return append([]string(nil), w.identifiers...)
}

// Context binds variables and returns the world as a Context. The
// assignment is copied.
func (w *Partial) Context(assignment map[string]ir.Value) Context {
	a := make(map[string]ir.Value, len(assignment))
	for k, v := range assignment {
		a[k] = v
	}
	return &partialContext{world: w, assignment: a}
}

func (w *Partial) checkApp(app ir.RuleApp) (*ir.Rule, error) {
	r, ok := w.model.Rule(app.Rule)
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", app.Rule)
	}
	if len(app.Args) != len(r.GenFuncs) {
		return nil, fmt.Errorf("%s: rule takes %d argument(s), got %d", app, len(r.GenFuncs), len(app.Args))
	}
	return r, nil
}

func (w *Partial) record(app ir.RuleApp, key string) *AppRecord {
	if rec, ok := w.apps[key]; ok {
		return rec
	}
	rec := &AppRecord{App: ir.RuleApp{Rule: app.Rule, Args: append([]ir.Value(nil), app.Args...)}}
	w.apps[key] = rec
	w.appOrder = append(w.appOrder, key)
	return rec
}

func appKey(app ir.RuleApp) string {
	return funcKey(app.Rule, app.Args)
}

func funcKey(name string, args []ir.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ir.Key(a)
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}
