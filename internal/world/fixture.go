package world

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/objgen/internal/ir"
)

// Fixture is the file form of a partial world.
//
//	closed: true
//	identifiers: [Node]
//	values:
//	  - {fn: limit, value: 3}
//	apps:
//	  - {rule: Succ, args: [root], objects: [n1]}
//	  - {rule: Succ, args: [n1], count: 2}
//	  - {rule: Succ, args: [n2], undetermined: true}
//
// Values in args and value are written as: an integer, a boolean, the
// name of an object, null (or omitted) for Null, {ts: n} for a timestep,
// {str: s} for a string.
type Fixture struct {
	Closed      bool           `yaml:"closed" toml:"closed" json:"closed"`
	Identifiers []string       `yaml:"identifiers,omitempty" toml:"identifiers,omitempty" json:"identifiers,omitempty"`
	Values      []FixtureValue `yaml:"values,omitempty" toml:"values,omitempty" json:"values,omitempty"`
	Apps        []FixtureApp   `yaml:"apps,omitempty" toml:"apps,omitempty" json:"apps,omitempty"`
}

// FixtureValue sets one random function application.
type FixtureValue struct {
	Fn    string `yaml:"fn" toml:"fn" json:"fn"`
	Args  []any  `yaml:"args,omitempty" toml:"args,omitempty" json:"args,omitempty"`
	Value any    `yaml:"value" toml:"value" json:"value"`
}

// FixtureApp describes one rule application. Objects names its satisfiers
// explicitly; Count generates that many more with derived names.
type FixtureApp struct {
	Rule         string   `yaml:"rule" toml:"rule" json:"rule"`
	Args         []any    `yaml:"args,omitempty" toml:"args,omitempty" json:"args,omitempty"`
	Objects      []string `yaml:"objects,omitempty" toml:"objects,omitempty" json:"objects,omitempty"`
	Count        int      `yaml:"count,omitempty" toml:"count,omitempty" json:"count,omitempty"`
	Undetermined bool     `yaml:"undetermined,omitempty" toml:"undetermined,omitempty" json:"undetermined,omitempty"`
}

// LoadFixture reads a fixture, choosing the format by file extension.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	f, err := ParseFixture(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes a fixture. format is a file extension: .yaml, .yml
// or .toml. Unknown fields are errors in both formats.
func ParseFixture(data []byte, format string) (*Fixture, error) {
	var f Fixture
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", format)
	}
	return &f, nil
}

// Build creates the partial world the fixture describes. Explicitly named
// objects are declared first, so any application may refer to them.
func (f *Fixture) Build(m *ir.Model) (*Partial, error) {
	w := NewPartial(m)
	w.Closed = f.Closed
	for _, t := range f.Identifiers {
		if _, ok := m.Type(t); !ok {
			return nil, fmt.Errorf("identifiers: %w %q", ir.ErrUnknownType, t)
		}
	}
	w.SetIdentifiers(f.Identifiers...)

	for i, a := range f.Apps {
		r, ok := m.Rule(a.Rule)
		if !ok {
			return nil, fmt.Errorf("apps[%d]: unknown rule %q", i, a.Rule)
		}
		for _, name := range a.Objects {
			if _, err := w.NewObject(r.Type, name); err != nil {
				return nil, fmt.Errorf("apps[%d]: %w", i, err)
			}
		}
	}

	for i, a := range f.Apps {
		if err := f.buildApp(w, a); err != nil {
			return nil, fmt.Errorf("apps[%d]: %w", i, err)
		}
	}

	for i, v := range f.Values {
		args, err := decodeValues(w, v.Args)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		val, err := DecodeValue(w, v.Value)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		if err := w.SetValue(v.Fn, args, val); err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
	}
	return w, nil
}

func (f *Fixture) buildApp(w *Partial, a FixtureApp) error {
	args, err := decodeValues(w, a.Args)
	if err != nil {
		return err
	}
	app := ir.RuleApp{Rule: a.Rule, Args: args}

	if a.Undetermined {
		if len(a.Objects) > 0 || a.Count > 0 {
			return fmt.Errorf("%s: undetermined applications cannot list objects", app)
		}
		return w.SetUndetermined(app)
	}

	objs := make([]ir.Object, len(a.Objects))
	for i, name := range a.Objects {
		objs[i], _ = w.Lookup(name)
	}
	if err := w.SetSatisfiers(app, objs...); err != nil {
		return err
	}
	if a.Count < 0 {
		return fmt.Errorf("%s: negative count %d", app, a.Count)
	}
	if a.Count > 0 {
		if _, err := w.Generate(app, a.Count); err != nil {
			return err
		}
	}
	return nil
}

func decodeValues(w *Partial, raw []any) ([]ir.Value, error) {
	out := make([]ir.Value, len(raw))
	for i, r := range raw {
		v, err := DecodeValue(w, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// DecodeValue converts a decoded YAML or TOML scalar to a value, resolving
// object names against w.
func DecodeValue(w *Partial, raw any) (ir.Value, error) {
	switch x := raw.(type) {
	case nil:
		return ir.Null{}, nil
	case bool:
		return ir.Bool(x), nil
	case int:
		return ir.Int(x), nil
	case int64:
		return ir.Int(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", x)
		}
		return ir.Int(int64(x)), nil
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt64 {
			return nil, fmt.Errorf("non-integer number %v", x)
		}
		return ir.Int(int64(x)), nil
	case string:
		o, ok := w.Lookup(x)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownObject, x)
		}
		return o, nil
	case map[string]any:
		return decodeTagged(x)
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", raw, raw)
}

func decodeTagged(m map[string]any) (ir.Value, error) {
	if len(m) != 1 {
		return nil, fmt.Errorf("tagged value must have exactly one key, got %d", len(m))
	}
	if raw, ok := m["ts"]; ok {
		n, ok := toInt64(raw)
		if !ok {
			return nil, fmt.Errorf("ts: expected integer, got %T", raw)
		}
		return ir.Timestep(n), nil
	}
	if raw, ok := m["str"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("str: expected string, got %T", raw)
		}
		return ir.String(s), nil
	}
	for k := range m {
		return nil, fmt.Errorf("unknown value tag %q", k)
	}
	return nil, errors.New("empty tagged value")
}

func toInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		return int64(x), x <= math.MaxInt64
	}
	return 0, false
}
