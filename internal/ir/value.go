package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface representing world values.
// Only Null, Int, Bool, String, Timestep, Object, and RuleAppRef implement it.
// There are no floats: real-valued types are declared but never enumerated.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null is the distinguished "no object" value. Generating functions applied
// to guaranteed objects, and any function applied to Null, evaluate to Null.
type Null struct{}

func (Null) value() {}

// Int is an integer value. Always int64.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// String is a string value.
type String string

func (String) value() {}

// Timestep is a time index. Timesteps are integers with their own type so
// that the epoch bound and arithmetic stay separate from plain integers.
type Timestep int64

func (Timestep) value() {}

// Object is a named object of a user-defined type. Guaranteed objects are
// declared by the model; every other object is created by a partial world
// as a satisfier of some rule application.
type Object struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (Object) value() {}

// RuleAppRef identifies a rule application. It is yielded instead of
// individual satisfiers when callers ask for rule-application ids.
type RuleAppRef struct {
	ID   string  `json:"id"`
	Rule string  `json:"rule"`
	Args []Value `json:"args"`
}

func (RuleAppRef) value() {}

// IsNull reports whether v is the Null value.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// Key returns a canonical string for v, usable as a map key.
// Two values have the same key iff they are the same value.
func Key(v Value) string {
	b, err := MarshalValue(v)
	if err != nil {
		// Every Value variant is encodable; this only triggers on a nil Value.
		return fmt.Sprintf("!%T", v)
	}
	return string(b)
}

// ValuesEqual reports whether a and b are the same value.
func ValuesEqual(a, b Value) bool {
	return Key(a) == Key(b)
}

// Format renders v for humans: objects by name, timesteps as @n.
func Format(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case Null:
		return "null"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	case String:
		return strconv.Quote(string(val))
	case Timestep:
		return "@" + strconv.FormatInt(int64(val), 10)
	case Object:
		return val.Name
	case RuleAppRef:
		return FormatApp(val.Rule, val.Args)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatApp renders a rule or function application as name(arg, ...).
func FormatApp(name string, args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Format(a)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// encodeValue converts a Value into the generic JSON tree used by
// MarshalCanonical. Scalars that JSON can carry natively stay native;
// everything else is a single-tag object.
func encodeValue(v Value) (any, error) {
	switch val := v.(type) {
	case Null:
		return nil, nil
	case Int:
		return int64(val), nil
	case Bool:
		return bool(val), nil
	case String:
		return map[string]any{"str": string(val)}, nil
	case Timestep:
		return map[string]any{"ts": int64(val)}, nil
	case Object:
		return map[string]any{"obj": val.Name, "type": val.Type}, nil
	case RuleAppRef:
		args, err := encodeValues(val.Args)
		if err != nil {
			return nil, err
		}
		return map[string]any{"app": val.ID, "rule": val.Rule, "args": args}, nil
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

func encodeValues(vals []Value) ([]any, error) {
	out := make([]any, len(vals))
	for i, v := range vals {
		enc, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = enc
	}
	return out, nil
}

// MarshalValue encodes v as canonical JSON.
func MarshalValue(v Value) ([]byte, error) {
	enc, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(enc)
}

// MarshalValues encodes vals as a canonical JSON array.
func MarshalValues(vals []Value) ([]byte, error) {
	enc, err := encodeValues(vals)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(enc)
}

// UnmarshalValue decodes JSON produced by MarshalValue.
// Floats are rejected.
func UnmarshalValue(data []byte) (Value, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return decodeValue(raw)
}

// UnmarshalValues decodes a JSON array produced by MarshalValues.
func UnmarshalValues(data []byte) ([]Value, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON array, got %T", raw)
	}
	return decodeValues(arr)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeValues(arr []any) ([]Value, error) {
	out := make([]Value, len(arr))
	for i, elem := range arr {
		v, err := decodeValue(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func decodeValue(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case json.Number:
		n, err := parseInt(val)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case map[string]any:
		return decodeTagged(val)
	default:
		return nil, fmt.Errorf("unsupported JSON value: %T", raw)
	}
}

func decodeTagged(obj map[string]any) (Value, error) {
	if s, ok := obj["str"].(string); ok && len(obj) == 1 {
		return String(s), nil
	}
	if n, ok := obj["ts"].(json.Number); ok && len(obj) == 1 {
		i, err := parseInt(n)
		if err != nil {
			return nil, err
		}
		return Timestep(i), nil
	}
	if name, ok := obj["obj"].(string); ok {
		typ, _ := obj["type"].(string)
		return Object{Type: typ, Name: name}, nil
	}
	if id, ok := obj["app"].(string); ok {
		rule, _ := obj["rule"].(string)
		rawArgs, _ := obj["args"].([]any)
		args, err := decodeValues(rawArgs)
		if err != nil {
			return nil, fmt.Errorf("args: %w", err)
		}
		return RuleAppRef{ID: id, Rule: rule, Args: args}, nil
	}
	return nil, fmt.Errorf("unrecognized tagged value with keys %v", sortedKeys(obj))
}

func parseInt(n json.Number) (int64, error) {
	s := string(n)
	if strings.ContainsAny(s, ".eE") {
		return 0, fmt.Errorf("floats are not values: %s", s)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("number out of int64 range: %s", s)
	}
	return i, nil
}

// sortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 which produces a different order.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
