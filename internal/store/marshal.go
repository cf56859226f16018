package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/objgen/internal/ir"
)

// marshalValue converts a value to canonical JSON TEXT for storage.
func marshalValue(v ir.Value) (string, error) {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// marshalArgs converts an argument list to a canonical JSON array.
func marshalArgs(args []ir.Value) (string, error) {
	if args == nil {
		args = []ir.Value{}
	}
	data, err := ir.MarshalValues(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// marshalNames stores object or type names as a canonical JSON array.
func marshalNames(names []string) (string, error) {
	arr := make([]any, len(names))
	for i, n := range names {
		arr[i] = n
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses canonical JSON TEXT. Large integers survive: the
// decoder reads numbers as json.Number.
func unmarshalValue(data string) (ir.Value, error) {
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

func unmarshalArgs(data string) ([]ir.Value, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	vals, err := ir.UnmarshalValues([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return vals, nil
}

func unmarshalNames(data string) ([]string, error) {
	var names []string
	if data == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	return names, nil
}
