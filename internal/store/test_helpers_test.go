package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/world"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func chainModel(t *testing.T) *ir.Model {
	t.Helper()
	m := ir.NewModel()
	require.NoError(t, m.AddType("Node", "root"))
	require.NoError(t, m.AddGenFunc("pred", "Node", "Node"))
	require.NoError(t, m.AddRule("Succ", "Node", "pred"))
	require.NoError(t, m.AddFunction("limit", ir.TypeInteger, nil))
	require.NoError(t, m.AddFunction("weight", ir.TypeInteger, nil, "Node"))
	return m
}

// chainWorld: root -> n1 -> n2, Succ(n2) undetermined, a few values.
func chainWorld(t *testing.T) *world.Partial {
	t.Helper()
	w := world.NewPartial(chainModel(t))
	w.SetIdentifiers("Node")
	root, _ := w.Lookup("root")
	n1, err := w.NewObject("Node", "n1")
	require.NoError(t, err)
	n2, err := w.NewObject("Node", "n2")
	require.NoError(t, err)

	require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "Succ", Args: []ir.Value{root}}, n1))
	require.NoError(t, w.SetSatisfiers(ir.RuleApp{Rule: "Succ", Args: []ir.Value{n1}}, n2))
	require.NoError(t, w.SetUndetermined(ir.RuleApp{Rule: "Succ", Args: []ir.Value{n2}}))
	require.NoError(t, w.SetValue("limit", nil, ir.Int(1<<60)))
	require.NoError(t, w.SetValue("weight", []ir.Value{n1}, ir.Int(-3)))
	require.NoError(t, w.SetValue("weight", []ir.Value{root}, ir.Null{}))
	return w
}
