package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/objgen/internal/ir"
)

func chainModel(t *testing.T) *ir.Model {
	t.Helper()
	m := ir.NewModel()
	require.NoError(t, m.AddType("Node", "root"))
	require.NoError(t, m.AddGenFunc("pred", "Node", "Node"))
	require.NoError(t, m.AddRule("Succ", "Node", "pred"))
	require.NoError(t, m.AddFunction("limit", ir.TypeInteger, nil))
	require.NoError(t, m.AddFunction("weight", ir.TypeInteger, nil, "Node"))
	require.NoError(t, m.AddFunction("base", ir.TypeInteger, ir.Int(3)))
	return m
}

func root(t *testing.T, w *Partial) ir.Object {
	t.Helper()
	o, ok := w.Lookup("root")
	require.True(t, ok)
	return o
}

func succ(args ...ir.Value) ir.RuleApp {
	return ir.RuleApp{Rule: "Succ", Args: args}
}
