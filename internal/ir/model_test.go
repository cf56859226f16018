package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel()
	require.NoError(t, m.AddType("Node", "root"))
	require.NoError(t, m.AddGenFunc("pred", "Node", "Node"))
	require.NoError(t, m.AddRule("Succ", "Node", "pred"))
	require.NoError(t, m.AddFunction("limit", TypeInteger, nil))
	require.NoError(t, m.AddFunction("base", TypeInteger, Int(3)))
	return m
}

func TestNewModelBuiltins(t *testing.T) {
	m := NewModel()
	for _, name := range []string{TypeInteger, TypeNaturalNum, TypeTimestep, TypeBoolean, TypeReal, TypeString} {
		typ, ok := m.Type(name)
		require.True(t, ok, name)
		assert.True(t, typ.Builtin)
	}
	assert.True(t, m.IsSubtypeOf(TypeNaturalNum, TypeInteger))
	assert.False(t, m.IsSubtypeOf(TypeTimestep, TypeInteger))
	assert.False(t, m.IsSubtypeOf("Missing", TypeInteger))
}

func TestTypeEnumerable(t *testing.T) {
	m := chainModel(t)

	boolean, _ := m.Type(TypeBoolean)
	assert.True(t, boolean.Enumerable())
	assert.Equal(t, []Value{Bool(false), Bool(true)}, boolean.Constants())

	real, _ := m.Type(TypeReal)
	assert.False(t, real.Enumerable())

	node, _ := m.Type("Node")
	assert.True(t, node.Enumerable())
	assert.Equal(t, []Value{Object{Type: "Node", Name: "root"}}, node.Constants())
}

func TestModelLookups(t *testing.T) {
	m := chainModel(t)

	obj, ok := m.Object("root")
	require.True(t, ok)
	assert.Equal(t, "Node", obj.Type)

	assert.True(t, m.IsGenFunc("pred"))
	assert.False(t, m.IsGenFunc("limit"))

	rules := m.RulesFor("Node")
	require.Len(t, rules, 1)
	assert.Equal(t, "Succ", rules[0].Name)
	assert.True(t, rules[0].CoversGenFuncs([]string{"pred"}))
	assert.True(t, rules[0].CoversGenFuncs(nil))
	assert.False(t, rules[0].CoversGenFuncs([]string{"other"}))
}

func TestModelRejectsBadDeclarations(t *testing.T) {
	m := chainModel(t)

	tests := []struct {
		name string
		err  error
	}{
		{"duplicate type", m.AddType("Node")},
		{"duplicate guaranteed", m.AddType("Other", "root")},
		{"genfunc on builtin", m.AddGenFunc("g", TypeInteger, "Node")},
		{"genfunc unknown ret", m.AddGenFunc("g", "Node", "Missing")},
		{"rule on builtin", m.AddRule("R", TypeInteger)},
		{"rule unknown genfunc", m.AddRule("R", "Node", "nope")},
		{"rule genfunc twice", m.AddRule("R", "Node", "pred", "pred")},
		{"function shadows builtin", m.AddFunction("+", TypeInteger, nil)},
		{"function collides", m.AddFunction("pred", TypeInteger, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.err)
		})
	}

	err := m.AddRule("R", "Missing")
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestRuleGenFuncMustApplyToRuleType(t *testing.T) {
	m := chainModel(t)
	require.NoError(t, m.AddType("Blip"))
	require.NoError(t, m.AddGenFunc("source", "Blip", "Node"))

	err := m.AddRule("Bad", "Node", "source")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applies to Blip")
}

func TestAddQueryDefaultsFree(t *testing.T) {
	m := chainModel(t)
	require.NoError(t, m.AddQuery(Query{Name: "q", Type: "Node", Var: "x"}))

	q, ok := m.Query("q")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, q.Free)
	assert.Len(t, m.Queries(), 1)

	assert.ErrorIs(t, m.AddQuery(Query{Name: "bad", Type: "Missing", Var: "x"}), ErrUnknownType)
}

func TestConstantValue(t *testing.T) {
	m := chainModel(t)

	tests := []struct {
		name string
		term Term
		want Value
		ok   bool
	}{
		{"const", C(Int(5)), Int(5), true},
		{"zero", Fn(FuncZero), Int(0), true},
		{"epoch", Fn(FuncEpoch), Timestep(0), true},
		{"nonrandom", Fn("base"), Int(3), true},
		{"random", Fn("limit"), nil, false},
		{"var", V("x"), nil, false},
		{"applied", Fn("base", C(Int(1))), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.ConstantValue(tt.term)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
