package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objgen/internal/ir"
)

const chainYAML = `
closed: true
identifiers: [Node]
values:
  - {fn: limit, value: 3}
  - {fn: weight, args: [n1], value: {ts: 4}}
apps:
  - {rule: Succ, args: [root], objects: [n1]}
  - {rule: Succ, args: [n1], count: 2}
  - {rule: Succ, args: ["Succ(n1)#1"], undetermined: true}
`

const chainTOML = `
closed = true
identifiers = ["Node"]

[[values]]
fn = "limit"
value = 3

[[values]]
fn = "weight"
args = ["n1"]
value = { ts = 4 }

[[apps]]
rule = "Succ"
args = ["root"]
objects = ["n1"]

[[apps]]
rule = "Succ"
args = ["n1"]
count = 2

[[apps]]
rule = "Succ"
args = ["Succ(n1)#1"]
undetermined = true
`

func TestFixtureBuild(t *testing.T) {
	for _, tc := range []struct {
		format string
		src    string
	}{
		{".yaml", chainYAML},
		{".toml", chainTOML},
	} {
		t.Run(tc.format, func(t *testing.T) {
			f, err := ParseFixture([]byte(tc.src), tc.format)
			require.NoError(t, err)

			w, err := f.Build(chainModel(t))
			require.NoError(t, err)
			assert.True(t, w.Closed)
			assert.Equal(t, []string{"Node"}, w.Identifiers())

			var names []string
			for _, o := range w.Objects() {
				names = append(names, o.Name)
			}
			assert.Equal(t, []string{"n1", "Succ(n1)#1", "Succ(n1)#2"}, names)

			apps := w.Apps()
			require.Len(t, apps, 3)
			assert.Equal(t, "Succ(root)", apps[0].App.String())
			assert.Len(t, apps[1].Objects, 2)
			assert.True(t, apps[2].Undetermined)

			ctx := w.Context(nil)
			v, ok := ctx.Evaluate(ir.Fn("limit"))
			require.True(t, ok)
			assert.Equal(t, ir.Int(3), v)

			n1, _ := w.Lookup("n1")
			v, ok = ctx.Evaluate(ir.Fn("weight", ir.C(n1)))
			require.True(t, ok)
			assert.Equal(t, ir.Timestep(4), v)
		})
	}
}

func TestParseFixtureStrict(t *testing.T) {
	_, err := ParseFixture([]byte("closed: true\nextra: 1\n"), ".yaml")
	assert.ErrorContains(t, err, "extra")

	_, err = ParseFixture([]byte("closed = true\nextra = 1\n"), ".toml")
	assert.Error(t, err)

	_, err = ParseFixture([]byte("{}"), ".json")
	assert.ErrorContains(t, err, "unsupported fixture format")

	f, err := ParseFixture(nil, "yml")
	require.NoError(t, err)
	assert.False(t, f.Closed)
}

func TestFixtureBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unknown rule", "apps: [{rule: Nope}]", "unknown rule"},
		{"unknown object arg", "apps: [{rule: Succ, args: [ghost]}]", "unknown object"},
		{"duplicate object", "apps: [{rule: Succ, args: [root], objects: [a]}, {rule: Succ, args: [a], objects: [a]}]", "already exists"},
		{"undetermined with objects", "apps: [{rule: Succ, args: [root], objects: [a], undetermined: true}]", "cannot list objects"},
		{"negative count", "apps: [{rule: Succ, args: [root], count: -1}]", "negative count"},
		{"unknown identifier type", "identifiers: [Nope]", "unknown type"},
		{"bad tag", "values: [{fn: limit, value: {when: 3}}]", "unknown value tag"},
		{"float value", "values: [{fn: limit, value: 1.5}]", "non-integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFixture([]byte(tt.src), ".yaml")
			require.NoError(t, err)
			_, err = f.Build(chainModel(t))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.toml")
	require.NoError(t, os.WriteFile(path, []byte(chainTOML), 0o644))

	f, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Len(t, f.Apps, 3)

	_, err = LoadFixture(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDecodeValue(t *testing.T) {
	w := NewPartial(chainModel(t))
	tests := []struct {
		raw  any
		want ir.Value
	}{
		{nil, ir.Null{}},
		{true, ir.Bool(true)},
		{7, ir.Int(7)},
		{int64(-2), ir.Int(-2)},
		{uint64(5), ir.Int(5)},
		{float64(3), ir.Int(3)},
		{"root", ir.Object{Type: "Node", Name: "root"}},
		{map[string]any{"ts": 2}, ir.Timestep(2)},
		{map[string]any{"str": "hi"}, ir.String("hi")},
	}
	for _, tt := range tests {
		got, err := DecodeValue(w, tt.raw)
		require.NoError(t, err)
		assert.True(t, ir.ValuesEqual(tt.want, got), "%v: got %s", tt.raw, ir.Format(got))
	}

	_, err := DecodeValue(w, map[string]any{"ts": 1, "str": "x"})
	assert.ErrorContains(t, err, "exactly one key")
	_, err = DecodeValue(w, []any{1})
	assert.ErrorContains(t, err, "unsupported value")
}
