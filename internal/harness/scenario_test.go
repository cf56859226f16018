package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalModel = `types: Node: guaranteed: ["root"]`

// writeScenario writes a model and a scenario into a temp directory and
// returns the scenario path.
func writeScenario(t *testing.T, scenario string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte(minimalModel), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: minimal
description: "Root only"
model: model.cue
query: Node
limit: 5
rule_apps: true
max_rounds: 3
run_id: fixed
distinguished: [root]
world:
  closed: true
assertions:
  - type: count
    count: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "model.cue"), s.Model)
	assert.Equal(t, "Node", s.Query)
	assert.Equal(t, 5, s.Limit)
	assert.True(t, s.RuleApps)
	assert.Equal(t, 3, s.MaxRounds)
	assert.Equal(t, "fixed", s.RunID)
	assert.Equal(t, []any{"root"}, s.Distinguished)
	assert.True(t, s.World.Closed)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertCount, s.Assertions[0].Type)
	assert.Equal(t, 1, s.Assertions[0].Count)
}

func TestLoadScenario_WithBasePath(t *testing.T) {
	path := writeScenario(t, `
name: based
description: "Model resolved against a base path"
model: model.cue
query: Node
assertions:
  - type: no_duplicates
`)

	_, err := LoadScenarioWithBasePath(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file not found")

	s, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "model.cue"), s.Model)
}

func TestLoadScenario_Errors(t *testing.T) {
	const header = "name: bad\ndescription: \"d\"\nmodel: model.cue\nquery: Node\n"

	tests := []struct {
		name     string
		scenario string
		wantErr  string
	}{
		{
			name:     "missing name",
			scenario: "description: d\nmodel: model.cue\nquery: Node\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "name is required",
		},
		{
			name:     "missing description",
			scenario: "name: n\nmodel: model.cue\nquery: Node\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "description is required",
		},
		{
			name:     "missing model",
			scenario: "name: n\ndescription: d\nquery: Node\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "model is required",
		},
		{
			name:     "missing query",
			scenario: "name: n\ndescription: d\nmodel: model.cue\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "query is required",
		},
		{
			name:     "no assertions",
			scenario: header,
			wantErr:  "assertions list is required",
		},
		{
			name:     "negative limit",
			scenario: header + "limit: -1\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "limit must be non-negative",
		},
		{
			name:     "negative max_rounds",
			scenario: header + "max_rounds: -2\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "max_rounds must be non-negative",
		},
		{
			name:     "unknown field",
			scenario: header + "assertion: [{type: no_duplicates}]\n",
			wantErr:  "failed to parse YAML",
		},
		{
			name:     "unknown world field",
			scenario: header + "world: {open: true}\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "failed to parse YAML",
		},
		{
			name:     "missing model file",
			scenario: "name: n\ndescription: d\nmodel: nope.cue\nquery: Node\nassertions: [{type: no_duplicates}]\n",
			wantErr:  "model file not found",
		},
		{
			name:     "assertion without type",
			scenario: header + "assertions: [{count: 1}]\n",
			wantErr:  "assertions[0]: type is required",
		},
		{
			name:     "unknown assertion",
			scenario: header + "assertions: [{type: trace_contains}]\n",
			wantErr:  `unknown assertion type "trace_contains"`,
		},
		{
			name:     "bad state",
			scenario: header + "assertions: [{type: state, state: done}]\n",
			wantErr:  "state must be",
		},
		{
			name:     "contains without values",
			scenario: header + "assertions: [{type: contains}]\n",
			wantErr:  "values list is required for contains",
		},
		{
			name:     "order with one value",
			scenario: header + "assertions: [{type: order, values: [root]}]\n",
			wantErr:  "order needs at least two values",
		},
		{
			name:     "negative count",
			scenario: header + "assertions: [{type: count, count: -1}]\n",
			wantErr:  "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.scenario))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			s, err := LoadScenario(p)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSuffix(filepath.Base(p), ".yaml"), s.Name, "file is named after the scenario")
		})
	}
}
