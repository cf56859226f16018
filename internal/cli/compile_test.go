package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unknownFunctionModel = `
types: Node: guaranteed: ["root"]
queries: bad: {
	type: "Node"
	where: [{eq: [{fn: "nope", args: ["x"]}, {obj: "root"}]}]
}
`

func runCompileCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileValidModel(t *testing.T) {
	output, err := runCompileCmd(t, "text", testdata("models", "chain.cue"))
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Compiled 1 type(s), 1 rule(s), 2 query(s)")
	assert.Contains(t, output, "Succ: Node from [pred]")
	assert.Contains(t, output, "after_root: {x : Node}")
	assert.Contains(t, output, "below_limit: {x : Integer}")
	assert.Contains(t, output, "warning: Self-recursive type: Node → Node")
}

func TestCompileValidModelJSON(t *testing.T) {
	output, err := runCompileCmd(t, "json", testdata("models", "chain.cue"))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)

	require.Len(t, resp.Data.Types, 1)
	assert.Equal(t, TypeSummary{Name: "Node", Guaranteed: []string{"root"}}, resp.Data.Types[0])

	require.Len(t, resp.Data.Queries, 2)
	assert.Equal(t, "after_root", resp.Data.Queries[0].Name)
	assert.Equal(t, "below_limit", resp.Data.Queries[1].Name)
	for _, q := range resp.Data.Queries {
		assert.Positive(t, q.Nodes, q.Name)
		assert.False(t, q.Empty, q.Name)
	}
	require.Len(t, resp.Data.Warnings, 1)
	assert.Equal(t, []string{"Node", "Node"}, resp.Data.Warnings[0].Path)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	output, err := runCompileCmd(t, "text", testdata("models", "chain.cue"), "-o", outputFile)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote compilation summary to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Queries, 2)
	assert.Len(t, result.Rules, 1)
}

func TestCompileOutputToUnwritableFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "missing", "compiled.json")

	output, err := runCompileCmd(t, "text", testdata("models", "chain.cue"), "-o", outputFile)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "Error [E007]")
}

func TestCompileNonExistentModel(t *testing.T) {
	output, err := runCompileCmd(t, "text", "/nonexistent/model.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "Error [E005]")
}

func TestCompileConflictingCUE(t *testing.T) {
	model := writeFile(t, t.TempDir(), "model.cue", "types: A: guaranteed: [\"a\"]\ntypes: A: guaranteed: 3\n")

	output, err := runCompileCmd(t, "text", model)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "conflicting values")
}

func TestCompileDeclarationError(t *testing.T) {
	model := writeFile(t, t.TempDir(), "model.cue", `rules: R: {type: "Missing", genfuncs: []}`+"\n")

	output, err := runCompileCmd(t, "json", model)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidRule, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "rules.R")
}

func TestCompileStopsAtValidationErrors(t *testing.T) {
	model := writeFile(t, t.TempDir(), "model.cue", unknownFunctionModel)

	output, err := runCompileCmd(t, "text", model)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, `E101: unknown function "nope"`)
	assert.NotContains(t, output, "✓ Compiled")
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"types.Node", ErrCodeInvalidType},
		{"genfuncs.pred.of", ErrCodeInvalidGenFunc},
		{"rules.Succ.type", ErrCodeInvalidRule},
		{"functions.limit.value", ErrCodeInvalidFunction},
		{"queries.q.where[0].eq", ErrCodeInvalidQuery},
		{"cue", ErrCodeBuildFailed},
		{"unknown", ErrCodeGeneric},
		{"", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
