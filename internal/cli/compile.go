package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/objgen/internal/compiler"
	"github.com/roach88/objgen/internal/graph"
	"github.com/roach88/objgen/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult summarizes a compiled model and its query graphs.
type CompilationResult struct {
	Types    []TypeSummary               `json:"types"`
	Rules    []*ir.Rule                  `json:"rules"`
	Queries  []QuerySummary              `json:"queries"`
	Warnings []compiler.RecursionWarning `json:"warnings"`
}

// TypeSummary lists a user type and its guaranteed objects.
type TypeSummary struct {
	Name       string   `json:"name"`
	Guaranteed []string `json:"guaranteed"`
}

// QuerySummary describes the graph compiled for one query.
type QuerySummary struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Var    string         `json:"var"`
	Nodes  int            `json:"nodes"`
	Kinds  map[string]int `json:"kinds"`
	Finite bool           `json:"finite"`
	Empty  bool           `json:"empty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <model>",
		Short: "Compile a model and every query it declares",
		Long: `Compile a CUE model and build the object-generation graph of every
declared query.

The model is validated first; a model with validation errors is not
compiled. Recursive types are reported as warnings.

Exit codes:
  0 - Model compiled
  1 - Validation or graph compilation failed
  2 - Model could not be loaded, or the output file could not be written`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compilation summary as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, modelPath string, cmd *cobra.Command) error {
	if err := checkFormat(opts.RootOptions); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	m, err := LoadModel(modelPath)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	warnings := compiler.AnalyzeRecursion(m)
	if errs := compiler.Validate(m); len(errs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{Errors: errs, Warnings: warnings})
	}

	result := &CompilationResult{
		Types:    summarizeTypes(m),
		Rules:    m.Rules(),
		Queries:  []QuerySummary{},
		Warnings: warnings,
	}
	var failures []CLIError
	for _, q := range m.Queries() {
		formatter.VerboseLog("Compiling query: %s", q.Name)
		g, err := GraphFor(m, q.Name)
		if err != nil {
			failures = append(failures, CLIError{Code: ErrCodeCompileQuery, Message: err.Error()})
			continue
		}
		result.Queries = append(result.Queries, summarizeGraph(q, g.Raw()))
	}
	if len(failures) > 0 {
		return outputCompileErrors(formatter, failures)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeSummaryToFile(result, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func summarizeTypes(m *ir.Model) []TypeSummary {
	out := []TypeSummary{}
	for _, t := range m.Types() {
		if t.Builtin {
			continue
		}
		s := TypeSummary{Name: t.Name, Guaranteed: []string{}}
		for _, o := range t.Guaranteed {
			s.Guaranteed = append(s.Guaranteed, o.Name)
		}
		out = append(out, s)
	}
	return out
}

func summarizeGraph(q *ir.Query, g *graph.Graph) QuerySummary {
	s := QuerySummary{
		Name:  q.Name,
		Type:  q.Type,
		Var:   q.Var,
		Nodes: g.Len(),
		Kinds: map[string]int{},
		Empty: g.Target() == graph.NoNode,
	}
	s.Finite = true
	for _, n := range g.Nodes() {
		s.Kinds[n.Kind().String()]++
		if !n.Finite() {
			s.Finite = false
		}
	}
	return s
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d type(s), %d rule(s), %d query(s)\n\n",
		len(result.Types), len(result.Rules), len(result.Queries))

	if len(result.Rules) > 0 {
		fmt.Fprintln(w, "Rules:")
		for _, r := range result.Rules {
			fmt.Fprintf(w, "  %s: %s from %v\n", r.Name, r.Type, r.GenFuncs)
		}
		fmt.Fprintln(w)
	}

	if len(result.Queries) > 0 {
		fmt.Fprintln(w, "Queries:")
		for _, q := range result.Queries {
			switch {
			case q.Empty:
				fmt.Fprintf(w, "  %s: {%s : %s} is empty\n", q.Name, q.Var, q.Type)
			case q.Finite:
				fmt.Fprintf(w, "  %s: {%s : %s}, %d node(s)\n", q.Name, q.Var, q.Type, q.Nodes)
			default:
				fmt.Fprintf(w, "  %s: {%s : %s}, %d node(s), unbounded\n", q.Name, q.Var, q.Type, q.Nodes)
			}
		}
		fmt.Fprintln(w)
	}

	printWarnings(formatter, result.Warnings)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compilation summary to %s\n", outputFile)
	}

	return nil
}

// outputCompileErrors outputs graph compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []CLIError) error {
	if formatter.JSON() {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Error:  &errs[0],
			Data:   errs, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeSummaryToFile writes the compilation result to a file as indented JSON.
func writeSummaryToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
