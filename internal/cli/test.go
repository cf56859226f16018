package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/objgen/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run YAML scenarios and check their assertions.

Each scenario names a model (relative to the scenario file), a query, an
inline world and assertions on the results. A scenario with a golden file
at <scenarios-dir>/golden/<file>.golden must also reproduce that trace
exactly.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  objgen test ./scenarios
  objgen test ./scenarios --filter "chain_*"
  objgen test ./scenarios --update
  objgen test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if err := checkFormat(opts.RootOptions); err != nil {
		return err
	}
	if _, err := os.Stat(scenariosDir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}
	formatter := opts.formatter(cmd)

	paths, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(paths) == 0 && !formatter.JSON() {
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(paths)}
	for _, path := range paths {
		sr := runScenario(path, opts)
		if !formatter.JSON() {
			printScenario(formatter, sr, opts.Update)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	return outputTestResult(formatter, result)
}

// findScenarioFiles finds the scenario files under dir whose names (without
// extension) match filter.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	paths, err := harness.DiscoverScenarios(dir)
	if err != nil || filter == "" {
		return paths, err
	}

	var files []string
	for _, path := range paths {
		matched, err := filepath.Match(filter, scenarioBase(path))
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			files = append(files, path)
		}
	}
	return files, nil
}

func scenarioBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// runScenario loads and runs one scenario file. With update, the golden
// file is rewritten instead of compared.
func runScenario(path string, opts *TestOptions) ScenarioResult {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), fmt.Sprintf("failed to load scenario: %v", err))
	}
	result, err := harness.Run(scenario, harness.WithLogger(opts.logger()))
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	if msg := checkGolden(goldenFilePath(path), scenario, result, opts.Update); msg != "" {
		return failed(scenario.Name, msg)
	}
	return ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
}

func failed(name string, errs ...string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: errs}
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", scenarioBase(scenarioFile)+".golden")
}

// checkGolden writes or compares the scenario's trace snapshot. It returns
// a failure message, or "" when there is nothing to report. A scenario
// without a golden file is checked by its assertions alone.
func checkGolden(path string, scenario *harness.Scenario, result *harness.Result, update bool) string {
	if update {
		snapshot, err := harness.MarshalSnapshot(scenario.Name, result)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(path), 0o755)
		}
		if err == nil {
			err = os.WriteFile(path, snapshot, 0o644)
		}
		if err != nil {
			return fmt.Sprintf("failed to update golden file: %v", err)
		}
		return ""
	}

	match, err := compareWithGolden(scenario, result, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ""
	case err != nil:
		return fmt.Sprintf("golden comparison failed: %v", err)
	case !match:
		return "trace does not match golden file (run with --update to regenerate)"
	}
	return ""
}

// compareWithGolden compares the result's snapshot with the golden file at
// path. Surrounding whitespace is ignored, so editors may add a final
// newline.
func compareWithGolden(scenario *harness.Scenario, result *harness.Result, path string) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	snapshot, err := harness.MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(bytes.TrimSpace(golden), bytes.TrimSpace(snapshot)), nil
}

func printScenario(formatter *OutputFormatter, sr ScenarioResult, update bool) {
	w := formatter.Writer
	switch {
	case sr.Pass && update:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	case sr.Pass:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	default:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// outputTestResult prints the summary. Any failed scenario exits 1.
func outputTestResult(formatter *OutputFormatter, result TestResult) error {
	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: failure.Error()}
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(formatter.Writer, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure == nil {
		fmt.Fprintln(formatter.Writer, "✓ All scenarios passed")
	}
	return failure
}
