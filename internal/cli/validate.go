package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/objgen/internal/compiler"
	"github.com/roach88/objgen/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                        `json:"valid"`
	Errors   []compiler.ValidationError  `json:"errors,omitempty"`
	Warnings []compiler.RecursionWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model>",
		Short: "Validate a model without compiling its queries",
		Long: `Validate a CUE model without compiling graphs.

Checks declarations, query terms (known functions, arities, guaranteed
objects) and reports recursive types. Faster than compile for development
feedback.

Exit codes:
  0 - Model valid (recursion warnings do not fail validation)
  1 - Validation errors
  2 - Model could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, modelPath string, cmd *cobra.Command) error {
	if err := checkFormat(opts); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	m, err := LoadModel(modelPath)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded model %s: %d type(s), %d rule(s), %d query(s)",
		modelPath, countUserTypes(m), len(m.Rules()), len(m.Queries()))

	result := ValidationResult{
		Errors:   compiler.Validate(m),
		Warnings: compiler.AnalyzeRecursion(m),
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// countUserTypes counts the model's non-built-in types.
func countUserTypes(m *ir.Model) int {
	n := 0
	for _, t := range m.Types() {
		if !t.Builtin {
			n++
		}
	}
	return n
}

// outputLoadError reports a model or world that could not be loaded.
// Load failures are command-level errors (exit code 2); an enumeration
// the engine refuses to start is a failure (exit code 1).
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := loadErrorCode(err)
	_ = formatter.Error(code, message, nil)
	if code == ErrCodeEnumeration {
		return WrapExitError(ExitFailure, code, err)
	}
	return WrapExitError(ExitCommandError, code, err)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Model valid")
	printWarnings(formatter, result.Warnings)
	return nil
}

func printWarnings(formatter *OutputFormatter, warnings []compiler.RecursionWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", w.Level, w.Message)
	}
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.JSON() {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	printWarnings(formatter, result.Warnings)

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
