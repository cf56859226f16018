package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Results  []string // All results, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nResults:\n")
	for i, r := range e.Results {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, r)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against a result and returns
// the failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertState:
		return assertState(result, a)
	case AssertContains:
		return assertContains(result.Results, a)
	case AssertOrder:
		return assertOrder(result.Results, a)
	case AssertCount:
		return assertCount(result.Results, a)
	case AssertNoDuplicates:
		return assertNoDuplicates(result.Results)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertState checks the terminal state.
func assertState(result *Result, a Assertion) error {
	if result.State == a.State {
		return nil
	}
	actual := result.State
	if result.Err != "" {
		actual += " (" + result.Err + ")"
	}
	return &AssertionError{
		Type:     AssertState,
		Expected: a.State,
		Actual:   actual,
		Results:  result.Results,
	}
}

// assertContains checks that every listed value was yielded.
func assertContains(results []string, a Assertion) error {
	var missing []string
	for _, v := range a.Values {
		if !slices.Contains(results, v) {
			missing = append(missing, v)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("results containing %v", a.Values),
		Actual:   fmt.Sprintf("missing %v", missing),
		Results:  results,
	}
}

// assertOrder checks that values were first yielded in the listed order.
// Other results may come in between.
func assertOrder(results []string, a Assertion) error {
	positions := make([]int, len(a.Values))
	for i, v := range a.Values {
		positions[i] = slices.Index(results, v)
		if positions[i] < 0 {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("all values present: %v", a.Values),
				Actual:   fmt.Sprintf("missing value: %s", v),
				Results:  results,
			}
		}
	}

	for i := 1; i < len(positions); i++ {
		if positions[i-1] >= positions[i] {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("values in order: %v", a.Values),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					a.Values[i-1], positions[i-1]+1, a.Values[i], positions[i]+1),
				Results: results,
			}
		}
	}
	return nil
}

// assertCount checks the exact number of results.
func assertCount(results []string, a Assertion) error {
	if len(results) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d results", a.Count),
		Actual:   fmt.Sprintf("%d results", len(results)),
		Results:  results,
	}
}

// assertNoDuplicates checks that no result was yielded twice.
func assertNoDuplicates(results []string) error {
	seen := make(map[string]int, len(results))
	for i, r := range results {
		if first, ok := seen[r]; ok {
			return &AssertionError{
				Type:     AssertNoDuplicates,
				Expected: "every result yielded once",
				Actual:   fmt.Sprintf("%s yielded at positions %d and %d", r, first+1, i+1),
				Results:  results,
			}
		}
		seen[r] = i
	}
	return nil
}
