package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/objgen/internal/lazy"
	"github.com/roach88/objgen/internal/world"
)

// Scenario defines an enumeration test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path to the CUE model. Relative paths are resolved
	// against the scenario file's directory by LoadScenario.
	Model string `yaml:"model"`

	// Query is a query declared by the model, or a type name.
	Query string `yaml:"query"`

	// World is the partial world to enumerate against.
	World world.Fixture `yaml:"world"`

	// Limit stops the enumeration after this many results. 0 means no limit.
	Limit int `yaml:"limit,omitempty"`

	// RuleApps yields rule-application ids instead of objects.
	RuleApps bool `yaml:"rule_apps,omitempty"`

	// Distinguished lists values that are never skipped as
	// indistinguishable, in fixture value syntax.
	Distinguished []any `yaml:"distinguished,omitempty"`

	// MaxRounds bounds the number of rounds. 0 means unlimited.
	MaxRounds int `yaml:"max_rounds,omitempty"`

	// RunID is the fixed run id. If empty, testutil.DefaultRunID is used.
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// State is the expected terminal state (state).
	State string `yaml:"state,omitempty"`

	// Values are printed results (contains, order).
	Values []string `yaml:"values,omitempty"`

	// Count is the expected number of results (count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertState        = "state"
	AssertContains     = "contains"
	AssertOrder        = "order"
	AssertCount        = "count"
	AssertNoDuplicates = "no_duplicates"
)

// StateError is the state of a scenario whose enumeration failed.
const StateError = "error"

var validStates = map[string]bool{
	lazy.Ready.String():        true,
	lazy.Exhausted.String():    true,
	lazy.Undetermined.String(): true,
	StateError:                 true,
}

// LoadScenario reads and parses a scenario YAML file, resolving the model
// path against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the model path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) && basePath != "" {
		scenario.Model = filepath.Join(basePath, scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Query == "" {
		return fmt.Errorf("query is required")
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if s.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertState:
		if !validStates[a.State] {
			return fmt.Errorf("assertions[%d]: state must be ready, exhausted, undetermined or error, got %q", index, a.State)
		}
	case AssertContains:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values list is required for contains", index)
		}
	case AssertOrder:
		if len(a.Values) < 2 {
			return fmt.Errorf("assertions[%d]: order needs at least two values", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertNoDuplicates:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
