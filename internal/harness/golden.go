package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/objgen/internal/ir"
)

// TraceSnapshot captures the outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id"`
	State        string       `json:"state"`
	Err          string       `json:"error,omitempty"`
	Rounds       int          `json:"rounds"`
	Results      []string     `json:"results"`
	Trace        []TraceEvent `json:"trace"`
}

func newSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		State:        result.State,
		Err:          result.Err,
		Rounds:       result.Rounds,
		Results:      result.Results,
		Trace:        result.Trace,
	}
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization, which only handles plain maps, slices and scalars.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"seq":   event.Seq,
			"round": event.Round,
			"kind":  event.Kind,
		}
		if event.Value != "" {
			m["value"] = event.Value
		}
		if event.App != "" {
			m["app"] = event.App
		}
		if event.Resolution != "" {
			m["resolution"] = event.Resolution
		}
		if event.State != "" {
			m["state"] = event.State
		}
		trace[i] = m
	}

	results := make([]any, len(s.Results))
	for i, r := range s.Results {
		results[i] = r
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.RunID,
		"state":         s.State,
		"rounds":        s.Rounds,
		"results":       results,
		"trace":         trace,
	}
	if s.Err != "" {
		out["error"] = s.Err
	}
	return out
}

// MarshalSnapshot returns the canonical JSON written to golden files.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := newSnapshot(name, result)
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A snapshot mismatch
// fails the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
