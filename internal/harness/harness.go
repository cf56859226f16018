package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/objgen/internal/compiler"
	"github.com/roach88/objgen/internal/engine"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/objgen"
	"github.com/roach88/objgen/internal/testutil"
	"github.com/roach88/objgen/internal/world"
)

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and run id.
type Harness struct {
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger for harness and engine messages. By default
// they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the model
//  2. Build the partial world
//  3. Compile the query and enumerate it, tracing every engine event
//  4. Evaluate assertions
//
// Setup problems (a model that does not compile, a world the model
// rejects, a query the engine refuses to start) are returned as errors. An
// enumeration that fails once started is part of the result, with state
// "error".
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h.run(scenario)
}

func (h *Harness) run(scenario *Scenario) (*Result, error) {
	m, err := compiler.LoadModel(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	w, err := scenario.World.Build(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build world: %w", err)
	}
	g, err := graphFor(m, scenario.Query)
	if err != nil {
		return nil, err
	}
	distinguished, err := decodeDistinguished(w, scenario.Distinguished)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	e, err := g.Enumerate(w.Context(nil),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
		engine.WithLogger(h.logger.With("scenario", scenario.Name)),
		engine.WithDerivationCheck(true),
		engine.WithRuleApps(scenario.RuleApps),
		engine.WithMaxRounds(scenario.MaxRounds),
		engine.WithDistinguished(distinguished...),
		engine.WithTracer(func(ev engine.Event) {
			result.AddEvent(ev, h.clock.Next())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start enumeration: %w", err)
	}

	vals, st, err := engine.Collect(e, scenario.Limit)
	for _, v := range vals {
		result.Results = append(result.Results, ir.Format(v))
	}
	result.RunID = e.RunID()
	result.Rounds = e.Rounds()
	result.State = st.String()
	if err != nil {
		result.State = StateError
		result.Err = err.Error()
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"state", result.State,
		"results", len(result.Results),
		"rounds", result.Rounds,
		"pass", result.Pass,
	)
	return result, nil
}

// graphFor compiles a declared query, or the whole type when the model
// declares no query by that name.
func graphFor(m *ir.Model, query string) (*objgen.Graph, error) {
	if _, ok := m.Query(query); ok {
		g, err := objgen.ForQuery(m, query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile query: %w", err)
		}
		return g, nil
	}
	g, err := objgen.ForType(m, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile query: %w", err)
	}
	return g, nil
}

func decodeDistinguished(w *world.Partial, raw []any) ([]ir.Value, error) {
	out := make([]ir.Value, 0, len(raw))
	for i, r := range raw {
		v, err := world.DecodeValue(w, r)
		if err != nil {
			return nil, fmt.Errorf("distinguished[%d]: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
