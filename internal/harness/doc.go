// Package harness runs enumeration scenarios as executable tests.
//
// A scenario names a model, a query and a partial world, enumerates the
// query against the world and checks assertions about the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: chain_closed
//	description: "A closed chain enumerates every node"
//	model: ../models/chain.cue
//	query: Node
//	world:
//	  closed: true
//	  apps:
//	    - {rule: Succ, args: [root], objects: [n1]}
//	limit: 0
//	rule_apps: false
//	distinguished: [root]
//	max_rounds: 0
//	run_id: test-run-chain
//	assertions:
//	  - type: state
//	    state: exhausted
//	  - type: contains
//	    values: [root, n1]
//
// The model path is relative to the scenario file. The query is a query
// declared by the model, or a type name to enumerate the whole type. The
// world uses the fixture format of package world.
//
// # Assertion Types
//
//   - state: the terminal state is ready, exhausted, undetermined or error
//   - contains: every listed result was yielded
//   - order: the listed results were first yielded in this order
//   - count: exactly count results were yielded
//   - no_duplicates: no result was yielded twice
//
// Results are compared by their printed form: object names, integers,
// @n for timesteps, Rule(args) for rule applications.
//
// # Deterministic Testing
//
// Every run uses a fixed run id (the scenario's run_id, or
// testutil.DefaultRunID) and stamps trace entries with a
// testutil.DeterministicClock, so two runs of a scenario produce
// byte-identical traces. RunWithGolden compares them with golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/chain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
