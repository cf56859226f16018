package testutil

// DefaultRunID is the run id scenarios get when they do not name one.
const DefaultRunID = "test-run-default"

// FixedRunIDGenerator hands out the same run id every time, so traces,
// golden files and recorded runs are reproducible.
//
// Thread-safety: stateless, safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator returns a generator for id, or for DefaultRunID
// when id is empty.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate implements engine.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
