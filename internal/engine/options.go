package engine

import (
	"log/slog"

	"github.com/roach88/objgen/internal/ir"
)

type options struct {
	distinguished   map[string]bool
	ruleApps        bool
	maxRounds       int
	runIDs          RunIDGenerator
	logger          *slog.Logger
	derivationCheck bool
	tracer          func(Event)
}

func defaultOptions() options {
	return options{
		runIDs: UUIDv7Generator{},
	}
}

// Option configures an enumeration.
type Option func(*options)

// WithDistinguished marks values the caller tells apart. Satisfier sets
// yield distinguished objects first, and SkipIndistinguishable never skips
// them.
func WithDistinguished(vals ...ir.Value) Option {
	return func(o *options) {
		if o.distinguished == nil {
			o.distinguished = make(map[string]bool, len(vals))
		}
		for _, v := range vals {
			o.distinguished[ir.Key(v)] = true
		}
	}
}

// WithRuleApps makes the target yield one ir.RuleAppRef per resolved rule
// application instead of the individual satisfiers. Base-case values
// (guaranteed objects, literals, integers) are still yielded as themselves.
func WithRuleApps(enabled bool) Option {
	return func(o *options) {
		o.ruleApps = enabled
	}
}

// WithMaxRounds limits the number of rounds. Starting one more round fails
// with *RoundsExceededError. n <= 0 means unlimited (the default).
func WithMaxRounds(n int) Option {
	return func(o *options) {
		o.maxRounds = n
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(o *options) {
		o.runIDs = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDerivationCheck records every resolved rule application and fails
// with DUPLICATE_DERIVATION if one is resolved twice by the same node.
func WithDerivationCheck(enabled bool) Option {
	return func(o *options) {
		o.derivationCheck = enabled
	}
}

// WithTracer receives every trace event, in order.
func WithTracer(fn func(Event)) Option {
	return func(o *options) {
		o.tracer = fn
	}
}
