package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/objgen/internal/engine"
	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/lazy"
	"github.com/roach88/objgen/internal/objgen"
	"github.com/roach88/objgen/internal/store"
	"github.com/roach88/objgen/internal/world"
)

// EnumerateOptions holds flags for the enumerate command.
type EnumerateOptions struct {
	*RootOptions
	World         string
	WorldName     string
	Limit         int
	RuleApps      bool
	MaxRounds     int
	Distinguished []string
	Record        string
	Watch         bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, the engine's UUIDv7 generator is used.
	RunIDs engine.RunIDGenerator

	// Debounce is the quiet period before a world change is acted on.
	// Zero means 100ms.
	Debounce time.Duration
}

// EnumerateResult is the outcome of one enumeration.
type EnumerateResult struct {
	RunID            string   `json:"run_id"`
	Query            string   `json:"query"`
	Type             string   `json:"type"`
	World            string   `json:"world"`
	State            string   `json:"state"`
	Rounds           int      `json:"rounds"`
	Results          []string `json:"results"`
	Error            string   `json:"error,omitempty"`
	DependsOnIDOrder bool     `json:"depends_on_id_order"`
	Recorded         bool     `json:"recorded,omitempty"`

	values []ir.Value
}

// stateError is the state reported for a failed enumeration.
const stateError = "error"

// NewEnumerateCommand creates the enumerate command.
func NewEnumerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnumerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enumerate <model> <query>",
		Short: "Enumerate the objects a query denotes in a world",
		Long: `Enumerate the objects that satisfy a query in a partial world.

<query> names a query declared by the model, or a type. --world is a YAML or
TOML fixture, or a SQLite database written by 'objgen world import'.

The final state is exhausted when every satisfier was produced, ready when
--limit stopped the run, and undetermined when the world leaves rule
applications open. With --watch, an undetermined run is repeated each time
the fixture changes, until the result is determined or the command is
interrupted.

Exit codes:
  0 - Enumeration finished (any state)
  1 - Enumeration failed (round limit, duplicate derivation, ...)
  2 - Command error (model, world or database unusable)

Examples:
  objgen enumerate model.cue Node --world world.yaml
  objgen enumerate model.cue after_root --world worlds.db --world-name chain
  objgen enumerate model.cue Node --world world.yaml --limit 10 --record runs.db
  objgen enumerate model.cue Node --world world.yaml --watch`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnumerate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.World, "world", "", "world fixture (.yaml, .yml, .toml) or database (.db) (required)")
	_ = cmd.MarkFlagRequired("world")
	cmd.Flags().StringVar(&opts.WorldName, "world-name", "", "stored world to load from a database (default: its only world)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "stop after this many results (0 for no limit)")
	cmd.Flags().BoolVar(&opts.RuleApps, "rule-apps", false, "yield rule applications instead of objects")
	cmd.Flags().IntVar(&opts.MaxRounds, "max-rounds", 0, "fail after this many rounds (0 for unlimited)")
	cmd.Flags().StringArrayVar(&opts.Distinguished, "distinguished", nil, "values to keep distinguishable (fixture syntax)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "re-run on fixture changes while the result is undetermined")

	return cmd
}

func runEnumerate(opts *EnumerateOptions, modelPath, query string, cmd *cobra.Command) error {
	if err := checkFormat(opts.RootOptions); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	log := opts.logger()

	// Settings from config, env or an explicit flag, merged by the root
	// command. Commands built on their own use their flags.
	limit, maxRounds, derivationCheck := opts.Limit, opts.MaxRounds, false
	if opts.Config != nil {
		limit, maxRounds, derivationCheck = opts.Config.Limit, opts.Config.MaxRounds, opts.Config.DerivationCheck
	}
	if limit < 0 || maxRounds < 0 {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "--limit and --max-rounds must be non-negative")
	}
	if opts.Watch && isDatabase(opts.World) {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "--watch needs a fixture file, not a database")
	}

	m, err := LoadModel(modelPath)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	g, err := GraphFor(m, query)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeCompileQuery, err.Error())
	}

	ctx := commandContext(cmd)

	run := func() (*EnumerateResult, error) {
		w, worldName, err := LoadWorld(ctx, opts.World, opts.WorldName, m)
		if err != nil {
			return nil, err
		}
		distinguished, err := parseDistinguished(w, opts.Distinguished)
		if err != nil {
			return nil, err
		}
		engineOpts := []engine.Option{
			engine.WithLogger(log),
			engine.WithDerivationCheck(derivationCheck),
			engine.WithRuleApps(opts.RuleApps),
			engine.WithMaxRounds(maxRounds),
			engine.WithDistinguished(distinguished...),
		}
		if opts.RunIDs != nil {
			engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDs))
		}
		result, err := enumerateOnce(g, w, query, worldName, limit, engineOpts)
		if err != nil {
			return nil, err
		}
		if opts.Record != "" {
			inserted, err := recordRun(ctx, opts.Record, result)
			if err != nil {
				return nil, err
			}
			result.Recorded = inserted
		}
		return result, nil
	}

	if !opts.Watch {
		result, err := run()
		if err != nil {
			return outputLoadError(formatter, err)
		}
		return outputEnumerateResult(formatter, result)
	}
	return watchEnumerate(ctx, opts, formatter, run, log)
}

// enumerateOnce runs one enumeration to completion or to limit.
// A failure once the enumeration started is part of the result.
func enumerateOnce(g *objgen.Graph, w *world.Partial, query, worldName string, limit int, engineOpts []engine.Option) (*EnumerateResult, error) {
	wctx := w.Context(nil)
	e, err := g.Enumerate(wctx, engineOpts...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeEnumeration, Message: err.Error()}
	}

	vals, st, err := engine.Collect(e, limit)
	result := &EnumerateResult{
		RunID:            e.RunID(),
		Query:            query,
		Type:             g.Type(),
		World:            worldName,
		State:            st.String(),
		Rounds:           e.Rounds(),
		Results:          make([]string, len(vals)),
		DependsOnIDOrder: g.DependsOnIDOrder(wctx),
		values:           vals,
	}
	for i, v := range vals {
		result.Results[i] = ir.Format(v)
	}
	if err != nil {
		result.State = stateError
		result.Error = err.Error()
	}
	return result, nil
}

// parseDistinguished reads each flag value as YAML, so "3", "true",
// "root" and "{ts: 2}" mean what they mean in a fixture.
func parseDistinguished(w *world.Partial, raw []string) ([]ir.Value, error) {
	out := make([]ir.Value, 0, len(raw))
	for _, s := range raw {
		var node any
		if err := yaml.Unmarshal([]byte(s), &node); err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("--distinguished %q: %v", s, err)}
		}
		v, err := world.DecodeValue(w, node)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeWorld, Message: fmt.Sprintf("--distinguished %q: %v", s, err)}
		}
		out = append(out, v)
	}
	return out, nil
}

// recordRun stores a result. It reports false when the run id was already
// recorded.
func recordRun(ctx context.Context, path string, result *EnumerateResult) (bool, error) {
	st, err := store.Open(path)
	if err != nil {
		return false, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	defer st.Close()

	inserted, err := st.RecordRun(ctx, store.Run{
		ID:      result.RunID,
		World:   result.World,
		Query:   result.Query,
		Type:    result.Type,
		State:   result.State,
		Rounds:  result.Rounds,
		Error:   result.Error,
		Results: result.values,
	})
	if err != nil {
		return false, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	return inserted, nil
}

// watchEnumerate runs the enumeration, then again after every change to
// the fixture, for as long as the result stays undetermined.
func watchEnumerate(ctx context.Context, opts *EnumerateOptions, formatter *OutputFormatter, run func() (*EnumerateResult, error), log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	debounce := opts.Debounce
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}
	// Watch before the first run so no edit made during it is missed.
	watcher, err := newFileWatcher(opts.World, debounce)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}
	defer watcher.Stop()

	for {
		result, err := run()
		switch {
		case err != nil:
			// A half-written fixture is expected while editing.
			code, message := loadErrorCode(err)
			_ = formatter.Error(code, message, nil)
		default:
			if outErr := outputEnumerateResult(formatter, result); outErr != nil || result.State != lazy.Undetermined.String() {
				return outErr
			}
		}

		log.Info("watching world for changes", "world", opts.World)
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil
		case _, ok := <-watcher.Changes:
			if !ok {
				return formatter.fail(ExitCommandError, ErrCodeGeneric, "world watcher stopped")
			}
			log.Info("world changed, re-running", "world", opts.World)
		}
	}
}

// outputEnumerateResult prints a result. A failed enumeration exits 1.
func outputEnumerateResult(formatter *OutputFormatter, result *EnumerateResult) error {
	failed := result.State == stateError
	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result, RunID: result.RunID}
		if failed {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeEnumeration, Message: result.Error}
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
	} else {
		printEnumerateText(formatter, result)
	}

	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeEnumeration, result.Error))
	}
	return nil
}

func printEnumerateText(formatter *OutputFormatter, result *EnumerateResult) {
	w := formatter.Writer
	for _, r := range result.Results {
		fmt.Fprintln(w, r)
	}
	formatter.VerboseLog("run %s against world %s", result.RunID, result.World)

	switch result.State {
	case stateError:
		fmt.Fprintf(w, "✗ enumeration failed after %d result(s): %s\n", len(result.Results), result.Error)
	case lazy.Exhausted.String():
		fmt.Fprintf(w, "✓ exhausted: %d result(s) in %d round(s)\n", len(result.Results), result.Rounds)
	case lazy.Ready.String():
		fmt.Fprintf(w, "… ready: stopped at the limit of %d result(s)\n", len(result.Results))
	default:
		fmt.Fprintf(w, "? undetermined: %d result(s) in %d round(s); the world leaves rule applications open\n",
			len(result.Results), result.Rounds)
	}
	if result.DependsOnIDOrder {
		fmt.Fprintln(w, "  note: result order depends on identifier order")
	}
	if result.Recorded {
		fmt.Fprintf(w, "  recorded run %s\n", result.RunID)
	}
}
