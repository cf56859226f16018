package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	World    string // optional - one world only
	RunID    string // optional - show one run with its results
}

// RunSummary is a recorded run in command output.
type RunSummary struct {
	ID      string   `json:"id"`
	Seq     int64    `json:"seq"`
	World   string   `json:"world"`
	Query   string   `json:"query"`
	Type    string   `json:"type"`
	State   string   `json:"state"`
	Rounds  int      `json:"rounds"`
	Error   string   `json:"error,omitempty"`
	Results []string `json:"results,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show enumerations recorded with --record",
		Long: `List the runs recorded in a database, in recording order, or show
one run with its results.

Examples:
  objgen runs --db ./runs.db
  objgen runs --db ./runs.db --world chain
  objgen runs --db ./runs.db --id 01920c7e-...
  objgen runs --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.World, "world", "", "list runs against this world only")
	cmd.Flags().StringVar(&opts.RunID, "id", "", "show this run and its results")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	if err := checkFormat(opts.RootOptions); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer st.Close()

	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no run %s recorded", opts.RunID))
		}
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
		}
		summary := summarizeRun(run)
		if formatter.JSON() {
			return formatter.Success(summary)
		}
		printRun(formatter, summary, true)
		return nil
	}

	var runs []store.Run
	if opts.World == "" {
		runs, err = st.ReadAllRuns(ctx)
	} else {
		runs, err = st.ReadRuns(ctx, opts.World)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, summarizeRun(run))
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, s := range summaries {
		printRun(formatter, s, opts.Verbose)
	}
	return nil
}

func summarizeRun(run store.Run) RunSummary {
	s := RunSummary{
		ID:     run.ID,
		Seq:    run.Seq,
		World:  run.World,
		Query:  run.Query,
		Type:   run.Type,
		State:  run.State,
		Rounds: run.Rounds,
		Error:  run.Error,
	}
	for _, v := range run.Results {
		s.Results = append(s.Results, ir.Format(v))
	}
	return s
}

func printRun(formatter *OutputFormatter, s RunSummary, details bool) {
	w := formatter.Writer
	fmt.Fprintf(w, "#%d %s  %s on %s: %s after %d round(s)\n", s.Seq, s.ID, s.Query, s.World, s.State, s.Rounds)
	if !details {
		return
	}
	if s.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", s.Error)
	}
	for _, r := range s.Results {
		fmt.Fprintf(w, "  %s\n", r)
	}
}
