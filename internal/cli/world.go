package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/objgen/internal/store"
	"github.com/roach88/objgen/internal/world"
)

// WorldOptions holds flags for the world subcommands.
type WorldOptions struct {
	*RootOptions
	Model    string
	Database string
	Name     string
}

// WorldImportResult reports an imported world.
type WorldImportResult struct {
	Name     string `json:"name"`
	Database string `json:"database"`
	Closed   bool   `json:"closed"`
	Objects  int    `json:"objects"`
	Apps     int    `json:"apps"`
	Values   int    `json:"values"`
}

// NewWorldCommand creates the world command and its subcommands.
func NewWorldCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Manage worlds stored in a database",
		Long: `Manage partial worlds stored in a SQLite database.

Stored worlds are enumerated with 'objgen enumerate --world <db>'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newWorldImportCommand(rootOpts))
	cmd.AddCommand(newWorldListCommand(rootOpts))

	return cmd
}

func newWorldImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <fixture>",
		Short: "Store a world fixture in a database",
		Long: `Build a world fixture against a model and store it in a database,
replacing any world stored under the same name.

The world is named after the fixture file unless --name is given.

Example:
  objgen world import chain.yaml --model model.cue --db worlds.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorldImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "model the fixture is built against (required)")
	_ = cmd.MarkFlagRequired("model")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "name to store the world under")

	return cmd
}

func runWorldImport(opts *WorldOptions, fixturePath string, cmd *cobra.Command) error {
	if err := checkFormat(opts.RootOptions); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	log := opts.logger()
	ctx := commandContext(cmd)

	m, err := LoadModel(opts.Model)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if isDatabase(fixturePath) {
		return formatter.fail(ExitCommandError, ErrCodeWorld, fmt.Sprintf("%s is a database, not a fixture", fixturePath))
	}
	w, name, err := LoadWorld(ctx, fixturePath, opts.Name, m)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
	}
	defer st.Close()

	if err := st.SaveWorld(ctx, name, w); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
	}
	log.Info("world imported", "world", name, "db", opts.Database)

	result := summarizeWorld(w, name, opts.Database)
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported world %q into %s: %d object(s), %d application(s), %d value(s)\n",
		result.Name, result.Database, result.Objects, result.Apps, result.Values)
	return nil
}

func summarizeWorld(w *world.Partial, name, db string) WorldImportResult {
	return WorldImportResult{
		Name:     name,
		Database: db,
		Closed:   w.Closed,
		Objects:  len(w.Objects()),
		Apps:     len(w.Apps()),
		Values:   len(w.Values()),
	}
}

func newWorldListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the worlds stored in a database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorldList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runWorldList(opts *WorldOptions, cmd *cobra.Command) error {
	if err := checkFormat(opts.RootOptions); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer st.Close()

	names, err := st.ListWorlds(commandContext(cmd))
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error())
	}

	if formatter.JSON() {
		return formatter.Success(names)
	}
	if len(names) == 0 {
		fmt.Fprintln(formatter.Writer, "No worlds stored.")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(formatter.Writer, n)
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
