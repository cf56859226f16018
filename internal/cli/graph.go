package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/objgen/internal/graph"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	DOT bool
}

// GraphResult is the JSON form of a compiled graph.
type GraphResult struct {
	Query  string      `json:"query"`
	Type   string      `json:"type"`
	Target uint32      `json:"target"`
	Nodes  []GraphNode `json:"nodes"`
}

// GraphNode is one node of a GraphResult.
type GraphNode struct {
	ID      uint32   `json:"id"`
	Kind    string   `json:"kind"`
	Type    string   `json:"type"`
	Label   string   `json:"label"`
	Finite  bool     `json:"finite"`
	Parents []uint32 `json:"parents"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <model> <query>",
		Short: "Print the object-generation graph of a query",
		Long: `Compile one query, or every object of a type, and print its graph.

<query> names a query declared by the model, or a type.

Examples:
  objgen graph model.cue after_root
  objgen graph model.cue Node --dot | dot -Tsvg > node.svg
  objgen graph model.cue below_limit --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "print Graphviz dot instead of a node list")

	return cmd
}

func runGraph(opts *GraphOptions, modelPath, query string, cmd *cobra.Command) error {
	if err := checkFormat(opts.RootOptions); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	m, err := LoadModel(modelPath)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	g, err := GraphFor(m, query)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeCompileQuery, err.Error())
	}
	raw := g.Raw()

	if opts.DOT {
		fmt.Fprint(formatter.Writer, raw.DOT())
		return nil
	}

	result := GraphResult{
		Query:  query,
		Type:   g.Type(),
		Target: uint32(raw.Target()),
		Nodes:  make([]GraphNode, 0, raw.Len()),
	}
	for _, n := range raw.Nodes() {
		gn := GraphNode{
			ID:      uint32(n.ID()),
			Kind:    n.Kind().String(),
			Type:    n.Type(),
			Label:   n.String(),
			Finite:  n.Finite(),
			Parents: []uint32{},
		}
		for _, p := range n.Parents() {
			gn.Parents = append(gn.Parents, uint32(p))
		}
		result.Nodes = append(result.Nodes, gn)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputGraphText(formatter, result)
}

func outputGraphText(formatter *OutputFormatter, result GraphResult) error {
	w := formatter.Writer
	if result.Target == uint32(graph.NoNode) {
		fmt.Fprintf(w, "%s: empty graph, no %s satisfies the query\n", result.Query, result.Type)
		return nil
	}

	fmt.Fprintf(w, "%s: %d node(s), target n%d\n", result.Query, len(result.Nodes), result.Target)
	for _, n := range result.Nodes {
		marker := " "
		if n.ID == result.Target {
			marker = "*"
		}
		line := fmt.Sprintf("%s n%d %s", marker, n.ID, n.Label)
		if len(n.Parents) > 0 {
			parents := make([]string, len(n.Parents))
			for i, p := range n.Parents {
				parents[i] = fmt.Sprintf("n%d", p)
			}
			line += " <- " + strings.Join(parents, ", ")
		}
		if !n.Finite {
			line += " (unbounded)"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
