package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// DOT renders the graph in Graphviz dot syntax. Edges point from parent to
// child, in the direction objects flow; the target is drawn doubled and
// nodes with round buffers are bold.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph objgen {\n")
	sb.WriteString("  rankdir=BT;\n")
	for _, n := range g.nodes {
		shape := "box"
		switch n.Kind() {
		case KindUnion:
			shape = "ellipse"
		case KindRuleApp:
			shape = "hexagon"
		}
		peripheries := 1
		if n.ID() == g.target {
			peripheries = 2
		}
		style := ""
		if g.IsRuleAppParent(n.ID()) {
			style = ", style=bold"
		}
		fmt.Fprintf(&sb, "  n%d [shape=%s, peripheries=%d%s, label=%s];\n",
			n.ID(), shape, peripheries, style, strconv.Quote(n.String()))
	}
	for _, n := range g.nodes {
		for i, p := range headerOf(n).parents {
			if n.Kind() == KindRuleApp {
				fmt.Fprintf(&sb, "  n%d -> n%d [label=\"%d\"];\n", p, n.ID(), i)
				continue
			}
			fmt.Fprintf(&sb, "  n%d -> n%d;\n", p, n.ID())
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
