package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/objgen/internal/ir"
)

// RecursionWarning reports a set of mutually recursive types.
//
// Recursion is a warning, not an error: the fixpoint engine enumerates
// recursive types round by round. The warning tells the model author that
// enumeration of these types may not terminate unless the world bounds the
// number of generated objects.
type RecursionWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["A", "B", "A"]
	Rules   []string `json:"rules"`   // Rules participating in the cycle
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeRecursion finds recursive types in a model.
//
// The algorithm:
//  1. Build the type dependency graph: T -> U when a rule generating T has a
//     generating function returning U
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Recursion through a type with no guaranteed objects and no non-recursive
// rule can never produce an object; it is reported at level "info".
func AnalyzeRecursion(m *ir.Model) []RecursionWarning {
	graph := buildTypeGraph(m)
	if len(graph.order) == 0 {
		return []RecursionWarning{}
	}

	var warnings []RecursionWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, sccToWarning(m, scc, graph))
		}
	}
	if warnings == nil {
		return []RecursionWarning{}
	}
	return warnings
}

// typeGraph maps type -> types its rules draw arguments from.
type typeGraph struct {
	edges map[string][]string
	rules map[[2]string][]string // (from, to) -> rules inducing the edge
	order []string               // deterministic visit order
}

func buildTypeGraph(m *ir.Model) typeGraph {
	g := typeGraph{
		edges: make(map[string][]string),
		rules: make(map[[2]string][]string),
	}
	for _, r := range m.Rules() {
		if _, ok := g.edges[r.Type]; !ok {
			g.edges[r.Type] = []string{}
			g.order = append(g.order, r.Type)
		}
		for _, name := range r.GenFuncs {
			gf, ok := m.GenFunc(name)
			if !ok {
				continue
			}
			if !slices.Contains(g.edges[r.Type], gf.Ret) {
				g.edges[r.Type] = append(g.edges[r.Type], gf.Ret)
			}
			key := [2]string{r.Type, gf.Ret}
			if !slices.Contains(g.rules[key], r.Name) {
				g.rules[key] = append(g.rules[key], r.Name)
			}
		}
	}
	return g
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, g typeGraph) bool {
	return slices.Contains(g.edges[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(g typeGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Reverse(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(m *ir.Model, scc []string, g typeGraph) RecursionWarning {
	path := reconstructCyclePath(scc, g)

	var rules []string
	for i := 0; i+1 < len(path); i++ {
		for _, r := range g.rules[[2]string{path[i], path[i+1]}] {
			if !slices.Contains(rules, r) {
				rules = append(rules, r)
			}
		}
	}

	level := "warning"
	msg := fmt.Sprintf("Recursive types: %s", strings.Join(path, " → "))
	if !hasBaseCase(m, scc) {
		level = "info"
		msg += " (no guaranteed objects or non-recursive rules; these types are always empty)"
	}
	if len(scc) == 1 {
		msg = fmt.Sprintf("Self-recursive type: %s", strings.Join(path, " → "))
		if level == "info" {
			msg += " (no base case)"
		}
	}
	return RecursionWarning{Path: path, Rules: rules, Message: msg, Level: level}
}

// hasBaseCase reports whether any type in scc can produce an object
// without recursing into scc.
func hasBaseCase(m *ir.Model, scc []string) bool {
	for _, name := range scc {
		if t, ok := m.Type(name); ok && len(t.Guaranteed) > 0 {
			return true
		}
		for _, r := range m.RulesFor(name) {
			recursive := false
			for _, g := range r.GenFuncs {
				if gf, ok := m.GenFunc(g); ok && slices.Contains(scc, gf.Ret) {
					recursive = true
					break
				}
			}
			if !recursive {
				return true
			}
		}
	}
	return false
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, g typeGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g.edges[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
