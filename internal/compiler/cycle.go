package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/exgen/internal/expr"
	"github.com/roach88/exgen/internal/ir"
)

// CycleWarning represents a circular definition among compute entries.
//
// Validation already rejects the forward reference that closes every cycle
// (E109); the warning names the whole loop so authors can see which
// formulas feed each other.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles finds circular dependencies between compute entries.
//
// The algorithm:
//  1. Build a compute -> referenced compute graph from parsed formulas
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Formulas that fail to parse contribute no edges. Warnings follow
// declaration order. A DAG returns an empty list.
func AnalyzeCycles(t *ir.Template) []CycleWarning {
	warnings := []CycleWarning{}
	if t == nil {
		return warnings
	}

	graph, order := buildDependencyGraph(t)
	if len(order) == 0 {
		return warnings
	}

	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// dependencyGraph maps a compute name to the compute names its formula reads.
type dependencyGraph map[string][]string

// buildDependencyGraph returns the graph and compute names in declaration order.
func buildDependencyGraph(t *ir.Template) (dependencyGraph, []string) {
	graph := make(dependencyGraph)
	var order []string
	formulas := make(map[string]string)

	for _, step := range t.SolutionSteps {
		for _, a := range step.Compute {
			if _, ok := formulas[a.Name]; ok {
				continue
			}
			formulas[a.Name] = a.Formula
			order = append(order, a.Name)
		}
	}

	for _, name := range order {
		graph[name] = []string{}
		f, err := expr.ParseFor(name, formulas[name])
		if err != nil {
			continue
		}
		for _, ref := range expr.Identifiers(f.Expr) {
			if _, ok := formulas[ref]; ok {
				graph[name] = append(graph[name], ref)
			}
		}
	}
	return graph, order
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting roots in the given order so output is deterministic.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
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

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root node: pop the stack into an SCC
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
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-referencing formula: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Circular formulas: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its last-popped
// member until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	// The root is popped last.
	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
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
