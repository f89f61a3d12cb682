package chains

import (
	"fmt"
	"sort"
)

// FindCircularDependencies runs a depth-first traversal from every unvisited
// node, tracking the recursion stack, and records each back edge it finds.
// The visited guard keeps the runtime linear in edges. Cycles surface as
// validation errors, never as panics, and are found regardless of which step
// is the entry point.
func FindCircularDependencies(graph DependencyGraph) []string {
	visited := make(map[StepName]bool, len(graph))
	onStack := make(map[StepName]bool, len(graph))
	var cycles []string

	var visit func(name StepName)
	visit = func(name StepName) {
		visited[name] = true
		onStack[name] = true

		for _, next := range graph[name].Dependents {
			if !visited[next] {
				visit(next)
			} else if onStack[next] {
				cycles = append(cycles, fmt.Sprintf(
					"circular dependency detected: %s -> %s", name, next))
			}
		}

		onStack[name] = false
	}

	// Lexical start order keeps repeated runs byte-identical.
	for _, name := range graph.SortedNames() {
		if !visited[name] {
			visit(name)
		}
	}

	return cycles
}

// FindUnreachableSteps walks the dependents graph breadth-first from the
// chain's entry step and returns every step name it never reaches. The entry
// step is the unique step with Order 0 under sequential ordering. When no
// such step exists, or the chain executes in parallel, reachability is not
// applicable and the second return value is false; that is a documented
// outcome, not an error. Unreached steps are advisory: a step may be
// activated by a condition rather than a data mapping.
func FindUnreachableSteps(chain *Chain, graph DependencyGraph) ([]StepName, bool) {
	if chain.ExecutionOrder != Sequential {
		return nil, false
	}

	var entry StepName
	entryCount := 0
	for i := range chain.Steps {
		if chain.Steps[i].Order == 0 {
			entry = chain.Steps[i].Name
			entryCount++
		}
	}
	if entryCount != 1 {
		return nil, false
	}

	reached := map[StepName]bool{entry: true}
	queue := []StepName{entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		node, ok := graph[current]
		if !ok {
			continue
		}
		for _, next := range node.Dependents {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}

	var unreachable []StepName
	for name := range graph {
		if !reached[name] {
			unreachable = append(unreachable, name)
		}
	}
	sort.Slice(unreachable, func(i, j int) bool { return unreachable[i] < unreachable[j] })
	return unreachable, true
}

// FindOrderGaps checks a sequential chain's order values for holes. The run
// of orders should be exactly 0..n-1; each adjacent pair further apart than
// one produces a warning naming both steps. Gaps tolerate legacy data, so
// this is advisory and never blocks validation.
func FindOrderGaps(steps []ChainStep) []string {
	if len(steps) < 2 {
		return nil
	}

	ordered := make([]ChainStep, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var gaps []string
	for i := 1; i < len(ordered); i++ {
		prev, next := &ordered[i-1], &ordered[i]
		if next.Order-prev.Order > 1 {
			gaps = append(gaps, fmt.Sprintf(
				"order gap between step %s (order %d) and step %s (order %d)",
				prev.Name, prev.Order, next.Name, next.Order))
		}
	}
	return gaps
}
