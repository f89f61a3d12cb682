package chains

import "sort"

// GraphNode holds the immediate neighbors of one step in the dependency
// graph. Dependencies are the steps whose output feeds this step; Dependents
// are the steps fed by this one.
type GraphNode struct {
	Dependencies []StepName
	Dependents   []StepName
}

// DependencyGraph maps every step name in a chain to its neighbors. It is a
// transient artifact: built fresh on every validate/plan call and never
// cached, so concurrent chain edits cannot produce a stale graph.
type DependencyGraph map[StepName]*GraphNode

// BuildDependencyGraph converts a step list and its data mappings into an
// adjacency structure keyed by step name. Every step gets a node, including
// isolated ones. Edges whose endpoints don't name a known step, and self
// loops, are skipped here; validation reports them separately.
func BuildDependencyGraph(steps []ChainStep, mappings []DataMapping) DependencyGraph {
	graph := make(DependencyGraph, len(steps))
	for i := range steps {
		graph[steps[i].Name] = &GraphNode{}
	}

	for i := range mappings {
		m := &mappings[i]
		if m.FromStep == m.ToStep {
			continue
		}
		from, ok := graph[m.FromStep]
		if !ok {
			continue
		}
		to, ok := graph[m.ToStep]
		if !ok {
			continue
		}
		from.Dependents = appendUnique(from.Dependents, m.ToStep)
		to.Dependencies = appendUnique(to.Dependencies, m.FromStep)
	}

	return graph
}

// SortedNames returns the graph's step names in lexical order, for
// deterministic traversal.
func (g DependencyGraph) SortedNames() []StepName {
	names := make([]StepName, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func appendUnique(names []StepName, name StepName) []StepName {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}
