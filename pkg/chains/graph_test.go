package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedSteps(names ...StepName) []ChainStep {
	steps := make([]ChainStep, len(names))
	for i, name := range names {
		steps[i] = ChainStep{
			ID:    StepID("id-" + string(name)),
			Name:  name,
			Type:  StepTypePrompt,
			Order: i,
			Resource: ResourceRef{
				ID: "res-" + string(name),
			},
		}
	}
	return steps
}

func edge(from, to StepName) DataMapping {
	return DataMapping{
		FromStep:     from,
		ToStep:       to,
		FieldMapping: map[string]string{"out": "in"},
	}
}

func TestBuildDependencyGraph(t *testing.T) {
	t.Run("Linear chain", func(t *testing.T) {
		steps := namedSteps("fetch", "transform", "store")
		graph := BuildDependencyGraph(steps, []DataMapping{
			edge("fetch", "transform"),
			edge("transform", "store"),
		})

		require.Len(t, graph, 3)
		assert.Equal(t, []StepName{"transform"}, graph["fetch"].Dependents)
		assert.Empty(t, graph["fetch"].Dependencies)
		assert.Equal(t, []StepName{"fetch"}, graph["transform"].Dependencies)
		assert.Equal(t, []StepName{"store"}, graph["transform"].Dependents)
		assert.Equal(t, []StepName{"transform"}, graph["store"].Dependencies)
		assert.Empty(t, graph["store"].Dependents)
	})

	t.Run("Isolated steps get empty nodes", func(t *testing.T) {
		graph := BuildDependencyGraph(namedSteps("a", "b", "orphan"), []DataMapping{
			edge("a", "b"),
		})

		require.Contains(t, graph, StepName("orphan"))
		assert.Empty(t, graph["orphan"].Dependencies)
		assert.Empty(t, graph["orphan"].Dependents)
	})

	t.Run("Self loop skipped", func(t *testing.T) {
		graph := BuildDependencyGraph(namedSteps("a"), []DataMapping{
			edge("a", "a"),
		})
		assert.Empty(t, graph["a"].Dependencies)
		assert.Empty(t, graph["a"].Dependents)
	})

	t.Run("Unknown endpoints skipped", func(t *testing.T) {
		graph := BuildDependencyGraph(namedSteps("a", "b"), []DataMapping{
			edge("a", "ghost"),
			edge("ghost", "b"),
		})
		assert.Empty(t, graph["a"].Dependents)
		assert.Empty(t, graph["b"].Dependencies)
		assert.NotContains(t, graph, StepName("ghost"))
	})

	t.Run("Duplicate edges collapse", func(t *testing.T) {
		graph := BuildDependencyGraph(namedSteps("a", "b"), []DataMapping{
			edge("a", "b"),
			edge("a", "b"),
		})
		assert.Equal(t, []StepName{"b"}, graph["a"].Dependents)
		assert.Equal(t, []StepName{"a"}, graph["b"].Dependencies)
	})

	t.Run("Empty inputs", func(t *testing.T) {
		graph := BuildDependencyGraph(nil, nil)
		assert.Empty(t, graph)
	})
}
