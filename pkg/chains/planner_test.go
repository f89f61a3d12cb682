package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionPlanFor(t *testing.T) {
	t.Run("Linear chain plan", func(t *testing.T) {
		chain := &Chain{
			ID:             "c1",
			Name:           "etl",
			ExecutionOrder: Sequential,
			Steps:          namedSteps("fetch", "transform", "store"),
			DataMappings: []DataMapping{
				edge("fetch", "transform"),
				edge("transform", "store"),
			},
		}

		plan := ExecutionPlanFor(chain)
		require.Len(t, plan.Entries, 3)
		assert.Equal(t, "c1", plan.ChainID)
		assert.Equal(t, Sequential, plan.ExecutionOrder)

		fetch, transform, store := plan.Entries[0], plan.Entries[1], plan.Entries[2]

		assert.Equal(t, StepName("fetch"), fetch.StepName)
		assert.Empty(t, fetch.Dependencies)
		assert.Equal(t, []StepID{"id-transform"}, fetch.Dependents)

		assert.Equal(t, StepName("transform"), transform.StepName)
		assert.Equal(t, []StepID{"id-fetch"}, transform.Dependencies)
		assert.Equal(t, []StepID{"id-store"}, transform.Dependents)

		assert.Equal(t, StepName("store"), store.StepName)
		assert.Equal(t, []StepID{"id-transform"}, store.Dependencies)
		assert.Empty(t, store.Dependents)
	})

	t.Run("Entries sorted by order not list position", func(t *testing.T) {
		steps := namedSteps("second", "first")
		steps[0].Order = 1
		steps[1].Order = 0

		plan := ExecutionPlanFor(&Chain{
			ID:             "c2",
			ExecutionOrder: Sequential,
			Steps:          steps,
		})
		require.Len(t, plan.Entries, 2)
		assert.Equal(t, StepName("first"), plan.Entries[0].StepName)
		assert.Equal(t, StepName("second"), plan.Entries[1].StepName)
	})

	t.Run("Unknown mapping endpoints excluded without error", func(t *testing.T) {
		chain := &Chain{
			ID:             "c3",
			ExecutionOrder: Parallel,
			Steps:          namedSteps("a", "b"),
			DataMappings: []DataMapping{
				edge("a", "b"),
				edge("ghost", "b"),
				edge("a", "phantom"),
			},
		}

		plan := ExecutionPlanFor(chain)
		require.Len(t, plan.Entries, 2)
		assert.Equal(t, []StepID{"id-a"}, plan.Entries[1].Dependencies)
		assert.Equal(t, []StepID{"id-b"}, plan.Entries[0].Dependents)
	})

	t.Run("Isolated step has empty lists", func(t *testing.T) {
		plan := ExecutionPlanFor(&Chain{
			ID:             "c4",
			ExecutionOrder: Parallel,
			Steps:          namedSteps("solo"),
		})
		require.Len(t, plan.Entries, 1)
		assert.Equal(t, StepID("id-solo"), plan.Entries[0].StepID)
		assert.Empty(t, plan.Entries[0].Dependencies)
		assert.Empty(t, plan.Entries[0].Dependents)
	})
}
