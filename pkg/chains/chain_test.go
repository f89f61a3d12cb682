package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainClone(t *testing.T) {
	original := &Chain{
		ID:             "c1",
		Name:           "etl",
		Tags:           []string{"nightly"},
		Version:        "1.0.0",
		ExecutionOrder: Sequential,
		Steps:          namedSteps("fetch", "store"),
		DataMappings:   []DataMapping{edge("fetch", "store")},
	}
	original.Steps[0].OutputMapping = map[string]string{"data": "payload"}

	clone := original.Clone()
	clone.Name = "mutated"
	clone.Tags[0] = "mutated"
	clone.Steps[0].OutputMapping["data"] = "mutated"
	clone.DataMappings[0].FieldMapping["out"] = "mutated"
	clone.Steps = append(clone.Steps, namedSteps("extra")...)

	assert.Equal(t, "etl", original.Name)
	assert.Equal(t, []string{"nightly"}, original.Tags)
	assert.Equal(t, "payload", original.Steps[0].OutputMapping["data"])
	assert.Equal(t, "in", original.DataMappings[0].FieldMapping["out"])
	assert.Len(t, original.Steps, 2)

	var nilChain *Chain
	assert.Nil(t, nilChain.Clone())
}

func TestStepByName(t *testing.T) {
	chain := &Chain{Steps: namedSteps("fetch", "store")}

	step, ok := chain.StepByName("store")
	require.True(t, ok)
	assert.Equal(t, StepID("id-store"), step.ID)

	_, ok = chain.StepByName("ghost")
	assert.False(t, ok)
}
