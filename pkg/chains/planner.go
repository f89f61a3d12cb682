package chains

import "sort"

// PlanEntry lists one step's immediate dependency and dependent step ids.
type PlanEntry struct {
	StepID   StepID   `json:"step_id"`
	StepName StepName `json:"step_name"`
	Order    int      `json:"order"`

	Dependencies []StepID `json:"dependencies"`
	Dependents   []StepID `json:"dependents"`
}

// ExecutionPlan is the derived per-step dependency listing a runner consumes.
// The planner does not order steps topologically; scheduling is the
// coordinator's job, informed by ExecutionOrder and the dependency lists.
type ExecutionPlan struct {
	ChainID        string         `json:"chain_id"`
	ExecutionOrder ExecutionOrder `json:"execution_order"`
	Entries        []PlanEntry    `json:"entries"`
}

// ExecutionPlanFor builds the name-keyed dependency graph and re-keys it to
// step ids. The name-to-id resolution happens exactly once, here. Mappings
// naming unknown steps were already excluded by the graph builder; validation
// is a separate, previously-run step and the planner must not fail on them.
func ExecutionPlanFor(chain *Chain) *ExecutionPlan {
	graph := BuildDependencyGraph(chain.Steps, chain.DataMappings)

	idByName := make(map[StepName]StepID, len(chain.Steps))
	for i := range chain.Steps {
		idByName[chain.Steps[i].Name] = chain.Steps[i].ID
	}

	plan := &ExecutionPlan{
		ChainID:        chain.ID,
		ExecutionOrder: chain.ExecutionOrder,
		Entries:        make([]PlanEntry, 0, len(chain.Steps)),
	}

	for i := range chain.Steps {
		step := &chain.Steps[i]
		node := graph[step.Name]
		plan.Entries = append(plan.Entries, PlanEntry{
			StepID:       step.ID,
			StepName:     step.Name,
			Order:        step.Order,
			Dependencies: resolveIDs(node.Dependencies, idByName),
			Dependents:   resolveIDs(node.Dependents, idByName),
		})
	}

	sort.SliceStable(plan.Entries, func(i, j int) bool {
		return plan.Entries[i].Order < plan.Entries[j].Order
	})

	return plan
}

func resolveIDs(names []StepName, idByName map[StepName]StepID) []StepID {
	ids := make([]StepID, 0, len(names))
	for _, name := range names {
		if id, ok := idByName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
