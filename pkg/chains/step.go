package chains

// StepName identifies a step within a chain by its human label. Data mappings
// join on names, not ids.
type StepName string

// StepID is the opaque identifier assigned to a step at creation time.
// Execution plans are keyed by id; the two keyspaces must not be mixed.
type StepID string

// StepType distinguishes the kind of resource a step invokes.
type StepType string

const (
	StepTypePrompt   StepType = "prompt"
	StepTypeTemplate StepType = "template"
)

// ResourceRef is an opaque pointer to a prompt or template, resolved by the
// external ResourceResolver.
type ResourceRef struct {
	ID      string `json:"resource_id" validate:"required"`
	Version string `json:"resource_version,omitempty"`
}

// ChainStep is one unit of work in a chain.
type ChainStep struct {
	ID   StepID   `json:"id"`
	Name StepName `json:"name" validate:"required"`
	Type StepType `json:"type" validate:"required,oneof=prompt template"`

	Resource ResourceRef `json:"resource"`

	// InputMapping and OutputMapping rename fields crossing the step
	// boundary. The engine only consults OutputMapping when feeding a
	// dependent step; values are otherwise opaque.
	InputMapping  map[string]string `json:"input_mapping,omitempty"`
	OutputMapping map[string]string `json:"output_mapping,omitempty"`

	// Condition is an opaque predicate expression evaluated by the step
	// runner, never by this engine.
	Condition string `json:"condition,omitempty"`

	// Order positions the step when the chain executes sequentially.
	Order int `json:"order" validate:"min=0"`
}

func (s *ChainStep) clone() ChainStep {
	out := *s
	out.InputMapping = cloneStringMap(s.InputMapping)
	out.OutputMapping = cloneStringMap(s.OutputMapping)
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
