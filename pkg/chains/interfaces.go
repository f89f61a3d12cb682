package chains

import "context"

// ResourceDescriptor is the resolved form of a ResourceRef. The engine treats
// its payload as opaque and only passes it through to the step runner.
type ResourceDescriptor struct {
	Type     StepType               `json:"type"`
	ID       string                 `json:"id"`
	Version  string                 `json:"version,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ResourceResolver confirms that a referenced prompt or template exists and
// returns its descriptor. Implementations report dangling references with an
// errors.ResourceNotFound error.
type ResourceResolver interface {
	Resolve(ctx context.Context, typ StepType, resourceID, resourceVersion string) (*ResourceDescriptor, error)
}

// StepOutcome is the payload produced by one step invocation.
type StepOutcome struct {
	Output map[string]interface{} `json:"output,omitempty"`
}

// StepRunner performs the actual step work (prompt compilation, model
// invocation) outside this engine. Expected domain failures surface as
// errors.StepExecutionFailed errors; the coordinator captures them per step
// and never lets one abort independent siblings.
type StepRunner interface {
	Run(ctx context.Context, step *ChainStep, resource *ResourceDescriptor, inputs map[string]interface{}) (*StepOutcome, error)
}

// StepRunnerFunc adapts a plain function to the StepRunner interface.
type StepRunnerFunc func(ctx context.Context, step *ChainStep, resource *ResourceDescriptor, inputs map[string]interface{}) (*StepOutcome, error)

func (f StepRunnerFunc) Run(ctx context.Context, step *ChainStep, resource *ResourceDescriptor, inputs map[string]interface{}) (*StepOutcome, error) {
	return f(ctx, step, resource, inputs)
}

// ChainRepository abstracts chain persistence. Implementations must serialize
// concurrent writes to the same chain id and must return copies the caller
// may mutate freely.
type ChainRepository interface {
	Get(ctx context.Context, id string) (*Chain, error)
	Put(ctx context.Context, chain *Chain) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Chain, error)
}
