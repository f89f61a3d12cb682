// Package testutil holds shared test doubles for the engine's external
// collaborators.
package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/lumen-oss/chainflow/pkg/chains"
	"github.com/lumen-oss/chainflow/pkg/errors"
)

// MockResourceResolver is a testify mock for chains.ResourceResolver.
type MockResourceResolver struct {
	mock.Mock
}

func (m *MockResourceResolver) Resolve(ctx context.Context, typ chains.StepType, resourceID, resourceVersion string) (*chains.ResourceDescriptor, error) {
	args := m.Called(ctx, typ, resourceID, resourceVersion)
	if desc := args.Get(0); desc != nil {
		return desc.(*chains.ResourceDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockStepRunner is a testify mock for chains.StepRunner.
type MockStepRunner struct {
	mock.Mock
}

func (m *MockStepRunner) Run(ctx context.Context, step *chains.ChainStep, resource *chains.ResourceDescriptor, inputs map[string]interface{}) (*chains.StepOutcome, error) {
	args := m.Called(ctx, step, resource, inputs)
	if outcome := args.Get(0); outcome != nil {
		return outcome.(*chains.StepOutcome), args.Error(1)
	}
	return nil, args.Error(1)
}

// StaticResolver resolves every reference except the ids listed in Missing.
// It avoids per-call mock setup in tests that only care about existence.
type StaticResolver struct {
	Missing map[string]bool
}

func (r *StaticResolver) Resolve(ctx context.Context, typ chains.StepType, resourceID, resourceVersion string) (*chains.ResourceDescriptor, error) {
	if r.Missing[resourceID] {
		return nil, errors.WithFields(
			errors.New(errors.ResourceNotFound, "resource not found"),
			errors.Fields{"resource_id": resourceID})
	}
	return &chains.ResourceDescriptor{
		Type:    typ,
		ID:      resourceID,
		Version: resourceVersion,
	}, nil
}

// RecordingRunner runs a per-step handler and records invocation order. It is
// safe for concurrent use.
type RecordingRunner struct {
	mu        sync.Mutex
	Handlers  map[chains.StepName]func(inputs map[string]interface{}) (*chains.StepOutcome, error)
	Sequence  []chains.StepName
	SeenInput map[chains.StepName]map[string]interface{}
}

func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{
		Handlers:  make(map[chains.StepName]func(inputs map[string]interface{}) (*chains.StepOutcome, error)),
		SeenInput: make(map[chains.StepName]map[string]interface{}),
	}
}

func (r *RecordingRunner) Run(ctx context.Context, step *chains.ChainStep, resource *chains.ResourceDescriptor, inputs map[string]interface{}) (*chains.StepOutcome, error) {
	r.mu.Lock()
	r.Sequence = append(r.Sequence, step.Name)
	r.SeenInput[step.Name] = inputs
	handler := r.Handlers[step.Name]
	r.mu.Unlock()

	if handler != nil {
		return handler(inputs)
	}
	return &chains.StepOutcome{Output: map[string]interface{}{string(step.Name): "done"}}, nil
}
