package chains

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/lumen-oss/chainflow/pkg/errors"
	"github.com/lumen-oss/chainflow/pkg/logging"
)

// ExecutionRequest asks the coordinator to run a chain.
type ExecutionRequest struct {
	ChainID string `json:"chain_id"`

	// Version, when set, must match the stored chain's version.
	Version string `json:"version,omitempty"`

	// InitialData seeds every step's input.
	InitialData map[string]interface{} `json:"initial_data,omitempty"`

	// StepOverrides are merged into the named step's input last, so they
	// win over initial data and dependency outputs.
	StepOverrides map[StepName]map[string]interface{} `json:"step_overrides,omitempty"`
}

// execState tracks per-step outcomes during a run. Parallel steps record
// through the mutex; aggregation is keyed by step name so interleaving never
// changes the result.
type execState struct {
	mu       sync.Mutex
	results  map[StepName]*StepResult
	statuses map[StepName]StepStatus
	outputs  map[StepName]map[string]interface{}
}

func newExecState(n int) *execState {
	return &execState{
		results:  make(map[StepName]*StepResult, n),
		statuses: make(map[StepName]StepStatus, n),
		outputs:  make(map[StepName]map[string]interface{}, n),
	}
}

func (s *execState) record(res *StepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.StepName] = res
	s.statuses[res.StepName] = res.Status
	if res.Status == StepSuccess {
		s.outputs[res.StepName] = res.Output
	}
}

func (s *execState) statusOf(name StepName) (StepStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[name]
	return status, ok
}

func (s *execState) outputOf(name StepName) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outputs[name]
	return out, ok
}

// Execute validates the chain, then walks its execution plan invoking the
// step runner per step. Sequential chains run strictly in ascending order;
// parallel chains run each step as soon as its graph dependencies complete.
// A failing step never throws out of Execute: it is captured in its
// StepResult and propagates only into the aggregate status.
func (m *Manager) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	if req.ChainID == "" {
		return nil, ErrMissingChainID
	}
	if req.Version != "" && !versionPattern.MatchString(req.Version) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "malformed chain version"),
			errors.Fields{"version": req.Version})
	}

	chain, err := m.repo.Get(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}
	if req.Version != "" && req.Version != chain.Version {
		return nil, errors.WithFields(
			errors.New(errors.ChainNotFound, "requested chain version not available"),
			errors.Fields{"requested": req.Version, "stored": chain.Version})
	}

	executionID := uuid.NewString()
	ctx = logging.WithChainID(ctx, chain.ID)
	ctx = logging.WithExecutionID(ctx, executionID)
	logger := logging.GetLogger()

	report := m.runValidation(ctx, chain)
	if !report.Valid {
		return nil, &ChainValidationError{ChainID: chain.ID, Report: report}
	}

	graph := BuildDependencyGraph(chain.Steps, chain.DataMappings)
	state := newExecState(len(chain.Steps))
	started := time.Now()

	logger.Info(ctx, "executing chain %s (%d steps, %s order)",
		chain.Name, len(chain.Steps), chain.ExecutionOrder)

	if chain.ExecutionOrder == Parallel {
		m.runParallel(ctx, chain, graph, state, &req)
	} else {
		m.runSequential(ctx, chain, graph, state, &req)
	}

	result := m.aggregate(chain, executionID, state, time.Since(started))
	logger.Info(ctx, "chain execution finished with status %s in %s",
		result.Status, result.TotalTime)
	return result, nil
}

// runSequential executes steps one at a time in ascending order. Step N
// never starts before step N-1 has completed, success or failure. A step
// whose dependency failed or was skipped is skipped itself; later steps
// independent of the failure still run. Context cancellation is checked at
// each step boundary: once the context is done, no further step starts.
func (m *Manager) runSequential(ctx context.Context, chain *Chain, graph DependencyGraph, state *execState, req *ExecutionRequest) {
	ordered := make([]*ChainStep, 0, len(chain.Steps))
	for i := range chain.Steps {
		ordered = append(ordered, &chain.Steps[i])
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, step := range ordered {
		if err := errors.CheckContext(ctx, "sequential execution"); err != nil {
			state.record(&StepResult{
				StepID:   step.ID,
				StepName: step.Name,
				Status:   StepError,
				Err:      err.Error(),
			})
			continue
		}
		if blocked, dep := m.blockedBy(step, graph, state); blocked {
			state.record(m.skipResult(step, dep))
			continue
		}
		state.record(m.runStep(ctx, chain, step, graph, state, req))
	}
}

// runParallel schedules every step whose dependencies can complete on a
// bounded pool. Each step waits only on its own graph dependencies through
// per-step done channels. Steps inside or downstream of a cycle can never
// become ready; they are skipped up front so an unvalidated chain cannot
// deadlock the coordinator.
func (m *Manager) runParallel(ctx context.Context, chain *Chain, graph DependencyGraph, state *execState, req *ExecutionRequest) {
	runnable := resolvableOrder(chain, graph)

	reachable := make(map[StepName]bool, len(runnable))
	for _, step := range runnable {
		reachable[step.Name] = true
	}
	for i := range chain.Steps {
		step := &chain.Steps[i]
		if !reachable[step.Name] {
			res := &StepResult{
				StepID:   step.ID,
				StepName: step.Name,
				Status:   StepSkipped,
				Err:      "skipped: step has cyclic or unresolvable dependencies",
			}
			state.record(res)
		}
	}

	done := make(map[StepName]chan struct{}, len(runnable))
	for _, step := range runnable {
		done[step.Name] = make(chan struct{})
	}

	p := pool.New().WithMaxGoroutines(m.maxConcurrent)
	// Submission in dependency order: a task only ever waits on tasks
	// submitted before it, so a bounded pool cannot starve itself.
	for _, step := range runnable {
		step := step
		p.Go(func() {
			defer close(done[step.Name])

			for _, dep := range graph[step.Name].Dependencies {
				ch, ok := done[dep]
				if !ok {
					continue
				}
				select {
				case <-ch:
				case <-ctx.Done():
					state.record(&StepResult{
						StepID:   step.ID,
						StepName: step.Name,
						Status:   StepError,
						Err:      ctx.Err().Error(),
					})
					return
				}
			}

			if blocked, dep := m.blockedBy(step, graph, state); blocked {
				state.record(m.skipResult(step, dep))
				return
			}
			state.record(m.runStep(ctx, chain, step, graph, state, req))
		})
	}
	p.Wait()
}

// resolvableOrder returns the steps that can eventually run, in an order
// where every step appears after all of its dependencies (Kahn's algorithm).
// Steps left over are part of, or downstream of, a cycle.
func resolvableOrder(chain *Chain, graph DependencyGraph) []*ChainStep {
	stepByName := make(map[StepName]*ChainStep, len(chain.Steps))
	indegree := make(map[StepName]int, len(chain.Steps))
	for i := range chain.Steps {
		step := &chain.Steps[i]
		stepByName[step.Name] = step
		indegree[step.Name] = len(graph[step.Name].Dependencies)
	}

	var queue []StepName
	for _, name := range graph.SortedNames() {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var order []*ChainStep
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if step, ok := stepByName[name]; ok {
			order = append(order, step)
		}
		for _, next := range graph[name].Dependents {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return order
}

// blockedBy reports whether a step must be skipped because one of its
// dependencies finished with an error or was skipped itself.
func (m *Manager) blockedBy(step *ChainStep, graph DependencyGraph, state *execState) (bool, StepName) {
	for _, dep := range graph[step.Name].Dependencies {
		if status, ok := state.statusOf(dep); ok && status != StepSuccess {
			return true, dep
		}
	}
	return false, ""
}

func (m *Manager) skipResult(step *ChainStep, dep StepName) *StepResult {
	return &StepResult{
		StepID:   step.ID,
		StepName: step.Name,
		Status:   StepSkipped,
		Err:      fmt.Sprintf("skipped: dependency %q did not succeed", dep),
	}
}

// runStep resolves the step's resource, assembles its input, and invokes the
// runner, recording wall-clock time. Failures become the step's result and
// never propagate as errors.
func (m *Manager) runStep(ctx context.Context, chain *Chain, step *ChainStep, graph DependencyGraph, state *execState, req *ExecutionRequest) *StepResult {
	logger := logging.GetLogger()
	started := time.Now()
	res := &StepResult{StepID: step.ID, StepName: step.Name}

	resource, err := m.resolver.Resolve(ctx, step.Type, step.Resource.ID, step.Resource.Version)
	if err != nil {
		res.Status = StepError
		res.Err = fmt.Sprintf("resource resolution failed: %v", err)
		res.ExecutionTime = time.Since(started)
		logger.Warn(ctx, "step %s: %s", step.Name, res.Err)
		return res
	}

	inputs := m.buildInputs(chain, step, graph, state, req)

	runCtx := ctx
	if m.stepTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.stepTimeout)
		defer cancel()
	}

	outcome, err := m.runner.Run(runCtx, step, resource, inputs)
	res.ExecutionTime = time.Since(started)
	if err != nil {
		res.Status = StepError
		res.Err = err.Error()
		logger.Warn(ctx, "step %s failed after %s: %v", step.Name, res.ExecutionTime, err)
		return res
	}

	res.Status = StepSuccess
	if outcome != nil {
		res.Output = outcome.Output
	}
	logger.Debug(ctx, "step %s succeeded in %s", step.Name, res.ExecutionTime)
	return res
}

// buildInputs merges, in order of increasing precedence: the request's
// initial data, each successful dependency's output filtered through that
// dependency's OutputMapping, and the request's per-step overrides.
func (m *Manager) buildInputs(chain *Chain, step *ChainStep, graph DependencyGraph, state *execState, req *ExecutionRequest) map[string]interface{} {
	inputs := make(map[string]interface{})
	for k, v := range req.InitialData {
		inputs[k] = v
	}

	deps := append([]StepName(nil), graph[step.Name].Dependencies...)
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })

	for _, dep := range deps {
		output, ok := state.outputOf(dep)
		if !ok {
			continue
		}
		depStep, ok := chain.StepByName(dep)
		if ok && len(depStep.OutputMapping) > 0 {
			for outField, inField := range depStep.OutputMapping {
				if v, present := output[outField]; present {
					inputs[inField] = v
				}
			}
			continue
		}
		for k, v := range output {
			inputs[k] = v
		}
	}

	for k, v := range req.StepOverrides[step.Name] {
		inputs[k] = v
	}
	return inputs
}

// aggregate folds per-step results into the chain-level outcome. All steps
// successful means Success; no step successful means Error; anything in
// between is Partial.
func (m *Manager) aggregate(chain *Chain, executionID string, state *execState, total time.Duration) *ExecutionResult {
	result := &ExecutionResult{
		ChainID:     chain.ID,
		ExecutionID: executionID,
		Results:     make(map[string]interface{}),
		StepResults: make([]StepResult, 0, len(chain.Steps)),
		TotalTime:   total,
	}

	ordered := make([]*ChainStep, 0, len(chain.Steps))
	for i := range chain.Steps {
		ordered = append(ordered, &chain.Steps[i])
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	successes, failures := 0, 0
	firstErr := ""
	for _, step := range ordered {
		res := state.results[step.Name]
		if res == nil {
			res = &StepResult{
				StepID:   step.ID,
				StepName: step.Name,
				Status:   StepSkipped,
				Err:      "skipped: step was never scheduled",
			}
		}
		result.StepResults = append(result.StepResults, *res)

		switch res.Status {
		case StepSuccess:
			successes++
			result.Results[string(step.Name)] = res.Output
		case StepError:
			failures++
			if firstErr == "" {
				firstErr = res.Err
			}
		}
	}

	switch {
	case successes == len(chain.Steps):
		result.Status = StatusSuccess
	case successes == 0:
		result.Status = StatusError
		result.Err = firstErr
	default:
		result.Status = StatusPartial
	}
	if result.Status == StatusError && result.Err == "" && failures == 0 {
		result.Err = "no steps were executed"
	}
	return result
}
