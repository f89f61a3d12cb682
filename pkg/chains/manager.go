package chains

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/lumen-oss/chainflow/pkg/errors"
	"github.com/lumen-oss/chainflow/pkg/logging"
)

// versionPattern accepts dotted numeric versions like "1", "1.2" or "1.2.3",
// with an optional leading v.
var versionPattern = regexp.MustCompile(`^v?\d+(\.\d+){0,2}$`)

const defaultVersion = "1.0.0"

// ManagerConfig tunes the manager's concurrency behavior.
type ManagerConfig struct {
	// MaxConcurrent bounds concurrent resource checks during validation
	// and concurrent step execution in parallel mode.
	MaxConcurrent int

	// StepTimeout applies to each individual step-runner invocation.
	// Zero disables the per-step timeout.
	StepTimeout time.Duration
}

// Manager owns the chain lifecycle: CRUD against the repository, validation,
// execution planning, and execution. All operations work on a snapshot of the
// chain taken at entry so concurrent updates cannot be observed mid-call.
type Manager struct {
	repo     ChainRepository
	resolver ResourceResolver
	runner   StepRunner
	validate *validator.Validate

	maxConcurrent int
	stepTimeout   time.Duration
}

// NewManager wires a manager to its collaborators.
func NewManager(repo ChainRepository, resolver ResourceResolver, runner StepRunner, cfg ManagerConfig) (*Manager, error) {
	if repo == nil || resolver == nil || runner == nil {
		return nil, errors.New(errors.InvalidInput, "repository, resolver and runner are required")
	}

	validate := validator.New()
	err := validate.RegisterValidation("chain_version", func(fl validator.FieldLevel) bool {
		return versionPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to register chain_version validator")
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	return &Manager{
		repo:          repo,
		resolver:      resolver,
		runner:        runner,
		validate:      validate,
		maxConcurrent: maxConcurrent,
		stepTimeout:   cfg.StepTimeout,
	}, nil
}

// CreateChain validates the chain and persists it. Validation errors reject
// the create outright; warnings are logged and allowed through. The chain id
// and step ids are assigned here when absent.
func (m *Manager) CreateChain(ctx context.Context, chain *Chain) (*Chain, error) {
	if chain == nil {
		return nil, ErrNilChain
	}

	c := chain.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i := range c.Steps {
		if c.Steps[i].ID == "" {
			c.Steps[i].ID = StepID(uuid.NewString())
		}
	}
	if c.Version == "" {
		c.Version = defaultVersion
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	ctx = logging.WithChainID(ctx, c.ID)
	report := m.runValidation(ctx, c)
	m.logWarnings(ctx, report)
	if !report.Valid {
		return nil, &ChainValidationError{ChainID: c.ID, Report: report}
	}

	if err := m.repo.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to persist chain")
	}

	logging.GetLogger().Info(ctx, "created chain %s with %d steps", c.Name, len(c.Steps))
	return c.Clone(), nil
}

// GetChain returns a copy of the stored chain.
func (m *Manager) GetChain(ctx context.Context, id string) (*Chain, error) {
	if id == "" {
		return nil, ErrMissingChainID
	}
	return m.repo.Get(ctx, id)
}

// ListChains returns copies of every stored chain.
func (m *Manager) ListChains(ctx context.Context) ([]*Chain, error) {
	return m.repo.List(ctx)
}

// UpdateChain replaces the stored chain after re-validating it. An update is
// all-or-nothing: it either fully validates and persists, or the stored chain
// is left untouched.
func (m *Manager) UpdateChain(ctx context.Context, chain *Chain) (*Chain, error) {
	if chain == nil {
		return nil, ErrNilChain
	}
	if chain.ID == "" {
		return nil, ErrMissingChainID
	}

	existing, err := m.repo.Get(ctx, chain.ID)
	if err != nil {
		return nil, err
	}

	c := chain.Clone()
	for i := range c.Steps {
		if c.Steps[i].ID == "" {
			c.Steps[i].ID = StepID(uuid.NewString())
		}
	}
	if c.Version == "" {
		c.Version = existing.Version
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	ctx = logging.WithChainID(ctx, c.ID)
	report := m.runValidation(ctx, c)
	m.logWarnings(ctx, report)
	if !report.Valid {
		return nil, &ChainValidationError{ChainID: c.ID, Report: report}
	}

	if err := m.repo.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to persist chain")
	}

	logging.GetLogger().Info(ctx, "updated chain %s", c.Name)
	return c.Clone(), nil
}

// DeleteChain removes a chain unconditionally. Nothing checks whether other
// chains reference the deleted one; there is no cross-chain graph.
func (m *Manager) DeleteChain(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingChainID
	}
	return m.repo.Delete(ctx, id)
}

// ValidateChain runs the full validation suite against the stored chain and
// returns the report. Expected domain conditions (cycles, dangling resources,
// empty step lists) land in the report; only usage errors (missing id,
// unknown chain) are returned as errors.
func (m *Manager) ValidateChain(ctx context.Context, id string) (*Report, error) {
	if id == "" {
		return nil, ErrMissingChainID
	}
	chain, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.runValidation(logging.WithChainID(ctx, chain.ID), chain), nil
}

// ValidateDefinition runs the validation suite against a chain that has not
// been persisted, for create-time or ad-hoc checks.
func (m *Manager) ValidateDefinition(ctx context.Context, chain *Chain) (*Report, error) {
	if chain == nil {
		return nil, ErrNilChain
	}
	return m.runValidation(ctx, chain.Clone()), nil
}

// GetExecutionPlan derives the per-step dependency listing for the stored
// chain. The plan does not imply the chain is valid; run ValidateChain for
// that.
func (m *Manager) GetExecutionPlan(ctx context.Context, id string) (*ExecutionPlan, error) {
	if id == "" {
		return nil, ErrMissingChainID
	}
	chain, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ExecutionPlanFor(chain), nil
}

// runValidation performs every check against an in-memory snapshot:
// step-count, struct-level field checks, duplicate step names, data-mapping
// integrity, cycle detection, concurrent resource resolution, reachability,
// and sequential order gaps. Output ordering is deterministic so repeated
// validation of an unmodified chain produces identical reports.
func (m *Manager) runValidation(ctx context.Context, chain *Chain) *Report {
	report := &Report{Errors: []string{}, Warnings: []string{}}

	if len(chain.Steps) == 0 {
		report.Errors = append(report.Errors, "chain must have at least one step")
	}

	report.Errors = append(report.Errors, m.structErrors(chain)...)

	seen := make(map[StepName]bool, len(chain.Steps))
	for i := range chain.Steps {
		name := chain.Steps[i].Name
		if seen[name] {
			report.Errors = append(report.Errors,
				fmt.Sprintf("duplicate step name %q", name))
		}
		seen[name] = true
	}

	for i := range chain.DataMappings {
		mp := &chain.DataMappings[i]
		if mp.FromStep == mp.ToStep {
			report.Errors = append(report.Errors,
				fmt.Sprintf("data mapping from step %q to itself is not allowed", mp.FromStep))
			continue
		}
		if !seen[mp.FromStep] {
			report.Errors = append(report.Errors,
				fmt.Sprintf("data mapping references unknown step %q", mp.FromStep))
		}
		if !seen[mp.ToStep] {
			report.Errors = append(report.Errors,
				fmt.Sprintf("data mapping references unknown step %q", mp.ToStep))
		}
	}

	graph := BuildDependencyGraph(chain.Steps, chain.DataMappings)
	report.Errors = append(report.Errors, FindCircularDependencies(graph)...)
	report.Errors = append(report.Errors, m.resourceErrors(ctx, chain)...)

	if unreachable, applicable := FindUnreachableSteps(chain, graph); applicable {
		for _, name := range unreachable {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("step %q is potentially unreachable from the entry step", name))
		}
	} else if chain.ExecutionOrder == Sequential && len(chain.Steps) > 0 {
		report.Warnings = append(report.Warnings,
			"reachability check not applicable: no unique entry step with order 0")
	}

	if chain.ExecutionOrder == Sequential {
		report.Warnings = append(report.Warnings, FindOrderGaps(chain.Steps)...)
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// structErrors maps validator tag failures onto report error lines.
func (m *Manager) structErrors(chain *Chain) []string {
	err := m.validate.Struct(chain)
	if err == nil {
		return nil
	}
	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	var out []string
	for _, fieldErr := range invalid {
		switch fieldErr.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fieldErr.Namespace()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s has an unsupported value %q",
				fieldErr.Namespace(), fmt.Sprint(fieldErr.Value())))
		case "chain_version":
			out = append(out, fmt.Sprintf("%q is not a valid chain version",
				fmt.Sprint(fieldErr.Value())))
		case "min":
			out = append(out, fmt.Sprintf("%s must not be negative", fieldErr.Namespace()))
		default:
			out = append(out, fmt.Sprintf("%s failed %s validation",
				fieldErr.Namespace(), fieldErr.Tag()))
		}
	}
	return out
}

// resourceErrors resolves every step's resource reference. The checks are
// independent, so they run concurrently; per-step results land in an indexed
// slice to keep the aggregated order deterministic. A resolver failure for a
// step becomes one error line, never a returned error.
func (m *Manager) resourceErrors(ctx context.Context, chain *Chain) []string {
	lines := make([]string, len(chain.Steps))

	p := pool.New().WithMaxGoroutines(m.maxConcurrent)
	for i := range chain.Steps {
		i := i
		p.Go(func() {
			step := &chain.Steps[i]
			if _, err := m.resolver.Resolve(ctx, step.Type, step.Resource.ID, step.Resource.Version); err != nil {
				lines[i] = fmt.Sprintf("step %q references unresolvable %s %q: %v",
					step.Name, step.Type, step.Resource.ID, err)
			}
		})
	}
	p.Wait()

	var out []string
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (m *Manager) logWarnings(ctx context.Context, report *Report) {
	logger := logging.GetLogger()
	for _, warning := range report.Warnings {
		logger.Warn(ctx, "chain validation: %s", warning)
	}
}
