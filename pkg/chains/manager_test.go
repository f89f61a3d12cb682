package chains_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-oss/chainflow/internal/testutil"
	"github.com/lumen-oss/chainflow/pkg/chains"
	"github.com/lumen-oss/chainflow/pkg/chains/store"
	"github.com/lumen-oss/chainflow/pkg/errors"
	"github.com/lumen-oss/chainflow/pkg/logging"
)

func TestMain(m *testing.M) {
	// Keep engine logs out of test output.
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.FATAL,
		Outputs:  []logging.Output{logging.NewConsoleOutput(true, logging.WithColor(false))},
	}))
	os.Exit(m.Run())
}

func newTestManager(t *testing.T, resolver chains.ResourceResolver, runner chains.StepRunner) (*chains.Manager, *store.MemoryRepository) {
	t.Helper()
	repo := store.NewMemoryRepository()
	if resolver == nil {
		resolver = &testutil.StaticResolver{}
	}
	if runner == nil {
		runner = testutil.NewRecordingRunner()
	}
	m, err := chains.NewManager(repo, resolver, runner, chains.ManagerConfig{MaxConcurrent: 4})
	require.NoError(t, err)
	return m, repo
}

func step(name chains.StepName, order int) chains.ChainStep {
	return chains.ChainStep{
		Name:  name,
		Type:  chains.StepTypePrompt,
		Order: order,
		Resource: chains.ResourceRef{
			ID: "res-" + string(name),
		},
	}
}

func mapping(from, to chains.StepName) chains.DataMapping {
	return chains.DataMapping{
		FromStep:     from,
		ToStep:       to,
		FieldMapping: map[string]string{"out": "in"},
	}
}

func linearChain(order chains.ExecutionOrder) *chains.Chain {
	return &chains.Chain{
		Name:           "etl",
		Author:         "tests",
		ExecutionOrder: order,
		Steps: []chains.ChainStep{
			step("fetch", 0),
			step("transform", 1),
			step("store", 2),
		},
		DataMappings: []chains.DataMapping{
			mapping("fetch", "transform"),
			mapping("transform", "store"),
		},
	}
}

func TestCreateChain(t *testing.T) {
	t.Run("Valid chain persisted with ids and version", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		created, err := m.CreateChain(context.Background(), linearChain(chains.Sequential))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "1.0.0", created.Version)
		for _, s := range created.Steps {
			assert.NotEmpty(t, s.ID)
		}
		assert.False(t, created.CreatedAt.IsZero())

		got, err := m.GetChain(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Name, got.Name)
	})

	t.Run("Empty chain rejected", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		chain := linearChain(chains.Sequential)
		chain.Steps = nil
		chain.DataMappings = nil

		_, err := m.CreateChain(context.Background(), chain)
		var vErr *chains.ChainValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Report.Errors, "chain must have at least one step")
	})

	t.Run("Self loop mapping rejected", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		chain := linearChain(chains.Sequential)
		chain.DataMappings = append(chain.DataMappings, mapping("fetch", "fetch"))

		_, err := m.CreateChain(context.Background(), chain)
		var vErr *chains.ChainValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Report.Errors,
			`data mapping from step "fetch" to itself is not allowed`)
	})

	t.Run("Dangling resource rejected", func(t *testing.T) {
		resolver := &testutil.StaticResolver{Missing: map[string]bool{"res-transform": true}}
		m, _ := newTestManager(t, resolver, nil)

		_, err := m.CreateChain(context.Background(), linearChain(chains.Sequential))
		var vErr *chains.ChainValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Report.Errors, 1)
		assert.Contains(t, vErr.Report.Errors[0], `step "transform"`)
		assert.Contains(t, vErr.Report.Errors[0], "unresolvable")
	})

	t.Run("Nil chain is a usage error", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)
		_, err := m.CreateChain(context.Background(), nil)
		assert.True(t, errors.HasCode(err, errors.InvalidInput))
	})

	t.Run("Order gap only warns", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		chain := linearChain(chains.Sequential)
		chain.Steps[1].Order = 2
		chain.Steps[2].Order = 3

		created, err := m.CreateChain(context.Background(), chain)
		require.NoError(t, err)

		report, err := m.ValidateChain(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		require.NotEmpty(t, report.Warnings)
		assert.Contains(t, report.Warnings[len(report.Warnings)-1], "order gap")
	})
}

func TestValidateChain(t *testing.T) {
	t.Run("Valid linear chain", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)
		created, err := m.CreateChain(context.Background(), linearChain(chains.Sequential))
		require.NoError(t, err)

		report, err := m.ValidateChain(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.Empty(t, report.Errors)
		assert.Empty(t, report.Warnings)
	})

	t.Run("Cycle reported regardless of entry point", func(t *testing.T) {
		m, repo := newTestManager(t, nil, nil)

		// Cycle c -> d -> c sits past the linear prefix a -> b -> c.
		chain := &chains.Chain{
			ID:             "cyclic",
			Name:           "cyclic",
			Version:        "1.0.0",
			ExecutionOrder: chains.Sequential,
			Steps: []chains.ChainStep{
				step("a", 0), step("b", 1), step("c", 2), step("d", 3), step("e", 4),
			},
			DataMappings: []chains.DataMapping{
				mapping("a", "b"),
				mapping("b", "c"),
				mapping("c", "d"),
				mapping("d", "c"),
			},
		}
		require.NoError(t, repo.Put(context.Background(), chain))

		report, err := m.ValidateChain(context.Background(), "cyclic")
		require.NoError(t, err)
		assert.False(t, report.Valid)

		found := false
		for _, line := range report.Errors {
			if strings.Contains(line, "circular dependency") {
				found = true
			}
		}
		assert.True(t, found, "expected a circular dependency error, got %v", report.Errors)
	})

	t.Run("Cycle elsewhere leaves unrelated steps alone", func(t *testing.T) {
		m, repo := newTestManager(t, nil, nil)

		chain := &chains.Chain{
			ID:             "islands",
			Name:           "islands",
			Version:        "1.0.0",
			ExecutionOrder: chains.Sequential,
			Steps: []chains.ChainStep{
				step("a", 0), step("b", 1), step("c", 2), step("d", 3),
			},
			DataMappings: []chains.DataMapping{
				mapping("a", "b"),
				mapping("b", "a"),
				mapping("c", "d"),
			},
		}
		require.NoError(t, repo.Put(context.Background(), chain))

		report, err := m.ValidateChain(context.Background(), "islands")
		require.NoError(t, err)
		assert.False(t, report.Valid)
		for _, line := range report.Errors {
			assert.NotContains(t, line, `"c"`)
			assert.NotContains(t, line, `"d"`)
		}
	})

	t.Run("Unreachable step warns only", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		chain := linearChain(chains.Sequential)
		chain.Steps = append(chain.Steps, step("orphan", 3))

		created, err := m.CreateChain(context.Background(), chain)
		require.NoError(t, err)

		report, err := m.ValidateChain(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], `"orphan"`)
		assert.Contains(t, report.Warnings[0], "unreachable")
	})

	t.Run("Missing entry step noted for sequential chains", func(t *testing.T) {
		m, repo := newTestManager(t, nil, nil)

		chain := &chains.Chain{
			ID:             "no-entry",
			Name:           "no-entry",
			Version:        "1.0.0",
			ExecutionOrder: chains.Sequential,
			Steps:          []chains.ChainStep{step("a", 1), step("b", 2)},
		}
		require.NoError(t, repo.Put(context.Background(), chain))

		report, err := m.ValidateChain(context.Background(), "no-entry")
		require.NoError(t, err)
		assert.True(t, report.Valid)
		assert.Contains(t, report.Warnings[0], "reachability check not applicable")
	})

	t.Run("Duplicate step names rejected", func(t *testing.T) {
		m, repo := newTestManager(t, nil, nil)

		chain := &chains.Chain{
			ID:             "dupes",
			Name:           "dupes",
			Version:        "1.0.0",
			ExecutionOrder: chains.Parallel,
			Steps:          []chains.ChainStep{step("same", 0), step("same", 1)},
		}
		require.NoError(t, repo.Put(context.Background(), chain))

		report, err := m.ValidateChain(context.Background(), "dupes")
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.Contains(t, report.Errors, `duplicate step name "same"`)
	})

	t.Run("Bad chain version reported", func(t *testing.T) {
		m, repo := newTestManager(t, nil, nil)

		chain := linearChain(chains.Sequential)
		chain.ID = "bad-version"
		chain.Version = "not-a-version"
		require.NoError(t, repo.Put(context.Background(), chain))

		report, err := m.ValidateChain(context.Background(), "bad-version")
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.Contains(t, report.Errors, `"not-a-version" is not a valid chain version`)
	})

	t.Run("Idempotent across calls", func(t *testing.T) {
		m, repo := newTestManager(t, nil, nil)

		chain := linearChain(chains.Sequential)
		chain.ID = "idempotent"
		chain.Version = "1.0.0"
		chain.Steps = append(chain.Steps, step("orphan", 4))
		chain.DataMappings = append(chain.DataMappings, mapping("ghost", "fetch"))
		require.NoError(t, repo.Put(context.Background(), chain))

		first, err := m.ValidateChain(context.Background(), "idempotent")
		require.NoError(t, err)
		second, err := m.ValidateChain(context.Background(), "idempotent")
		require.NoError(t, err)

		assert.Equal(t, first.Errors, second.Errors)
		assert.Equal(t, first.Warnings, second.Warnings)
		assert.Equal(t, first.Valid, second.Valid)
	})

	t.Run("Usage errors returned not reported", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		_, err := m.ValidateChain(context.Background(), "")
		assert.True(t, errors.HasCode(err, errors.InvalidInput))

		_, err = m.ValidateChain(context.Background(), "missing")
		assert.True(t, errors.HasCode(err, errors.ChainNotFound))
	})
}

func TestUpdateChain(t *testing.T) {
	t.Run("Invalid update leaves stored chain untouched", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		created, err := m.CreateChain(context.Background(), linearChain(chains.Sequential))
		require.NoError(t, err)

		broken := created.Clone()
		broken.DataMappings = append(broken.DataMappings, mapping("store", "fetch"))

		_, err = m.UpdateChain(context.Background(), broken)
		var vErr *chains.ChainValidationError
		require.ErrorAs(t, err, &vErr)

		got, err := m.GetChain(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Len(t, got.DataMappings, 2)
	})

	t.Run("Valid update persists and keeps created time", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		created, err := m.CreateChain(context.Background(), linearChain(chains.Sequential))
		require.NoError(t, err)

		updated := created.Clone()
		updated.Description = "second revision"
		updated.Version = "1.1.0"

		result, err := m.UpdateChain(context.Background(), updated)
		require.NoError(t, err)
		assert.Equal(t, "second revision", result.Description)
		assert.Equal(t, created.CreatedAt, result.CreatedAt)
		assert.Equal(t, "1.1.0", result.Version)
	})

	t.Run("Unknown chain", func(t *testing.T) {
		m, _ := newTestManager(t, nil, nil)

		chain := linearChain(chains.Sequential)
		chain.ID = "ghost"
		_, err := m.UpdateChain(context.Background(), chain)
		assert.True(t, errors.HasCode(err, errors.ChainNotFound))
	})
}

func TestDeleteChain(t *testing.T) {
	m, _ := newTestManager(t, nil, nil)

	created, err := m.CreateChain(context.Background(), linearChain(chains.Sequential))
	require.NoError(t, err)

	require.NoError(t, m.DeleteChain(context.Background(), created.ID))

	_, err = m.GetChain(context.Background(), created.ID)
	assert.True(t, errors.HasCode(err, errors.ChainNotFound))

	assert.True(t, errors.HasCode(
		m.DeleteChain(context.Background(), created.ID), errors.ChainNotFound))
}

func TestGetExecutionPlan(t *testing.T) {
	m, _ := newTestManager(t, nil, nil)

	created, err := m.CreateChain(context.Background(), linearChain(chains.Sequential))
	require.NoError(t, err)

	plan, err := m.GetExecutionPlan(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 3)

	byName := make(map[chains.StepName]chains.PlanEntry)
	idByName := make(map[chains.StepName]chains.StepID)
	for _, s := range created.Steps {
		idByName[s.Name] = s.ID
	}
	for _, e := range plan.Entries {
		byName[e.StepName] = e
	}

	assert.Equal(t, []chains.StepID{idByName["transform"]}, byName["fetch"].Dependents)
	assert.Equal(t, []chains.StepID{idByName["fetch"]}, byName["transform"].Dependencies)
	assert.Equal(t, []chains.StepID{idByName["store"]}, byName["transform"].Dependents)
	assert.Equal(t, []chains.StepID{idByName["transform"]}, byName["store"].Dependencies)
}
