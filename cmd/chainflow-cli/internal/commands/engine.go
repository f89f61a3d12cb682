package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lumen-oss/chainflow/pkg/chains"
	"github.com/lumen-oss/chainflow/pkg/chains/store"
	"github.com/lumen-oss/chainflow/pkg/config"
	"github.com/lumen-oss/chainflow/pkg/logging"
)

// dryRunRunner echoes each step's identity and input back as its output so
// the coordinator can be exercised without a model backend.
type dryRunRunner struct{}

func (dryRunRunner) Run(_ context.Context, step *chains.ChainStep, resource *chains.ResourceDescriptor, inputs map[string]interface{}) (*chains.StepOutcome, error) {
	return &chains.StepOutcome{Output: map[string]interface{}{
		"step":     string(step.Name),
		"resource": resource.ID,
		"inputs":   inputs,
	}}, nil
}

// acceptAllResolver treats every resource reference as resolvable. The CLI
// has no prompt-management backend to ask.
type acceptAllResolver struct{}

func (acceptAllResolver) Resolve(_ context.Context, typ chains.StepType, id, version string) (*chains.ResourceDescriptor, error) {
	return &chains.ResourceDescriptor{Type: typ, ID: id, Version: version}, nil
}

// setupEngine loads configuration and wires a manager against the configured
// repository, the accept-all resolver, and the dry-run step runner.
func setupEngine(configPath string) (*chains.Manager, error) {
	cfg := config.GetDefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	outputs := []logging.Output{
		logging.NewConsoleOutput(true, logging.WithColor(cfg.Logging.UseColor)),
	}
	if cfg.Logging.FilePath != "" {
		fileOut, err := logging.NewFileOutput(cfg.Logging.FilePath)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, fileOut)
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Level),
		Outputs:  outputs,
	}))

	var repo chains.ChainRepository
	switch cfg.Storage.Driver {
	case "sqlite":
		sqliteRepo, err := store.NewSQLiteRepository(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		repo = sqliteRepo
	default:
		repo = store.NewMemoryRepository()
	}

	return chains.NewManager(repo, acceptAllResolver{}, dryRunRunner{}, chains.ManagerConfig{
		MaxConcurrent: cfg.Execution.MaxConcurrent,
		StepTimeout:   cfg.Execution.DefaultTimeout,
	})
}

// loadChainFile parses a chain definition from JSON.
func loadChainFile(path string) (*chains.Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain file %s: %w", path, err)
	}
	chain := &chains.Chain{}
	if err := json.Unmarshal(data, chain); err != nil {
		return nil, fmt.Errorf("failed to parse chain file %s: %w", path, err)
	}
	return chain, nil
}

// importChain loads a chain file and persists it through the manager so
// subsequent operations can address it by id.
func importChain(ctx context.Context, m *chains.Manager, path string) (*chains.Chain, error) {
	chain, err := loadChainFile(path)
	if err != nil {
		return nil, err
	}
	return m.CreateChain(ctx, chain)
}
