package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumen-oss/chainflow/pkg/chains"
)

func NewRunCommand() *cobra.Command {
	var configPath string
	var initialData []string

	cmd := &cobra.Command{
		Use:   "run <chain.json>",
		Short: "Dry-run a chain through the coordinator",
		Long: `Import a chain file and execute it with a stub step runner that echoes
each step's input. The real coordinator drives the run, so ordering,
skip semantics, and status aggregation behave exactly as in production.`,
		Example: `  # Dry-run with seed data
  chainflow-cli run examples/etl.json --data tenant=acme --data source=s3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := setupEngine(configPath)
			if err != nil {
				return err
			}

			created, err := importChain(cmd.Context(), engine, args[0])
			if err != nil {
				return err
			}

			data := make(map[string]interface{}, len(initialData))
			for _, pair := range initialData {
				key, value, found := strings.Cut(pair, "=")
				if !found {
					return fmt.Errorf("invalid --data entry %q, expected key=value", pair)
				}
				data[key] = value
			}

			result, err := engine.Execute(cmd.Context(), chains.ExecutionRequest{
				ChainID:     created.ID,
				InitialData: data,
			})
			if err != nil {
				return err
			}

			fmt.Printf("execution %s finished: %s (%s)\n",
				result.ExecutionID, result.Status, result.TotalTime)
			for _, sr := range result.StepResults {
				line := fmt.Sprintf("  %-20s %-8s %s", sr.StepName, sr.Status, sr.ExecutionTime)
				if sr.Err != "" {
					line += "  " + sr.Err
				}
				fmt.Println(line)
			}
			if result.Err != "" {
				return fmt.Errorf("chain failed: %s", result.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "engine config file")
	cmd.Flags().StringArrayVar(&initialData, "data", nil, "initial data entries as key=value")
	return cmd
}
