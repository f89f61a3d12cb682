package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate <chain.json>",
		Short: "Validate a chain definition",
		Long: `Run the full validation suite against a chain file: step and mapping
integrity, cycle detection, resource references, reachability, and
sequential order gaps. Errors make the chain invalid; warnings are advisory.`,
		Example: `  # Validate a chain definition
  chainflow-cli validate examples/etl.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := setupEngine(configPath)
			if err != nil {
				return err
			}
			chain, err := loadChainFile(args[0])
			if err != nil {
				return err
			}

			report, err := engine.ValidateDefinition(cmd.Context(), chain)
			if err != nil {
				return err
			}

			for _, line := range report.Errors {
				fmt.Printf("error: %s\n", line)
			}
			for _, line := range report.Warnings {
				fmt.Printf("warning: %s\n", line)
			}
			if report.Valid {
				fmt.Printf("chain %q is valid (%d warnings)\n", chain.Name, len(report.Warnings))
				return nil
			}
			return fmt.Errorf("chain %q is invalid: %d errors", chain.Name, len(report.Errors))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "engine config file")
	return cmd
}
