package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumen-oss/chainflow/cmd/chainflow-cli/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "chainflow-cli",
	Short: "Validate, plan, and dry-run prompt chains",
	Long: `A command-line interface for the chainflow engine that validates chain
definitions, inspects their execution plans, and dry-runs them with a stub
step runner.

The CLI provides:
- Structural validation of chain files (cycles, dangling mappings, order gaps)
- Execution-plan inspection with per-step dependency listings
- Dry runs that walk the real coordinator without calling a model backend`,
	Version: "0.1.0",
}

func main() {
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewPlanCommand())
	rootCmd.AddCommand(commands.NewRunCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
