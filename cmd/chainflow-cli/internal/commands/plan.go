package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumen-oss/chainflow/pkg/chains"
)

func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <chain.json>",
		Short: "Show a chain's execution plan",
		Long: `Derive the per-step dependency listing for a chain file and print it in
plan order. The plan shows, for each step, the steps it waits on and the
steps waiting on it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := loadChainFile(args[0])
			if err != nil {
				return err
			}

			plan := chains.ExecutionPlanFor(chain)
			fmt.Printf("chain %q (%s execution)\n", chain.Name, plan.ExecutionOrder)
			for _, entry := range plan.Entries {
				fmt.Printf("  %2d. %-20s deps=[%s] dependents=[%s]\n",
					entry.Order,
					entry.StepName,
					joinIDs(entry.Dependencies),
					joinIDs(entry.Dependents),
				)
			}
			return nil
		},
	}
	return cmd
}

func joinIDs(ids []chains.StepID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
