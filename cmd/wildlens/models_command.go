package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var priority string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the router can reach, in routing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if priority == "" {
				priority = cfg.LLM.Priority
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			router := ctx.newRouter(cfg, logger)
			if router == nil {
				return fmt.Errorf("no LLM provider key configured; set one under [llm] or export OPENAI_API_KEY")
			}

			models := router.Models(priority)
			if jsonOut {
				return writeJSON(cmd, models)
			}
			if len(models) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reachable models")
				return nil
			}

			rows := make([][]string, 0, len(models))
			for _, model := range models {
				rows = append(rows, []string{
					model.ID,
					model.Provider,
					strings.Join(model.Tags, ", "),
					fmt.Sprintf("$%.4f", model.CostPer1K),
					(time.Duration(model.AvgResponseMillis) * time.Millisecond).String(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]tableColumn{
				{Title: "Model"},
				{Title: "Provider"},
				{Title: "Tags"},
				{Title: "Cost/1K", Numeric: true},
				{Title: "Avg Response", Numeric: true},
			}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "Routing priority to order by (speed, accuracy, cost)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the catalog as JSON")
	return cmd
}
