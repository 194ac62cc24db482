package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wildlens/internal/recognition"
)

func newRecognizeCommand(ctx *commandContext) *cobra.Command {
	var (
		llmOnly  bool
		hybrid   bool
		jsonOut  bool
		debugOut bool
		budget   float64
		priority string
		margin   float64
	)

	cmd := &cobra.Command{
		Use:   "recognize <image>",
		Short: "Identify the organism in a photo",
		Long: `Identify the plant, animal, or bug in a photo.

The default mode fuses vision labeling, canonical name lookup, and a
per-kingdom classifier into a scored decision. --llm-only asks the model
router instead, and --hybrid runs both paths and merges the answers.

Examples:
  wildlens recognize backyard-bird.jpg
  wildlens recognize --hybrid --priority speed mystery-plant.jpg
  wildlens recognize --llm-only --budget 0.10 --json moth.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if llmOnly && hybrid {
				return fmt.Errorf("--llm-only and --hybrid are mutually exclusive")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cmd.Flags().Changed("budget") {
				cfg.LLM.Budget = budget
			}
			if cmd.Flags().Changed("priority") {
				cfg.LLM.Priority = strings.ToLower(strings.TrimSpace(priority))
			}
			if cmd.Flags().Changed("margin") {
				cfg.Pipeline.Margin = margin
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}

			router := ctx.newRouter(cfg, logger)
			if (llmOnly || hybrid) && router == nil {
				return fmt.Errorf("no LLM provider key configured; set one under [llm] or export OPENAI_API_KEY")
			}

			p, closer, err := ctx.buildPipeline(cfg, logger, router)
			if err != nil {
				return err
			}
			defer closer()

			runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var decision *recognition.Decision
			switch {
			case llmOnly:
				start := time.Now()
				result, err := p.LLMOnly(runCtx, image)
				if err != nil {
					return err
				}
				decision = result.Decision(time.Since(start))
			case hybrid:
				decision, err = p.Hybrid(runCtx, image)
				if err != nil {
					return err
				}
			default:
				decision, err = p.Run(runCtx, image)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(cmd, decisionPayload(decision, debugOut))
			}
			renderDecision(cmd.OutOrStdout(), decision, debugOut)
			return nil
		},
	}

	cmd.Flags().BoolVar(&llmOnly, "llm-only", false, "Identify with the model router alone")
	cmd.Flags().BoolVar(&hybrid, "hybrid", false, "Run the traditional and model paths together")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the decision as JSON")
	cmd.Flags().BoolVar(&debugOut, "debug", false, "Include candidate scores, timings, and costs")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Per-call model budget in dollars")
	cmd.Flags().StringVar(&priority, "priority", "", "Model routing priority (speed, accuracy, cost)")
	cmd.Flags().Float64Var(&margin, "margin", 0, "Score gap required for an outright pick")
	return cmd
}
