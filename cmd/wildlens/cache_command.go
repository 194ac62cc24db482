package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wildlens/internal/lookupcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Lookup cache maintenance",
	}
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired canonical lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if !cfg.LookupCache.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Lookup cache is disabled")
				return nil
			}

			cache, err := lookupcache.Open(cfg.LookupCache.Path, time.Duration(cfg.LookupCache.TTLHours)*time.Hour)
			if err != nil {
				return fmt.Errorf("open lookup cache: %w", err)
			}
			defer cache.Close()

			pruned, err := cache.Prune(context.Background())
			if err != nil {
				return fmt.Errorf("prune lookup cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired lookups\n", pruned)
			return nil
		},
	}
}
