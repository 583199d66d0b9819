package main

import (
	"fmt"

	"github.com/spboyer/evaldash/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the last-run snapshot cache",
		Long: `Manage the snapshot cache used by watch and serve.

When cache.enabled is set in .evaldash.yaml, the last successfully fetched run
is written to cache.dir and shown on the next start until the first fetch
completes.`,
	}
	cmd.AddCommand(newCacheClearCommand(g))
	return cmd
}

func newCacheClearCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.CacheDir()
			if dir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Snapshot cache is disabled") //nolint:errcheck
				return nil
			}
			if err := cache.New(dir).Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", dir) //nolint:errcheck
			return nil
		},
	}
}
