package main

import (
	"fmt"
	"path/filepath"

	"github.com/kaveh8866/SemantIQ/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the run result cache",
		Long: `Manage the run result cache.

The cache stores complete run results keyed by fingerprint: the benchmark
version, dataset hash, prompt version, provider, model and parameters.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the run result cache",
		Long: `Clear all cached run results.

The run store and its index are left untouched. The next pipeline run
executes every entry again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cacheDir
			if dir == "" {
				pc, err := loadProject(cmd)
				if err != nil {
					return err
				}
				dir = pc.Resolve(pc.Paths.Cache)
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving cache directory: %w", err)
			}

			if err := cache.NewStore(absDir).Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default from .semantiq.yaml)")

	return cmd
}
