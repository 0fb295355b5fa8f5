package main

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/kaveh8866/SemantIQ/internal/adapters"
	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/kaveh8866/SemantIQ/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [pipeline.yaml]",
		Short: "Validate benchmark specs and an optional pipeline config",
		Long: `Validate every benchmark spec in the project's benchmarks directory
against the benchmark schema. When a pipeline config is given it is checked
too, including that every benchmark it references can be resolved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := loadProject(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			dir := pc.Resolve(pc.Paths.Benchmarks)
			results, err := validation.ValidateBenchmarkDir(dir)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			files := make([]string, 0, len(results))
			for f := range results {
				files = append(files, f)
			}
			sort.Strings(files)

			for _, f := range files {
				fmt.Fprintf(out, "✗ %s\n", f) //nolint:errcheck
				for _, p := range results[f] {
					fmt.Fprintf(out, "    - %s\n", p) //nolint:errcheck
				}
			}
			invalid := len(files)
			if invalid == 0 {
				fmt.Fprintf(out, "✓ benchmark specs in %s\n", dir) //nolint:errcheck
			}

			if len(args) == 1 {
				env, err := newEnvironment(cmd)
				if err != nil {
					return err
				}
				defer env.Close()

				cfg, err := config.LoadPipelineConfig(args[0], env.project, adapters.Providers())
				if err != nil {
					return err
				}
				for _, id := range cfg.Benchmarks {
					if _, err := env.catalog.Resolve(id); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "✓ %s\n", args[0]) //nolint:errcheck
			}

			if invalid > 0 {
				return fmt.Errorf("%d benchmark spec(s) failed validation", invalid)
			}
			return nil
		},
	}
}
