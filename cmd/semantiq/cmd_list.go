package main

import (
	"fmt"

	"github.com/kaveh8866/SemantIQ/internal/catalog"
	"github.com/kaveh8866/SemantIQ/internal/dataset"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available benchmarks",
		Long: `List the benchmarks that can be referenced from a pipeline config.

Built-in benchmarks are always available. Specs under the project's
benchmarks directory are listed too and override built-ins with the same id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := loadProject(cmd)
			if err != nil {
				return err
			}
			loader := dataset.NewFileLoader(pc.Resolve(pc.Paths.Datasets), catalog.BuiltinDatasets())
			specs, err := catalog.New(pc.Resolve(pc.Paths.Benchmarks), loader).List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(specs) == 0 {
				fmt.Fprintln(out, "No benchmarks found") //nolint:errcheck
				return nil
			}

			rows := make([][]string, 0, len(specs))
			for _, s := range specs {
				rows = append(rows, []string{s.ID, s.Version, string(s.Category), s.Scoring.ScorerType, s.DatasetPath})
			}
			printTable(out, []string{"ID", "VERSION", "CATEGORY", "SCORER", "DATASET"}, rows)
			return nil
		},
	}
}
