package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kaveh8866/SemantIQ/internal/adapters"
	"github.com/kaveh8866/SemantIQ/internal/catalog"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
	"github.com/kaveh8866/SemantIQ/internal/wizard"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// PipelineFile is the pipeline config written by init.
const PipelineFile = "pipeline.yaml"

func newInitCommand() *cobra.Command {
	var (
		noInteractive bool
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a SemantIQ project",
		Long: `Initialize a project with a .semantiq.yaml, a pipeline.yaml and empty
benchmarks/, datasets/ and prompts/ directories.

When stdin is a terminal a guided wizard asks for the benchmarks, provider,
models and sweep to put in pipeline.yaml. Otherwise defaults are written.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			interactive := !noInteractive && isTerminal(cmd.InOrStdin())
			return initCommandE(cmd, dir, interactive, force)
		},
	}

	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Write defaults without running the wizard")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration files")

	return cmd
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func initCommandE(cmd *cobra.Command, dir string, interactive, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	projectPath := filepath.Join(dir, projectconfig.FileName)
	pipelinePath := filepath.Join(dir, PipelineFile)
	if !force {
		for _, p := range []string{projectPath, pipelinePath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
		}
	}

	answers := wizard.DefaultAnswers()
	if interactive {
		specs, err := catalog.New("", nil).List()
		if err != nil {
			return err
		}
		ids := make([]string, len(specs))
		for i, s := range specs {
			ids[i] = s.ID
		}
		got, err := wizard.RunPipelineWizard(cmd.InOrStdin(), cmd.OutOrStdout(), answers, ids, adapters.Providers())
		if err != nil {
			return err
		}
		answers = *got
	}

	projectYAML, err := wizard.GenerateProjectYAML(&answers)
	if err != nil {
		return err
	}
	pipelineYAML, err := wizard.GeneratePipelineYAML(&answers)
	if err != nil {
		return err
	}

	defaults := projectconfig.New()
	for _, sub := range []string{defaults.Paths.Benchmarks, defaults.Paths.Datasets, defaults.Paths.Prompts} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	if err := os.WriteFile(projectPath, []byte(projectYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", projectconfig.FileName, err)
	}
	if err := os.WriteFile(pipelinePath, []byte(pipelineYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", PipelineFile, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Initialized SemantIQ project:") //nolint:errcheck
	fmt.Fprintf(out, "  %s\n", projectPath)           //nolint:errcheck
	fmt.Fprintf(out, "  %s\n", pipelinePath)          //nolint:errcheck
	fmt.Fprintf(out, "\nNext: semantiq pipeline run %s\n", pipelinePath) //nolint:errcheck

	return nil
}
