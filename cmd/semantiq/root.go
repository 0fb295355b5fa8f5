package main

import (
	"log/slog"

	"github.com/kaveh8866/SemantIQ/internal/webapi"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semantiq",
		Short: "SemantIQ - benchmark runner for language models",
		Long: `SemantIQ runs versioned benchmarks against language model providers.

A pipeline config expands benchmarks, providers, models and parameter sweeps
into a run matrix. Every entry is fingerprinted, so unchanged runs are served
from the cache instead of calling the provider again.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("project-dir", ".", "Directory to start the .semantiq.yaml search from")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	webapi.Version = version

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newPipelineCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
