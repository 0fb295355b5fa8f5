package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kaveh8866/SemantIQ/internal/adapters"
	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/orchestration"
	"github.com/kaveh8866/SemantIQ/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type runOptions struct {
	provider    string
	model       string
	temperature float64
	maxTokens   int
	seed        int
	cachePolicy string
	dryRun      bool
}

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <benchmark>",
		Short: "Run a single benchmark",
		Long: `Run one benchmark against one provider/model.

The run goes through the same cache and run store as a pipeline. Generation
parameters given on the command line win over the benchmark defaults and are
part of the cache fingerprint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommandE(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "Provider to run against (default from .semantiq.yaml)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model to run (default from .semantiq.yaml)")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", 0, "Override the sampling temperature")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "Override the completion token limit")
	cmd.Flags().IntVar(&opts.seed, "seed", 0, "Override the sampling seed")
	cmd.Flags().StringVar(&opts.cachePolicy, "cache-policy", "", "Cache policy: use, refresh or disable")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report whether the run is cached without executing it")

	return cmd
}

// cliOverrides collects the generation parameters set explicitly on the
// command line.
func cliOverrides(cmd *cobra.Command, opts *runOptions) models.Params {
	p := models.Params{}
	if cmd.Flags().Changed("temperature") {
		p["temperature"] = models.Float(opts.temperature)
	}
	if cmd.Flags().Changed("max-tokens") {
		p["max_tokens"] = models.Int(int64(opts.maxTokens))
	}
	if cmd.Flags().Changed("seed") {
		p["seed"] = models.Int(int64(opts.seed))
	}
	return p
}

func runCommandE(cmd *cobra.Command, benchmarkID string, opts *runOptions) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	provider := opts.provider
	if provider == "" {
		provider = env.project.Defaults.Provider
	}
	model := opts.model
	if model == "" {
		model = env.project.Defaults.Model
	}

	cfg := config.NewPipelineConfig(env.project)
	cfg.Benchmarks = []string{benchmarkID}
	cfg.Providers = []string{provider}
	cfg.Models = map[string][]string{provider: {model}}
	if opts.cachePolicy != "" {
		cfg.RunOptions.CachePolicy = config.CachePolicy(opts.cachePolicy)
	}
	cfg.RunOptions.FailFast = false
	if err := cfg.Validate(adapters.Providers()); err != nil {
		return err
	}

	p, reg, err := env.pipeline(cfg, orchestration.WithOverrides(cliOverrides(cmd, opts)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runWithSpinner(ctx, cmd, p, fmt.Sprintf("Running %s on %s/%s", benchmarkID, provider, model), opts.dryRun)
	if summary == nil {
		return err
	}

	out := cmd.OutOrStdout()
	entry := summary.Entries[0]
	switch entry.Status {
	case orchestration.StatusFailed:
		fmt.Fprintf(out, "Run failed: %v\n", entry.Err) //nolint:errcheck
		return errors.Join(err, &RunFailureError{Failed: 1, Total: 1})
	case orchestration.StatusPlanned:
		fmt.Fprintf(out, "Not cached, would execute %s (fingerprint %s)\n", entryLabel(entry.RunConfig), shortFingerprint(entry.Fingerprint)) //nolint:errcheck
		return err
	case orchestration.StatusNotAttempted:
		return err
	}

	if entry.Status == orchestration.StatusCached {
		fmt.Fprintf(out, "Served from cache (fingerprint %s)\n", shortFingerprint(entry.Fingerprint)) //nolint:errcheck
	}
	result, lookupErr := reg.Lookup(entry.RunID)
	if lookupErr != nil {
		fmt.Fprintf(out, "Run %s score=%.3f\n", entry.RunID, entry.MeanScore) //nolint:errcheck
		return err
	}
	printRunResult(out, result)
	return err
}

// runWithSpinner shows a spinner while the pipeline runs when stderr is a
// terminal.
func runWithSpinner(ctx context.Context, cmd *cobra.Command, p *orchestration.Pipeline, message string, dryRun bool) (*orchestration.Summary, error) {
	errOut := cmd.ErrOrStderr()
	if f, ok := errOut.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s := spinner.Start(errOut, message)
		p.OnProgress(func(event orchestration.ProgressEvent) {
			if event.EventType == orchestration.EventEntryStart {
				s.Update(message + " (executing)")
			}
		})
		defer s.Stop()
	}
	return p.Run(ctx, dryRun)
}
