package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/adapters"
	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/kaveh8866/SemantIQ/internal/orchestration"
	"github.com/kaveh8866/SemantIQ/internal/registry"
	"github.com/kaveh8866/SemantIQ/internal/reporting"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
	"github.com/spf13/cobra"
)

func newPipelineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run and inspect benchmark pipelines",
		Long: `Run and inspect benchmark pipelines.

A pipeline config lists benchmarks, providers, models per provider and
parameter sweeps. Their cartesian product is the run matrix.`,
	}

	cmd.AddCommand(newPipelineRunCommand())
	cmd.AddCommand(newPipelineStatusCommand())
	cmd.AddCommand(newPipelineListRunsCommand())

	return cmd
}

func loadPipelineConfig(env *environment, path string) (*config.PipelineConfig, error) {
	return config.LoadPipelineConfig(path, env.project, adapters.Providers())
}

func newPipelineRunCommand() *cobra.Command {
	var (
		dryRun      bool
		filters     []string
		jsonOutput  bool
		workers     int
		cachePolicy string
		junitPath   string
		minScore    float64
	)

	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Execute a pipeline config",
		Long: `Execute every entry of the run matrix.

Entries whose fingerprint is cached are not executed again unless the cache
policy is refresh or disable. With --dry-run nothing is executed or written;
the matrix is printed with the cache state of each entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			cfg, err := loadPipelineConfig(env, args[0])
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.RunOptions.Parallelism = workers > 1
				cfg.RunOptions.MaxWorkers = workers
			}
			if cachePolicy != "" {
				cfg.RunOptions.CachePolicy = config.CachePolicy(cachePolicy)
				if err := cfg.Validate(adapters.Providers()); err != nil {
					return err
				}
			}

			p, _, err := env.pipeline(cfg, orchestration.WithFilters(filters...))
			if err != nil {
				return err
			}
			if !jsonOutput {
				p.OnProgress(newProgressPrinter(cmd.OutOrStdout()))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, runErr := p.Run(ctx, dryRun)
			if summary == nil {
				return runErr
			}

			if jsonOutput {
				if err := writeSummaryJSON(cmd, summary); err != nil {
					return errors.Join(runErr, err)
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}

			if junitPath != "" {
				opts := reporting.JUnitOptions{Name: pipelineName(args[0]), MinScore: minScore, Timestamp: time.Now()}
				if err := reporting.WriteJUnitXML(summary, opts, junitPath); err != nil {
					return errors.Join(runErr, fmt.Errorf("writing JUnit report: %w", err))
				}
			}

			if summary.Failed > 0 {
				return errors.Join(runErr, &RunFailureError{Failed: summary.Failed, Total: summary.Total})
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the matrix without executing or writing anything")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Only run entries matching a glob on the benchmark id or benchmark/provider/model; prefix with ! to exclude (can be repeated)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override run_options.max_workers (values above 1 enable parallelism)")
	cmd.Flags().StringVar(&cachePolicy, "cache-policy", "", "Override run_options.cache_policy: use, refresh or disable")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Report entries with a lower mean score as failures in the JUnit report")

	return cmd
}

// pipelineName is the config file name without its extension.
func pipelineName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type jsonEntry struct {
	Benchmark   string         `json:"benchmark_id"`
	Provider    string         `json:"provider"`
	Model       string         `json:"model"`
	Params      map[string]any `json:"params"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Status      string         `json:"status"`
	CacheHit    bool           `json:"cache_hit"`
	RunID       string         `json:"run_id,omitempty"`
	MeanScore   float64        `json:"mean_score"`
	DurationMs  int64          `json:"duration_ms"`
	Error       string         `json:"error,omitempty"`
}

type jsonSummary struct {
	Total        int         `json:"total"`
	Succeeded    int         `json:"succeeded"`
	Failed       int         `json:"failed"`
	Cached       int         `json:"cached"`
	Planned      int         `json:"planned"`
	NotAttempted int         `json:"not_attempted"`
	DryRun       bool        `json:"dry_run"`
	Stopped      bool        `json:"stopped"`
	Warnings     []string    `json:"warnings,omitempty"`
	Entries      []jsonEntry `json:"entries"`
}

func writeSummaryJSON(cmd *cobra.Command, s *orchestration.Summary) error {
	out := jsonSummary{
		Total:        s.Total,
		Succeeded:    s.Succeeded,
		Failed:       s.Failed,
		Cached:       s.Cached,
		Planned:      s.Planned,
		NotAttempted: s.NotAttempted,
		DryRun:       s.DryRun,
		Stopped:      s.Stopped,
		Warnings:     s.Warnings,
		Entries:      make([]jsonEntry, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		je := jsonEntry{
			Benchmark:   e.RunConfig.BenchmarkID,
			Provider:    e.RunConfig.Provider,
			Model:       e.RunConfig.Model,
			Params:      e.RunConfig.Params.AnyMap(),
			Fingerprint: e.Fingerprint,
			Status:      string(e.Status),
			CacheHit:    e.Hit,
			RunID:       e.RunID,
			MeanScore:   e.MeanScore,
			DurationMs:  e.DurationMs,
		}
		if e.Err != nil {
			je.Error = e.Err.Error()
		}
		out.Entries = append(out.Entries, je)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newPipelineStatusCommand() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "status <pipeline.yaml>",
		Short: "Show the cache state of every matrix entry",
		Long: `Show, for every entry of the run matrix, whether a cached result exists
and which indexed run last produced it. Nothing is executed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			cfg, err := loadPipelineConfig(env, args[0])
			if err != nil {
				return err
			}
			p, _, err := env.pipeline(cfg, orchestration.WithFilters(filters...))
			if err != nil {
				return err
			}

			states, warnings, err := p.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cached := 0
			rows := make([][]string, 0, len(states))
			for _, s := range states {
				state, latest := "pending", "-"
				switch {
				case s.Err != nil:
					state = "error: " + s.Err.Error()
				case s.Cached:
					state = "cached"
					cached++
				}
				if s.LatestRun != nil {
					latest = s.LatestRun.RunID
				}
				rows = append(rows, []string{
					s.RunConfig.BenchmarkID,
					s.RunConfig.Provider + "/" + s.RunConfig.Model,
					s.RunConfig.Params.String(),
					shortFingerprint(s.Fingerprint),
					state,
					latest,
				})
			}
			printTable(out, []string{"BENCHMARK", "MODEL", "PARAMS", "FINGERPRINT", "STATE", "LATEST RUN"}, rows)
			fmt.Fprintf(out, "\n%d of %d entries cached\n", cached, len(states)) //nolint:errcheck
			for _, w := range warnings {
				fmt.Fprintf(out, "warning: %s\n", w) //nolint:errcheck
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Only show entries matching a glob (can be repeated)")
	return cmd
}

func newPipelineListRunsCommand() *cobra.Command {
	var (
		runsDir   string
		benchmark string
		rebuild   bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list-runs",
		Short: "List persisted runs from the run index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := loadProject(cmd)
			if err != nil {
				return err
			}
			dir := runsDir
			if dir == "" {
				dir = pc.Resolve(pc.Paths.Runs)
			}

			reg := registry.New(runstore.New(dir))
			if rebuild {
				if _, err := reg.RebuildIndex(); err != nil {
					return err
				}
			}
			entries, err := reg.ListIndex()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				if benchmark != "" && e.BenchmarkID != benchmark {
					continue
				}
				if limit > 0 && len(rows) >= limit {
					break
				}
				rows = append(rows, []string{
					e.RunID,
					e.BenchmarkID,
					e.Provider + "/" + e.Model,
					fmt.Sprintf("%.3f", e.MeanScore),
					e.Timestamp.Local().Format(time.DateTime),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No runs found") //nolint:errcheck
				return nil
			}
			printTable(out, []string{"RUN", "BENCHMARK", "MODEL", "SCORE", "TIMESTAMP"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&runsDir, "runs-dir", "", "Run store directory (default from .semantiq.yaml)")
	cmd.Flags().StringVar(&benchmark, "benchmark", "", "Only list runs of this benchmark")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild the index from the run store first")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs to list")

	return cmd
}
