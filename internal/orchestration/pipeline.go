package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kaveh8866/SemantIQ/internal/cache"
	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/kaveh8866/SemantIQ/internal/execution"
	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/registry"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
)

// SpecResolver looks up benchmark specs by id
type SpecResolver interface {
	Resolve(id string) (*models.BenchmarkSpec, error)
}

// ResultPublisher mirrors persisted runs somewhere else. Failures are logged
// and never affect the pipeline outcome.
type ResultPublisher interface {
	PublishRun(ctx context.Context, result *models.RunResult) error
	PublishIndex(ctx context.Context, entries []models.RegistryEntry) error
}

// EntryStatus is the outcome of one matrix entry
type EntryStatus string

const (
	// StatusExecuted means the entry ran and was persisted.
	StatusExecuted EntryStatus = "executed"
	// StatusCached means an existing cache entry was reused.
	StatusCached EntryStatus = "cached"
	// StatusRefreshed means a cache entry existed and was replaced by a new run.
	StatusRefreshed EntryStatus = "refreshed"
	// StatusPlanned means a dry run would have executed the entry.
	StatusPlanned EntryStatus = "planned"
	StatusFailed  EntryStatus = "failed"
	// StatusNotAttempted means the pipeline stopped before reaching the entry.
	StatusNotAttempted EntryStatus = "not_attempted"
)

// EntryResult records what happened to one matrix entry.
type EntryResult struct {
	Index       int
	RunConfig   models.RunConfig
	Fingerprint string
	Status      EntryStatus
	// Hit is set when the cache held the fingerprint at check time.
	Hit        bool
	RunID      string
	MeanScore  float64
	DurationMs int64
	Err        error
}

// Summary is the outcome of a pipeline run. Total counts attempted entries
// only: when the run stops early, the remaining entries are reported in
// NotAttempted and are not part of Total.
type Summary struct {
	Total        int
	Succeeded    int
	Failed       int
	Cached       int
	Planned      int
	NotAttempted int
	DryRun       bool
	Stopped      bool
	Warnings     []string
	Entries      []EntryResult
}

// Pipeline expands a matrix configuration and runs every entry through the
// cache and the execution engine.
type Pipeline struct {
	cfg      *config.PipelineConfig
	specs    SpecResolver
	executor execution.Executor
	cache    *cache.Store
	runs     *runstore.Store
	registry *registry.Registry

	locks     *cache.KeyedLock
	publisher ResultPublisher
	overrides models.Params
	filters   []string
	now       func() time.Time
	logger    *slog.Logger

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithKeyedLock shares the per-fingerprint lock between pipelines running in
// the same process.
func WithKeyedLock(l *cache.KeyedLock) PipelineOption {
	return func(p *Pipeline) {
		p.locks = l
	}
}

// WithPublisher mirrors every persisted run and the rebuilt index.
func WithPublisher(pub ResultPublisher) PipelineOption {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

// WithOverrides merges p on top of the sweep values of every entry. The
// overrides take part in the fingerprint.
func WithOverrides(params models.Params) PipelineOption {
	return func(p *Pipeline) {
		p.overrides = params.Clone()
	}
}

// WithFilters restricts the matrix to entries matching the glob patterns.
func WithFilters(patterns ...string) PipelineOption {
	return func(p *Pipeline) {
		p.filters = patterns
	}
}

// WithPipelineClock replaces time.Now for run ids.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a pipeline. Runs are persisted to the registry's run
// store and the index is rebuilt after every non-dry run.
func NewPipeline(cfg *config.PipelineConfig, specs SpecResolver, executor execution.Executor, cacheStore *cache.Store, reg *registry.Registry, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		specs:    specs,
		executor: executor,
		cache:    cacheStore,
		runs:     reg.Store(),
		registry: reg,
		locks:    cache.NewKeyedLock(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// OnProgress registers a progress listener. Listeners are called from worker
// goroutines and must be safe for concurrent use.
func (p *Pipeline) OnProgress(listener ProgressListener) {
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.listeners = append(p.listeners, listener)
}

func (p *Pipeline) notifyProgress(event ProgressEvent) {
	p.progressMu.Lock()
	listeners := make([]ProgressListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.progressMu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// Plan returns the run configs the pipeline would process, in order, with
// the expansion warnings.
func (p *Pipeline) Plan() ([]models.RunConfig, []string, error) {
	configs, warnings := Expand(p.cfg.Benchmarks, p.cfg.Providers, p.cfg.Models, p.cfg.Parameters)
	configs, err := FilterRunConfigs(configs, p.filters)
	if err != nil {
		return nil, warnings, err
	}
	if len(p.overrides) > 0 {
		for i := range configs {
			configs[i].Params = configs[i].Params.Merge(p.overrides)
		}
	}
	return configs, warnings, nil
}

// Run processes the matrix. Cancelling ctx stops launching new entries;
// entries already running finish on a context detached from ctx. The
// returned error joins the hard failures (cache or run store writes, index
// rebuild, cancellation); execution failures are only counted in the
// summary. The summary is returned even when err is non-nil.
func (p *Pipeline) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	configs, warnings, err := p.Plan()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		p.logger.Warn(w)
	}

	workers := p.cfg.RunOptions.Workers()
	p.notifyProgress(ProgressEvent{
		EventType: EventPipelineStart,
		Total:     len(configs),
		Details:   map[string]any{"workers": workers, "dry_run": dryRun, "cache_policy": string(p.cfg.RunOptions.CachePolicy)},
	})

	results := make([]EntryResult, len(configs))
	for i, rc := range configs {
		results[i] = EntryResult{Index: i, RunConfig: rc, Status: StatusNotAttempted}
	}

	var (
		stopped  atomic.Bool
		hardMu   sync.Mutex
		hardErrs []error
	)
	addHard := func(err error) {
		hardMu.Lock()
		defer hardMu.Unlock()
		hardErrs = append(hardErrs, err)
	}

	sem := semaphore.NewWeighted(int64(workers))
	var g errgroup.Group
	execCtx := context.WithoutCancel(ctx)

	for i := range configs {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		// checked after a slot frees up so a failure in the previous entry
		// is visible before the next one starts
		if stopped.Load() || ctx.Err() != nil {
			sem.Release(1)
			break
		}

		g.Go(func() error {
			defer sem.Release(1)
			res, halting, hard := p.process(execCtx, i, len(configs), configs[i], dryRun)
			results[i] = res
			if hard != nil {
				addHard(hard)
			}
			if halting && p.cfg.RunOptions.FailFast {
				stopped.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := summarize(results, warnings, dryRun)
	if err := ctx.Err(); err != nil {
		summary.Stopped = true
		hardErrs = append(hardErrs, fmt.Errorf("pipeline canceled: %w", err))
	}
	if stopped.Load() {
		summary.Stopped = true
	}
	if summary.Stopped {
		p.notifyProgress(ProgressEvent{
			EventType: EventPipelineStopped,
			Total:     len(configs),
			Details:   map[string]any{"not_attempted": summary.NotAttempted},
		})
	}

	if !dryRun {
		entries, err := p.registry.RebuildIndex()
		if err != nil {
			hardErrs = append(hardErrs, err)
		} else if p.publisher != nil {
			if err := p.publisher.PublishIndex(execCtx, entries); err != nil {
				p.logger.Warn("Failed to publish run index", "error", err)
			}
		}
	}

	p.notifyProgress(ProgressEvent{
		EventType: EventPipelineComplete,
		Total:     len(configs),
		Details: map[string]any{
			"total":         summary.Total,
			"succeeded":     summary.Succeeded,
			"failed":        summary.Failed,
			"cached":        summary.Cached,
			"not_attempted": summary.NotAttempted,
		},
	})

	return summary, errors.Join(hardErrs...)
}

// process runs one entry through resolve, cache check, execution and
// persistence. halting is set for failures that stop the matrix under
// fail-fast: execution and persistence failures. A benchmark that cannot be
// resolved only fails its own entry. hard is set for failures that must reach
// the caller.
func (p *Pipeline) process(ctx context.Context, idx, total int, rc models.RunConfig, dryRun bool) (res EntryResult, halting bool, hard error) {
	res = EntryResult{Index: idx, RunConfig: rc}
	event := ProgressEvent{Index: idx + 1, Total: total, RunConfig: rc}

	fail := func(err error) EntryResult {
		res.Status = StatusFailed
		res.Err = err
		p.logger.Error("Run failed", "benchmark", rc.BenchmarkID, "provider", rc.Provider, "model", rc.Model, "params", rc.Params.String(), "error", err)
		event.EventType = EventEntryFailed
		event.Status = res.Status
		event.Err = err
		p.notifyProgress(event)
		return res
	}

	spec, err := p.specs.Resolve(rc.BenchmarkID)
	if err != nil {
		return fail(err), false, nil
	}

	fp := cache.FingerprintSpec(spec, rc)
	res.Fingerprint = fp
	event.Fingerprint = fp

	unlock := p.locks.Lock(fp)
	defer unlock()

	policy := p.cfg.RunOptions.CachePolicy
	res.Hit = policy != config.CachePolicyDisable && p.cache.Exists(fp)

	if res.Hit && policy == config.CachePolicyUse {
		cached, err := p.cache.Read(fp)
		if err != nil {
			// an unreadable entry is a miss; executing overwrites it
			p.logger.Warn("Ignoring unreadable cache entry", "fingerprint", fp, "path", p.cache.Path(fp), "error", err)
			res.Hit = false
		} else {
			res.Status = StatusCached
			res.RunID = cached.RunID
			res.MeanScore = cached.Summary.MeanScore
			event.EventType = EventEntryCached
			event.Status = res.Status
			event.RunID = res.RunID
			p.notifyProgress(event)
			return res, false, nil
		}
	}

	if dryRun {
		res.Status = StatusPlanned
		event.EventType = EventEntryPlanned
		event.Status = res.Status
		event.Details = map[string]any{"cache_hit": res.Hit}
		p.notifyProgress(event)
		return res, false, nil
	}

	event.EventType = EventEntryStart
	event.Details = map[string]any{"cache_hit": res.Hit}
	p.notifyProgress(event)

	result, err := p.executor.Execute(ctx, rc, spec)
	if err != nil {
		return fail(err), true, nil
	}

	result.Fingerprint = fp
	result.RunID = runstore.NewRunID(p.cfg.OutputOptions.NamingScheme, rc.BenchmarkID, rc.Provider, rc.Model, p.now())

	// The cache entry is published last so that a hit always points at a
	// durable run.
	if err := p.runs.Write(result); err != nil {
		return fail(err), true, err
	}
	if err := p.cache.Write(fp, result); err != nil {
		if rmErr := p.runs.Remove(result.RunID); rmErr != nil {
			p.logger.Warn("Failed to remove run after cache write failure", "run_id", result.RunID, "error", rmErr)
		}
		return fail(err), true, err
	}

	if p.publisher != nil {
		if err := p.publisher.PublishRun(ctx, result); err != nil {
			p.logger.Warn("Failed to publish run", "run_id", result.RunID, "error", err)
		}
	}

	res.Status = StatusExecuted
	if res.Hit {
		res.Status = StatusRefreshed
	}
	res.RunID = result.RunID
	res.MeanScore = result.Summary.MeanScore
	res.DurationMs = result.Summary.DurationMs

	event.EventType = EventEntryComplete
	event.Status = res.Status
	event.RunID = res.RunID
	event.DurationMs = res.DurationMs
	event.Details = map[string]any{"mean_score": res.MeanScore, "cases": result.Summary.TotalCases}
	p.notifyProgress(event)
	return res, false, nil
}

// summarize folds entry results into the summary counters. A cache hit is
// counted as cached whatever happened afterwards; under refresh the
// re-execution decides between succeeded and failed.
func summarize(results []EntryResult, warnings []string, dryRun bool) *Summary {
	s := &Summary{DryRun: dryRun, Warnings: warnings, Entries: results}
	for _, r := range results {
		if r.Status == StatusNotAttempted {
			s.NotAttempted++
			continue
		}
		s.Total++
		if r.Hit {
			s.Cached++
		}
		switch r.Status {
		case StatusFailed:
			s.Failed++
		case StatusPlanned:
			s.Planned++
			if r.Hit {
				s.Succeeded++
			}
		default:
			s.Succeeded++
		}
	}
	return s
}
