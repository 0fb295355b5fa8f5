package execution

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/adapters"
	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/scoring"
	"github.com/kaveh8866/SemantIQ/internal/template"
)

// DatasetLoader loads the test cases of a benchmark dataset
type DatasetLoader interface {
	Load(path string) ([]models.TestCase, error)
}

// PromptRenderer renders the prompt template of a benchmark for one case
type PromptRenderer interface {
	Render(templatePath string, tc *models.TestCase) (*template.Prompt, error)
}

// Executor runs one matrix entry to completion
type Executor interface {
	Execute(ctx context.Context, rc models.RunConfig, spec *models.BenchmarkSpec) (*models.RunResult, error)
}

// ExecutionFailure is returned when a run cannot complete. CaseID is empty
// when the failure happened before any case ran (dataset, adapter or scorer
// setup).
type ExecutionFailure struct {
	RunConfig models.RunConfig
	CaseID    string
	Cause     error
}

func (e *ExecutionFailure) Error() string {
	if e.CaseID == "" {
		return fmt.Sprintf("executing %s: %v", e.RunConfig, e.Cause)
	}
	return fmt.Sprintf("executing %s: case %s: %v", e.RunConfig, e.CaseID, e.Cause)
}

func (e *ExecutionFailure) Unwrap() error { return e.Cause }

// Engine executes a benchmark against one provider/model. It has no state
// across calls and is safe for concurrent use.
type Engine struct {
	datasets DatasetLoader
	prompts  PromptRenderer
	adapters adapters.Factory
	scorers  scoring.Factory
	now      func() time.Time
	version  string
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces time.Now for timestamps and latency measurement.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithToolVersion records the runner version in the result metadata.
func WithToolVersion(v string) EngineOption {
	return func(e *Engine) {
		e.version = v
	}
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine from its collaborators.
func NewEngine(datasets DatasetLoader, prompts PromptRenderer, adapterFactory adapters.Factory, scorers scoring.Factory, opts ...EngineOption) *Engine {
	e := &Engine{
		datasets: datasets,
		prompts:  prompts,
		adapters: adapterFactory,
		scorers:  scorers,
		now:      time.Now,
		version:  "dev",
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Params returns the merged parameter set for a run: spec defaults, then the
// run config values. Pipeline overrides are already folded into rc.Params.
func (e *Engine) Params(rc models.RunConfig, spec *models.BenchmarkSpec) models.Params {
	return spec.RunConfig.Params().Merge(rc.Params)
}

// Execute runs every case of the benchmark in dataset order. Any failure
// aborts the run; nothing is persisted here. RunID and Fingerprint are left
// for the caller to fill in.
func (e *Engine) Execute(ctx context.Context, rc models.RunConfig, spec *models.BenchmarkSpec) (*models.RunResult, error) {
	fail := func(caseID string, err error) error {
		return &ExecutionFailure{RunConfig: rc, CaseID: caseID, Cause: err}
	}

	start := e.now()
	params := e.Params(rc, spec)

	cases, err := e.datasets.Load(spec.DatasetPath)
	if err != nil {
		return nil, fail("", fmt.Errorf("loading dataset: %w", err))
	}

	adapter, err := e.adapters.New(rc.Provider, rc.Model)
	if err != nil {
		return nil, fail("", fmt.Errorf("creating adapter: %w", err))
	}

	scorer, err := e.scorers.New(spec.Scoring)
	if err != nil {
		return nil, fail("", fmt.Errorf("creating scorer: %w", err))
	}

	e.logger.Debug("Executing run", "benchmark", spec.ID, "provider", rc.Provider, "model", rc.Model, "cases", len(cases), "params", params.String())

	results := make([]models.CaseResult, 0, len(cases))
	for i := range cases {
		if err := ctx.Err(); err != nil {
			return nil, fail(cases[i].CaseID, err)
		}
		cr, err := e.runCase(ctx, adapter, scorer, spec, &cases[i], params)
		if err != nil {
			return nil, fail(cases[i].CaseID, err)
		}
		results = append(results, *cr)
	}

	result := &models.RunResult{
		Timestamp: start.UTC(),
		Spec:      *spec,
		RunConfig: params,
		ModelInfo: models.ModelInfo{Provider: rc.Provider, Model: rc.Model},
		Cases:     results,
		Summary:   models.Summarize(results, e.now().Sub(start)),
		Metadata:  e.environment(),
	}
	return result, nil
}

func (e *Engine) runCase(ctx context.Context, adapter adapters.Adapter, scorer scoring.Scorer, spec *models.BenchmarkSpec, tc *models.TestCase, params models.Params) (*models.CaseResult, error) {
	prompt, err := e.prompts.Render(spec.PromptTemplatePath, tc)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	caseStart := e.now()
	resp, err := adapter.Generate(ctx, prompt.Full, params)
	if err != nil {
		return nil, err
	}

	usage := resp.Usage
	if renderer, ok := adapter.(adapters.ImageRenderer); ok && spec.Category == models.CategoryVision {
		img, err := renderer.RenderImage(ctx, prompt.Full, params)
		if err != nil {
			return nil, fmt.Errorf("rendering image: %w", err)
		}
		usage = withImage(usage, img)
	}
	latency := e.now().Sub(caseStart)

	e.logger.Debug("Case complete", "benchmark", spec.ID, "case", tc.CaseID, "latency", latency)

	return &models.CaseResult{
		CaseID:           tc.CaseID,
		PromptRenderHash: prompt.Hash,
		ModelOutput:      resp.Content,
		Scores:           scorer.Score(tc, resp.Content),
		Timings:          models.CaseTimings{LatencyMs: latency.Milliseconds()},
		Usage:            usage,
	}, nil
}

func withImage(usage map[string]any, img *adapters.ImageResult) map[string]any {
	out := make(map[string]any, len(usage)+1)
	for k, v := range usage {
		out[k] = v
	}
	out["image"] = map[string]any{
		"format": img.Format,
		"width":  img.Width,
		"height": img.Height,
		"seed":   img.Seed,
		"bytes":  len(img.Data),
	}
	return out
}

func (e *Engine) environment() map[string]string {
	return map[string]string{
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"tool_version": e.version,
	}
}
