package models

import (
	"time"

	"github.com/kaveh8866/SemantIQ/internal/statistics"
)

// Status represents the outcome status of a run.
type Status string

// Only successful executions are persisted, so every indexed run is completed.
const StatusCompleted Status = "completed"

// ScoreResult is what a scorer reports for a single case.
type ScoreResult struct {
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
	Details map[string]any     `json:"details,omitempty"`
}

// CaseTimings holds per-case timing measurements.
type CaseTimings struct {
	LatencyMs int64 `json:"latency_ms"`
}

// CaseResult is the outcome of running and scoring one test case.
type CaseResult struct {
	CaseID           string         `json:"case_id"`
	PromptRenderHash string         `json:"prompt_render_hash"`
	ModelOutput      string         `json:"model_output"`
	Scores           ScoreResult    `json:"scores"`
	Timings          CaseTimings    `json:"timings"`
	Usage            map[string]any `json:"usage,omitempty"`
}

// ModelInfo identifies the provider/model pair a run targeted.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// RunSummary aggregates the case scores of a run.
type RunSummary struct {
	TotalCases int                            `json:"total_cases"`
	MeanScore  float64                        `json:"mean_score"`
	StdDev     float64                        `json:"std_dev"`
	MinScore   float64                        `json:"min_score"`
	MaxScore   float64                        `json:"max_score"`
	DurationMs int64                          `json:"duration_ms"`
	CI95       *statistics.ConfidenceInterval `json:"ci95,omitempty"`
}

// RunResult is the full artifact of one execution. It is written both to
// the cache (keyed by fingerprint) and to the run store (keyed by run ID).
type RunResult struct {
	RunID       string            `json:"run_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Fingerprint string            `json:"fingerprint"`
	Spec        BenchmarkSpec     `json:"spec"`
	RunConfig   Params            `json:"run_config"`
	ModelInfo   ModelInfo         `json:"model_info"`
	Cases       []CaseResult      `json:"cases"`
	Summary     RunSummary        `json:"summary"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RegistryEntry is the projection of a RunResult kept in the run index.
type RegistryEntry struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	BenchmarkID string    `json:"benchmark_id"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	MeanScore   float64   `json:"mean_score"`
	Status      Status    `json:"status"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// Entry projects the run into its registry entry.
func (r *RunResult) Entry() RegistryEntry {
	return RegistryEntry{
		RunID:       r.RunID,
		Timestamp:   r.Timestamp,
		BenchmarkID: r.Spec.ID,
		Provider:    r.ModelInfo.Provider,
		Model:       r.ModelInfo.Model,
		MeanScore:   r.Summary.MeanScore,
		Status:      StatusCompleted,
		Fingerprint: r.Fingerprint,
	}
}

// Summarize computes the score summary for a set of case results. An empty
// set yields a zero summary.
func Summarize(cases []CaseResult, duration time.Duration) RunSummary {
	s := RunSummary{
		TotalCases: len(cases),
		DurationMs: duration.Milliseconds(),
	}
	if len(cases) == 0 {
		return s
	}

	scores := make([]float64, len(cases))
	for i, c := range cases {
		scores[i] = c.Scores.Score
	}
	d := statistics.Describe(scores)
	s.MeanScore = d.Mean
	s.StdDev = d.StdDev
	s.MinScore = d.Min
	s.MaxScore = d.Max

	if len(scores) > 1 {
		ci := statistics.BootstrapCI(scores)
		s.CI95 = &ci
	}
	return s
}
