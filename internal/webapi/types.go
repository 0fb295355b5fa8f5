package webapi

import (
	"time"

	"github.com/kaveh8866/SemantIQ/internal/statistics"
)

// RunSummary is the API response for a single run in the list.
type RunSummary struct {
	ID          string    `json:"id"`
	BenchmarkID string    `json:"benchmarkId"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Status      string    `json:"status"`
	MeanScore   float64   `json:"meanScore"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// RunDetail is the API response for a single run with per-case results.
type RunDetail struct {
	RunSummary
	BenchmarkVersion string                         `json:"benchmarkVersion"`
	PromptVersion    string                         `json:"promptVersion"`
	DatasetHash      string                         `json:"datasetHash,omitempty"`
	Params           map[string]any                 `json:"params"`
	CaseCount        int                            `json:"caseCount"`
	StdDev           float64                        `json:"stdDev"`
	MinScore         float64                        `json:"minScore"`
	MaxScore         float64                        `json:"maxScore"`
	Duration         float64                        `json:"duration"`
	CI95             *statistics.ConfidenceInterval `json:"ci95,omitempty"`
	Metadata         map[string]string              `json:"metadata,omitempty"`
	Cases            []CaseResult                   `json:"cases"`
}

// CaseResult is a per-case result within a run.
type CaseResult struct {
	CaseID     string             `json:"caseId"`
	Score      float64            `json:"score"`
	Metrics    map[string]float64 `json:"metrics"`
	LatencyMs  int64              `json:"latencyMs"`
	Output     string             `json:"output"`
	PromptHash string             `json:"promptHash"`
}

// SummaryResponse is the aggregate response across all runs.
type SummaryResponse struct {
	TotalRuns  int                `json:"totalRuns"`
	TotalCases int                `json:"totalCases"`
	AvgScore   float64            `json:"avgScore"`
	Benchmarks []BenchmarkSummary `json:"benchmarks"`
}

// BenchmarkSummary aggregates the runs of one benchmark.
type BenchmarkSummary struct {
	BenchmarkID string      `json:"benchmarkId"`
	Runs        int         `json:"runs"`
	AvgScore    float64     `json:"avgScore"`
	Best        *RunSummary `json:"best,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
