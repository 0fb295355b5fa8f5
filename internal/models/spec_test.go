package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkSpec_LoadFromYAML(t *testing.T) {
	tempDir := t.TempDir()
	yamlContent := `id: code_writer_v2
name: Code Writer V2
category: code_writer
version: "2.0.0"
dataset_path: datasets/code_writer_v2.json
prompt_template_path: code_writer/v2
prompt_version: "2.0.0"
run_config:
  temperature: 0.2
  seed: 7
scoring:
  scorer_type: heuristic
  metrics: [not_empty, contains_expected]
`
	specPath := filepath.Join(tempDir, "code_writer_v2.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(yamlContent), 0644))

	spec, err := LoadBenchmarkSpec(specPath)
	require.NoError(t, err)

	assert.Equal(t, "code_writer_v2", spec.ID)
	assert.Equal(t, CategoryCodeWriter, spec.Category)
	assert.Equal(t, 0.2, spec.RunConfig.Temperature)
	// defaults survive for keys that were not set
	assert.Equal(t, 1024, spec.RunConfig.MaxTokens)
	assert.Equal(t, 1.0, spec.RunConfig.TopP)
	require.NotNil(t, spec.RunConfig.Seed)
	assert.Equal(t, 7, *spec.RunConfig.Seed)
	assert.Equal(t, "json", spec.OutputArtifactFormat)

	params := spec.RunConfig.Params()
	seed, ok := params.Int("seed")
	require.True(t, ok)
	assert.Equal(t, int64(7), seed)
}

func TestBenchmarkSpec_Validate(t *testing.T) {
	valid := func() BenchmarkSpec {
		return BenchmarkSpec{
			ID:                 "bench",
			Version:            "1.0.0",
			DatasetPath:        "d.json",
			PromptTemplatePath: "p/v1",
			PromptVersion:      "1.0.0",
			RunConfig:          DefaultRunParameters(),
			Scoring:            ScoringConfig{ScorerType: "exact_match"},
		}
	}

	s := valid()
	require.NoError(t, s.Validate())

	tests := []struct {
		name   string
		mutate func(*BenchmarkSpec)
	}{
		{name: "uppercase id", mutate: func(s *BenchmarkSpec) { s.ID = "Bench" }},
		{name: "id with space", mutate: func(s *BenchmarkSpec) { s.ID = "a b" }},
		{name: "missing version", mutate: func(s *BenchmarkSpec) { s.Version = "" }},
		{name: "missing scorer", mutate: func(s *BenchmarkSpec) { s.Scoring.ScorerType = "" }},
		{name: "temperature too high", mutate: func(s *BenchmarkSpec) { s.RunConfig.Temperature = 2.5 }},
		{name: "zero max tokens", mutate: func(s *BenchmarkSpec) { s.RunConfig.MaxTokens = 0 }},
		{name: "top_p above one", mutate: func(s *BenchmarkSpec) { s.RunConfig.TopP = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestBenchmarkSpec_DatasetIdentity(t *testing.T) {
	s := BenchmarkSpec{DatasetPath: "datasets/a.json"}
	assert.Equal(t, "datasets/a.json", s.DatasetIdentity())

	s.DatasetHash = "abc123"
	assert.Equal(t, "abc123", s.DatasetIdentity())
}

func TestLoadTestCases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"case_id": "c1", "input": "write factorial", "expected": "def factorial"},
  {"case_id": "c2", "input": "pick", "expected": ["a", "b"], "constraints": ["short"]},
  {"case_id": "c3", "input": "free form"}
]`), 0644))

	cases, err := LoadTestCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 3)

	s, ok := cases[0].ExpectedString()
	assert.True(t, ok)
	assert.Equal(t, "def factorial", s)

	list, ok := cases[1].ExpectedList()
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, list)
	assert.Equal(t, []string{"short"}, cases[1].Constraints)

	assert.False(t, cases[2].HasExpected())

	require.NoError(t, os.WriteFile(path, []byte(`[{"input": "no id"}]`), 0644))
	_, err = LoadTestCases(path)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	empty := Summarize(nil, 0)
	assert.Equal(t, 0, empty.TotalCases)
	assert.Equal(t, 0.0, empty.MeanScore)
	assert.Nil(t, empty.CI95)

	cases := []CaseResult{
		{CaseID: "a", Scores: ScoreResult{Score: 0.0}},
		{CaseID: "b", Scores: ScoreResult{Score: 1.0}},
	}
	s := Summarize(cases, 1500*time.Millisecond)
	assert.Equal(t, 2, s.TotalCases)
	assert.InDelta(t, 0.5, s.MeanScore, 1e-9)
	assert.InDelta(t, 0.5, s.StdDev, 1e-9)
	assert.Equal(t, 0.0, s.MinScore)
	assert.Equal(t, 1.0, s.MaxScore)
	assert.Equal(t, int64(1500), s.DurationMs)
	require.NotNil(t, s.CI95)
	assert.LessOrEqual(t, s.CI95.Lower, s.CI95.Upper)
}

func TestRunResult_Entry(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := RunResult{
		RunID:       "run-1",
		Timestamp:   ts,
		Fingerprint: "ff",
		Spec:        BenchmarkSpec{ID: "bench"},
		ModelInfo:   ModelInfo{Provider: "dummy", Model: "m"},
		Summary:     RunSummary{MeanScore: 0.25},
	}

	e := r.Entry()
	assert.Equal(t, RegistryEntry{
		RunID:       "run-1",
		Timestamp:   ts,
		BenchmarkID: "bench",
		Provider:    "dummy",
		Model:       "m",
		MeanScore:   0.25,
		Status:      StatusCompleted,
		Fingerprint: "ff",
	}, e)
}
