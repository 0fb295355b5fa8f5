package scoring

import (
	"testing"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatchScorer(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		output   string
		want     float64
	}{
		{name: "string match after trim", expected: " 42 ", output: "42\n", want: 1},
		{name: "string mismatch", expected: "42", output: "43", want: 0},
		{name: "list match", expected: []any{"yes", "y"}, output: "y", want: 1},
		{name: "list mismatch", expected: []any{"yes", "y"}, output: "no", want: 0},
		{name: "no expected", expected: nil, output: "anything", want: 0},
		{name: "object never matches", expected: map[string]any{"a": 1}, output: "a", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := &models.TestCase{CaseID: "c", Expected: tt.expected}
			got := ExactMatchScorer{}.Score(tc, tt.output)
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, tt.want, got.Metrics["exact_match"])
		})
	}
}

func TestHeuristicScorer(t *testing.T) {
	tests := []struct {
		name        string
		expected    any
		output      string
		want        float64
		wantMetrics map[string]float64
	}{
		{
			name:        "not empty and contains expected",
			expected:    "def factorial",
			output:      "def factorial(n):\n    return 1",
			want:        1,
			wantMetrics: map[string]float64{"not_empty": 1, "contains_expected": 1},
		},
		{
			name:        "not empty but missing snippet",
			expected:    "def factorial",
			output:      "Dummy response",
			want:        0.5,
			wantMetrics: map[string]float64{"not_empty": 1, "contains_expected": 0},
		},
		{
			name:        "no expected gives partial credit",
			output:      "something",
			want:        1,
			wantMetrics: map[string]float64{"not_empty": 1},
		},
		{
			name:        "empty output without expected",
			output:      "   ",
			want:        0.5,
			wantMetrics: map[string]float64{"not_empty": 0},
		},
		{
			name:        "list expectations are not checked",
			expected:    []any{"a"},
			output:      "text",
			want:        0.5,
			wantMetrics: map[string]float64{"not_empty": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := &models.TestCase{CaseID: "c", Expected: tt.expected}
			got := HeuristicScorer{}.Score(tc, tt.output)
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, tt.wantMetrics, got.Metrics)
			assert.NotEmpty(t, got.Details["message"])
		})
	}
}

func TestRegexScorer(t *testing.T) {
	s, err := RegistryFactory{}.New(models.ScoringConfig{
		ScorerType: "regex",
		Options: map[string]any{
			"must_match":     []any{`def \w+\(`, `return`},
			"must_not_match": []any{`TODO`},
		},
	})
	require.NoError(t, err)

	full := s.Score(&models.TestCase{}, "def f(n):\n    return n")
	assert.Equal(t, 1.0, full.Score)
	assert.Equal(t, "All patterns matched", full.Details["message"])

	partial := s.Score(&models.TestCase{}, "def f(n):  # TODO")
	assert.InDelta(t, 1.0/3.0, partial.Score, 1e-9)
	assert.Len(t, partial.Details["failures"], 2)
}

func TestRegexScorer_InvalidOptions(t *testing.T) {
	f := RegistryFactory{}

	_, err := f.New(models.ScoringConfig{ScorerType: "regex"})
	assert.ErrorContains(t, err, "at least one")

	_, err = f.New(models.ScoringConfig{ScorerType: "regex", Options: map[string]any{"must_match": []any{"("}}})
	assert.ErrorContains(t, err, "invalid must_match")

	_, err = f.New(models.ScoringConfig{ScorerType: "regex", Options: map[string]any{"must_match": 12}})
	assert.Error(t, err)
}

func TestRegistryFactory(t *testing.T) {
	f := RegistryFactory{}

	for _, typ := range []string{"exact_match", "heuristic"} {
		s, err := f.New(models.ScoringConfig{ScorerType: typ})
		require.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := f.New(models.ScoringConfig{ScorerType: "llm_judge"})
	assert.ErrorContains(t, err, "unknown scorer type")

	assert.Equal(t, []string{"exact_match", "heuristic", "regex"}, Types())
}

func TestScorersAreDeterministic(t *testing.T) {
	tc := &models.TestCase{CaseID: "c", Expected: "x"}
	for _, s := range []Scorer{ExactMatchScorer{}, HeuristicScorer{}} {
		assert.Equal(t, s.Score(tc, "x y"), s.Score(tc, "x y"))
	}
}
