package scoring

import (
	"fmt"
	"strings"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// ExactMatchScorer compares the trimmed output with the expected string, or
// with any of the expected strings when a list is given.
type ExactMatchScorer struct{}

func (ExactMatchScorer) Score(tc *models.TestCase, output string) models.ScoreResult {
	if !tc.HasExpected() {
		return models.ScoreResult{
			Score:   0,
			Metrics: map[string]float64{"exact_match": 0},
			Details: map[string]any{"message": "No expected output provided"},
		}
	}

	got := strings.TrimSpace(output)
	match := false
	if s, ok := tc.ExpectedString(); ok {
		match = got == strings.TrimSpace(s)
	} else if list, ok := tc.ExpectedList(); ok {
		for _, e := range list {
			if got == strings.TrimSpace(e) {
				match = true
				break
			}
		}
	}

	result := models.ScoreResult{
		Score:   boolMetric(match),
		Metrics: map[string]float64{"exact_match": boolMetric(match)},
		Details: map[string]any{"message": "Match"},
	}
	if !match {
		result.Details["message"] = fmt.Sprintf("Expected: %v, Got: %s", tc.Expected, got)
	}
	return result
}
