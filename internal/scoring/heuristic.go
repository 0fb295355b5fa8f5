package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// HeuristicScorer awards half a point for a non-empty output and half a
// point for containing the expected snippet. Cases without an expected value
// get the second half for free; list or object expectations are not checked.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(tc *models.TestCase, output string) models.ScoreResult {
	metrics := map[string]float64{}
	var notes []string
	score := 0.0

	if strings.TrimSpace(output) != "" {
		metrics["not_empty"] = 1
		score += 0.5
	} else {
		metrics["not_empty"] = 0
		notes = append(notes, "Output is empty")
	}

	if !tc.HasExpected() {
		score += 0.5
	} else if s, ok := tc.ExpectedString(); ok {
		if strings.Contains(output, strings.TrimSpace(s)) {
			metrics["contains_expected"] = 1
			score += 0.5
		} else {
			metrics["contains_expected"] = 0
			notes = append(notes, fmt.Sprintf("Output does not contain expected snippet: '%s'", s))
		}
	}

	message := "Passed heuristics"
	if len(notes) > 0 {
		message = strings.Join(notes, "; ")
	}
	return models.ScoreResult{
		Score:   math.Min(score, 1),
		Metrics: metrics,
		Details: map[string]any{"message": message},
	}
}
