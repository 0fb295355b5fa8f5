// Package scoring turns a model output into a ScoreResult. Scorers are pure:
// the same case and output always yield the same result.
package scoring

import (
	"fmt"
	"sort"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// Type identifies a scorer implementation.
type Type string

const (
	TypeExactMatch Type = "exact_match"
	TypeHeuristic  Type = "heuristic"
	TypeRegex      Type = "regex"
)

// Scorer evaluates one output against one case.
type Scorer interface {
	Score(tc *models.TestCase, output string) models.ScoreResult
}

// Constructor builds a scorer from the scoring section of a benchmark spec.
type Constructor func(cfg models.ScoringConfig) (Scorer, error)

var registry = map[Type]Constructor{}

// Register adds a scorer type. It panics on duplicates.
func Register(t Type, c Constructor) {
	if _, exists := registry[t]; exists {
		panic(fmt.Sprintf("scoring: duplicate registration of %q", t))
	}
	registry[t] = c
}

func init() {
	Register(TypeExactMatch, func(models.ScoringConfig) (Scorer, error) { return ExactMatchScorer{}, nil })
	Register(TypeHeuristic, func(models.ScoringConfig) (Scorer, error) { return HeuristicScorer{}, nil })
	Register(TypeRegex, NewRegexScorer)
}

// Types lists the registered scorer types, sorted.
func Types() []string {
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// Factory resolves scorers for benchmark specs.
type Factory interface {
	New(cfg models.ScoringConfig) (Scorer, error)
}

// RegistryFactory resolves scorers from the registered constructors.
type RegistryFactory struct{}

func (RegistryFactory) New(cfg models.ScoringConfig) (Scorer, error) {
	c, ok := registry[Type(cfg.ScorerType)]
	if !ok {
		return nil, fmt.Errorf("unknown scorer type %q (available: %v)", cfg.ScorerType, Types())
	}
	return c(cfg)
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
