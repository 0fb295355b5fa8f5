package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/kaveh8866/SemantIQ/internal/models"
)

// RegexOptions configures the regex scorer through scoring.options.
type RegexOptions struct {
	MustMatch    []string `mapstructure:"must_match"`
	MustNotMatch []string `mapstructure:"must_not_match"`
}

// RegexScorer scores the fraction of pattern checks that hold.
type RegexScorer struct {
	mustMatch    []*regexp.Regexp
	mustNotMatch []*regexp.Regexp
}

func NewRegexScorer(cfg models.ScoringConfig) (Scorer, error) {
	var opts RegexOptions
	if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
		return nil, fmt.Errorf("regex scorer options: %w", err)
	}
	if len(opts.MustMatch)+len(opts.MustNotMatch) == 0 {
		return nil, fmt.Errorf("regex scorer needs at least one must_match or must_not_match pattern")
	}

	s := &RegexScorer{}
	for _, p := range opts.MustMatch {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid must_match regex pattern %q: %w", p, err)
		}
		s.mustMatch = append(s.mustMatch, re)
	}
	for _, p := range opts.MustNotMatch {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid must_not_match regex pattern %q: %w", p, err)
		}
		s.mustNotMatch = append(s.mustNotMatch, re)
	}
	return s, nil
}

func (s *RegexScorer) Score(_ *models.TestCase, output string) models.ScoreResult {
	var failures []string
	for _, re := range s.mustMatch {
		if !re.MatchString(output) {
			failures = append(failures, fmt.Sprintf("Missing expected pattern: %s", re))
		}
	}
	for _, re := range s.mustNotMatch {
		if re.MatchString(output) {
			failures = append(failures, fmt.Sprintf("Found forbidden pattern: %s", re))
		}
	}

	total := len(s.mustMatch) + len(s.mustNotMatch)
	passed := total - len(failures)
	score := float64(passed) / float64(total)

	message := "All patterns matched"
	if len(failures) > 0 {
		message = strings.Join(failures, "; ")
	}
	return models.ScoreResult{
		Score: score,
		Metrics: map[string]float64{
			"patterns_passed": float64(passed),
			"patterns_total":  float64(total),
		},
		Details: map[string]any{
			"message":  message,
			"failures": failures,
		},
	}
}
