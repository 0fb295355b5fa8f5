package reporting

import (
	"fmt"

	"github.com/kaveh8866/SemantIQ/internal/orchestration"
)

// InterpretScore returns a plain-language label for a mean score in [0, 1].
func InterpretScore(score float64) string {
	pct := score * 100
	switch {
	case pct > 90:
		return "Excellent (>90%)"
	case pct >= 70:
		return "Good (70-90%)"
	case pct >= 50:
		return "Needs Work (50-70%)"
	default:
		return "Poor (<50%)"
	}
}

// InterpretCacheRate explains how much of an attempted matrix was served
// from the cache.
func InterpretCacheRate(s *orchestration.Summary) string {
	if s.Total == 0 {
		return "No entries were attempted."
	}
	pct := float64(s.Cached) / float64(s.Total) * 100
	switch {
	case s.Cached == s.Total:
		return fmt.Sprintf("Every entry was served from cache (%.0f%%).", pct)
	case s.Cached == 0:
		return "No entry was served from cache."
	default:
		return fmt.Sprintf("%d of %d entries were served from cache (%.0f%%).", s.Cached, s.Total, pct)
	}
}
