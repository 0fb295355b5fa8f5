package orchestration

import (
	"fmt"
	"path"
	"strings"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// runFilter selects matrix entries by glob. Patterns are matched against the
// benchmark id and against the "benchmark/provider/model" key. A leading "!"
// turns a pattern into an exclusion.
type runFilter struct {
	include []string
	exclude []string
}

func newRunFilter(patterns []string) (*runFilter, error) {
	f := &runFilter{}
	for _, p := range patterns {
		neg := strings.HasPrefix(p, "!")
		glob := strings.TrimPrefix(p, "!")
		if _, err := path.Match(glob, ""); err != nil {
			return nil, fmt.Errorf("invalid run filter pattern %q: %w", p, err)
		}
		if neg {
			f.exclude = append(f.exclude, glob)
		} else {
			f.include = append(f.include, glob)
		}
	}
	return f, nil
}

func (f *runFilter) keep(rc models.RunConfig) bool {
	if matchesAny(rc, f.exclude) {
		return false
	}
	return len(f.include) == 0 || matchesAny(rc, f.include)
}

// matchesAny reports whether the benchmark id or the full key of rc matches
// one of the globs. The globs are already validated.
func matchesAny(rc models.RunConfig, globs []string) bool {
	key := rc.BenchmarkID + "/" + rc.Provider + "/" + rc.Model
	for _, g := range globs {
		if ok, _ := path.Match(g, rc.BenchmarkID); ok {
			return true
		}
		if ok, _ := path.Match(g, key); ok {
			return true
		}
	}
	return false
}

// FilterRunConfigs returns the configs selected by patterns, in their
// original order. An empty patterns slice returns all configs unchanged.
func FilterRunConfigs(configs []models.RunConfig, patterns []string) ([]models.RunConfig, error) {
	if len(patterns) == 0 {
		return configs, nil
	}

	f, err := newRunFilter(patterns)
	if err != nil {
		return nil, err
	}

	var matched []models.RunConfig
	for _, rc := range configs {
		if f.keep(rc) {
			matched = append(matched, rc)
		}
	}
	return matched, nil
}
