package orchestration

import (
	"fmt"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// Expand turns the matrix configuration into concrete run configs. The
// order is benchmark, then provider, then model, then sweep point. Sweep
// keys are taken in sorted order and the last key varies fastest. Providers
// without models are skipped and reported in the returned warnings.
func Expand(benchmarks []string, providers []string, modelsByProvider map[string][]string, sweep models.Sweep) ([]models.RunConfig, []string) {
	var warnings []string
	points := sweepPoints(sweep)

	var configs []models.RunConfig
	for bi, benchmark := range benchmarks {
		for _, provider := range providers {
			providerModels := modelsByProvider[provider]
			if len(providerModels) == 0 {
				if bi == 0 {
					warnings = append(warnings, fmt.Sprintf("provider %q has no models configured, skipping", provider))
				}
				continue
			}
			for _, model := range providerModels {
				for _, p := range points {
					configs = append(configs, models.RunConfig{
						BenchmarkID: benchmark,
						Provider:    provider,
						Model:       model,
						Params:      p.Clone(),
					})
				}
			}
		}
	}
	return configs, warnings
}

// sweepPoints enumerates the cartesian product of the sweep. An empty sweep
// has exactly one point with no parameters.
func sweepPoints(sweep models.Sweep) []models.Params {
	keys := sweep.Keys()
	points := make([]models.Params, 0, sweep.Size())

	idx := make([]int, len(keys))
	for {
		p := make(models.Params, len(keys))
		for i, k := range keys {
			vals := sweep[k]
			if len(vals) == 0 {
				return nil
			}
			p[k] = vals[idx[i]]
		}
		points = append(points, p)

		// odometer increment, last key first
		i := len(keys) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(sweep[keys[i]]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return points
		}
	}
}
