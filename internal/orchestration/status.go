package orchestration

import (
	"github.com/kaveh8866/SemantIQ/internal/cache"
	"github.com/kaveh8866/SemantIQ/internal/models"
)

// EntryState is the cache and registry view of one planned matrix entry.
type EntryState struct {
	RunConfig   models.RunConfig
	Fingerprint string
	Cached      bool
	// LatestRun is the newest indexed run with the same fingerprint.
	LatestRun *models.RegistryEntry
	Err       error
}

// Status reports, for every planned entry, whether its result is cached and
// which indexed run last produced it. Nothing is executed or written.
func (p *Pipeline) Status() ([]EntryState, []string, error) {
	configs, warnings, err := p.Plan()
	if err != nil {
		return nil, warnings, err
	}

	index, err := p.registry.ListIndex()
	if err != nil {
		return nil, warnings, err
	}
	// the index is newest first, so the first entry per fingerprint wins
	latest := make(map[string]*models.RegistryEntry, len(index))
	for i := range index {
		fp := index[i].Fingerprint
		if fp == "" {
			continue
		}
		if _, ok := latest[fp]; !ok {
			latest[fp] = &index[i]
		}
	}

	states := make([]EntryState, len(configs))
	for i, rc := range configs {
		states[i].RunConfig = rc
		spec, err := p.specs.Resolve(rc.BenchmarkID)
		if err != nil {
			states[i].Err = err
			continue
		}
		fp := cache.FingerprintSpec(spec, rc)
		states[i].Fingerprint = fp
		states[i].Cached = p.cache.Exists(fp)
		states[i].LatestRun = latest[fp]
	}
	return states, warnings, nil
}
