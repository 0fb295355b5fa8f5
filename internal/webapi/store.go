package webapi

import (
	"errors"
	"sort"
	"sync"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/registry"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
)

// ErrRunNotFound is returned when a run ID does not match any stored run.
var ErrRunNotFound = runstore.ErrRunNotFound

// RunStore provides access to benchmark run data.
type RunStore interface {
	// ListRuns returns all runs, sorted by the given field and order.
	ListRuns(sortField, order string) ([]RunSummary, error)
	// GetRun returns a single run with full case details.
	GetRun(id string) (*RunDetail, error)
	// Summary returns aggregate metrics across all runs.
	Summary() (*SummaryResponse, error)
}

// Reloader is implemented by stores whose view can be refreshed from disk.
type Reloader interface {
	Reload() error
}

// RegistryStore serves runs from the run index and the run store. Run
// results never change once written, so loaded results are kept in memory.
type RegistryStore struct {
	reg *registry.Registry

	mu      sync.RWMutex
	results map[string]*models.RunResult
}

// NewRegistryStore creates a RegistryStore over reg.
func NewRegistryStore(reg *registry.Registry) *RegistryStore {
	return &RegistryStore{
		reg:     reg,
		results: make(map[string]*models.RunResult),
	}
}

// Reload rebuilds the run index from the run store.
func (s *RegistryStore) Reload() error {
	_, err := s.reg.RebuildIndex()
	return err
}

func (s *RegistryStore) lookup(id string) (*models.RunResult, error) {
	s.mu.RLock()
	r, ok := s.results[id]
	s.mu.RUnlock()
	if ok {
		return r, nil
	}

	r, err := s.reg.Lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.results[id] = r
	s.mu.Unlock()
	return r, nil
}

func entryToSummary(e models.RegistryEntry) RunSummary {
	return RunSummary{
		ID:          e.RunID,
		BenchmarkID: e.BenchmarkID,
		Provider:    e.Provider,
		Model:       e.Model,
		Status:      string(e.Status),
		MeanScore:   e.MeanScore,
		Fingerprint: e.Fingerprint,
		Timestamp:   e.Timestamp,
	}
}

func resultToDetail(r *models.RunResult) *RunDetail {
	e := r.Entry()
	detail := &RunDetail{
		RunSummary:       entryToSummary(e),
		BenchmarkVersion: r.Spec.Version,
		PromptVersion:    r.Spec.PromptVersion,
		DatasetHash:      r.Spec.DatasetHash,
		Params:           r.RunConfig.AnyMap(),
		CaseCount:        r.Summary.TotalCases,
		StdDev:           r.Summary.StdDev,
		MinScore:         r.Summary.MinScore,
		MaxScore:         r.Summary.MaxScore,
		Duration:         float64(r.Summary.DurationMs) / 1000.0,
		CI95:             r.Summary.CI95,
		Metadata:         r.Metadata,
		Cases:            make([]CaseResult, 0, len(r.Cases)),
	}

	for _, c := range r.Cases {
		metrics := c.Scores.Metrics
		if metrics == nil {
			metrics = map[string]float64{}
		}
		detail.Cases = append(detail.Cases, CaseResult{
			CaseID:     c.CaseID,
			Score:      c.Scores.Score,
			Metrics:    metrics,
			LatencyMs:  c.Timings.LatencyMs,
			Output:     c.ModelOutput,
			PromptHash: c.PromptRenderHash,
		})
	}
	return detail
}

// ListRuns returns all indexed runs sorted by the given field and order.
func (s *RegistryStore) ListRuns(sortField, order string) ([]RunSummary, error) {
	entries, err := s.reg.ListIndex()
	if err != nil {
		return nil, err
	}

	runs := make([]RunSummary, 0, len(entries))
	for _, e := range entries {
		runs = append(runs, entryToSummary(e))
	}

	sortRuns(runs, sortField, order)
	return runs, nil
}

// GetRun returns a single run with full case details.
func (s *RegistryStore) GetRun(id string) (*RunDetail, error) {
	r, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return resultToDetail(r), nil
}

// Summary returns aggregate metrics across all indexed runs.
func (s *RegistryStore) Summary() (*SummaryResponse, error) {
	entries, err := s.reg.ListIndex()
	if err != nil {
		return nil, err
	}

	resp := &SummaryResponse{Benchmarks: []BenchmarkSummary{}}
	if len(entries) == 0 {
		return resp, nil
	}

	byBenchmark := map[string]*BenchmarkSummary{}
	totalScore := 0.0
	for _, e := range entries {
		resp.TotalRuns++
		totalScore += e.MeanScore

		if r, err := s.lookup(e.RunID); err == nil {
			resp.TotalCases += r.Summary.TotalCases
		}

		b, ok := byBenchmark[e.BenchmarkID]
		if !ok {
			b = &BenchmarkSummary{BenchmarkID: e.BenchmarkID}
			byBenchmark[e.BenchmarkID] = b
		}
		b.Runs++
		b.AvgScore += e.MeanScore
		if b.Best == nil || e.MeanScore > b.Best.MeanScore {
			best := entryToSummary(e)
			b.Best = &best
		}
	}
	resp.AvgScore = totalScore / float64(resp.TotalRuns)

	for _, b := range byBenchmark {
		b.AvgScore /= float64(b.Runs)
		resp.Benchmarks = append(resp.Benchmarks, *b)
	}
	sort.Slice(resp.Benchmarks, func(i, j int) bool {
		return resp.Benchmarks[i].BenchmarkID < resp.Benchmarks[j].BenchmarkID
	})

	return resp, nil
}

func sortRuns(runs []RunSummary, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "score":
			return runs[i].MeanScore < runs[j].MeanScore
		case "benchmark":
			return runs[i].BenchmarkID < runs[j].BenchmarkID
		case "model":
			return runs[i].Provider+"/"+runs[i].Model < runs[j].Provider+"/"+runs[j].Model
		default: // "timestamp" or empty
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
	}

	if order == "asc" {
		sort.SliceStable(runs, less)
	} else {
		sort.SliceStable(runs, func(i, j int) bool { return less(j, i) })
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

var (
	_ RunStore = (*RegistryStore)(nil)
	_ Reloader = (*RegistryStore)(nil)
)
