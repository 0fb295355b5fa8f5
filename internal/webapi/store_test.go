package webapi

import (
	"errors"
	"testing"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/registry"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRun(t *testing.T, store *runstore.Store, id, benchmark, model string, scores []float64, ts time.Time) {
	t.Helper()
	cases := make([]models.CaseResult, len(scores))
	for i, s := range scores {
		cases[i] = models.CaseResult{
			CaseID:      string(rune('a' + i)),
			ModelOutput: "out",
			Scores:      models.ScoreResult{Score: s},
			Timings:     models.CaseTimings{LatencyMs: 5},
		}
	}
	result := &models.RunResult{
		RunID:       id,
		Timestamp:   ts,
		Fingerprint: "fp-" + id,
		Spec:        models.BenchmarkSpec{ID: benchmark, Version: "1.0.0", PromptVersion: "2.0.0"},
		RunConfig:   models.Params{"temperature": models.Float(0.3)},
		ModelInfo:   models.ModelInfo{Provider: "dummy", Model: model},
		Cases:       cases,
		Summary:     models.Summarize(cases, 1500*time.Millisecond),
	}
	require.NoError(t, store.Write(result))
}

func newTestStore(t *testing.T) (*RegistryStore, *runstore.Store) {
	t.Helper()
	runs := runstore.New(t.TempDir())
	base := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	writeRun(t, runs, "r1", "code_writer_v1", "m1", []float64{1, 0}, base)
	writeRun(t, runs, "r2", "code_writer_v1", "m2", []float64{1, 1}, base.Add(time.Minute))
	writeRun(t, runs, "r3", "summarize_v1", "m1", []float64{0.25}, base.Add(2*time.Minute))

	store := NewRegistryStore(registry.New(runs))
	require.NoError(t, store.Reload())
	return store, runs
}

func TestRegistryStore_Empty(t *testing.T) {
	store := NewRegistryStore(registry.New(runstore.New(t.TempDir())))

	runs, err := store.ListRuns("", "")
	require.NoError(t, err)
	assert.Empty(t, runs)

	summary, err := store.Summary()
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRuns)
	assert.Empty(t, summary.Benchmarks)
}

func TestRegistryStore_ListRuns(t *testing.T) {
	store, _ := newTestStore(t)

	runs, err := store.ListRuns("", "")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, "fp-r3", runs[0].Fingerprint)

	runs, err = store.ListRuns("score", "asc")
	require.NoError(t, err)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[2].ID)
}

func TestRegistryStore_GetRun(t *testing.T) {
	store, _ := newTestStore(t)

	detail, err := store.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, "code_writer_v1", detail.BenchmarkID)
	assert.Equal(t, "2.0.0", detail.PromptVersion)
	assert.Equal(t, 2, detail.CaseCount)
	assert.InDelta(t, 0.5, detail.MeanScore, 1e-9)
	assert.InDelta(t, 1.5, detail.Duration, 1e-9)
	assert.Equal(t, 0.3, detail.Params["temperature"])
	require.Len(t, detail.Cases, 2)
	assert.NotNil(t, detail.Cases[0].Metrics)

	_, err = store.GetRun("nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = store.GetRun("../r1")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestRegistryStore_Summary(t *testing.T) {
	store, _ := newTestStore(t)

	summary, err := store.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRuns)
	assert.Equal(t, 5, summary.TotalCases)
	assert.InDelta(t, (0.5+1+0.25)/3, summary.AvgScore, 1e-9)

	require.Len(t, summary.Benchmarks, 2)
	cw := summary.Benchmarks[0]
	assert.Equal(t, "code_writer_v1", cw.BenchmarkID)
	assert.Equal(t, 2, cw.Runs)
	assert.InDelta(t, 0.75, cw.AvgScore, 1e-9)
	require.NotNil(t, cw.Best)
	assert.Equal(t, "r2", cw.Best.ID)
}

func TestRegistryStore_ReloadPicksUpNewRuns(t *testing.T) {
	store, runs := newTestStore(t)

	writeRun(t, runs, "r4", "summarize_v1", "m2", []float64{1}, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	before, err := store.ListRuns("", "")
	require.NoError(t, err)
	assert.Len(t, before, 3)

	require.NoError(t, store.Reload())
	after, err := store.ListRuns("", "")
	require.NoError(t, err)
	require.Len(t, after, 4)
	assert.Equal(t, "r4", after[0].ID)
}
