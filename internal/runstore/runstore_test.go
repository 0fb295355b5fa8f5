package runstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	now := time.Date(2026, 5, 4, 13, 2, 1, 0, time.UTC)

	id := NewRunID("", "code_writer_v1", "openrouter", "openai/gpt-4o", now)
	assert.Regexp(t, `^20260504-130201_code_writer_v1_openrouter_openai-gpt-4o_[0-9a-f]{8}$`, id)

	other := NewRunID("", "code_writer_v1", "openrouter", "openai/gpt-4o", now)
	assert.NotEqual(t, id, other)

	custom := NewRunID("{benchmark_id}-{model}", "b", "p", "m", now)
	assert.Regexp(t, `^b-m_[0-9a-f]{8}$`, custom)
}

func TestStore_WriteRead(t *testing.T) {
	store := New(t.TempDir())
	result := &models.RunResult{
		RunID:     "run-1",
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Spec:      models.BenchmarkSpec{ID: "bench"},
		ModelInfo: models.ModelInfo{Provider: "dummy", Model: "m"},
	}

	require.NoError(t, store.Write(result))
	assert.FileExists(t, filepath.Join(store.Dir(), "run-1", "result.json"))

	got, err := store.Read("run-1")
	require.NoError(t, err)
	assert.Equal(t, "bench", got.Spec.ID)

	_, err = store.Read("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = store.Read("../etc")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_WriteRejectsBadIDs(t *testing.T) {
	store := New(t.TempDir())

	for _, id := range []string{"", "..", "a/b"} {
		err := store.Write(&models.RunResult{RunID: id})
		var werr *WriteError
		require.ErrorAs(t, err, &werr, "id %q", id)
	}
}

func TestStore_Remove(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Write(&models.RunResult{RunID: "run-1"}))

	require.NoError(t, store.Remove("run-1"))
	assert.NoDirExists(t, filepath.Join(store.Dir(), "run-1"))
	_, err := store.Read("run-1")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.NoError(t, store.Remove("run-1"), "removing a missing run is a no-op")
	assert.Error(t, store.Remove(".."))
	assert.DirExists(t, store.Dir())
}

func TestStore_ResultPaths(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	paths, err := store.ResultPaths()
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, store.Write(&models.RunResult{RunID: "a"}))
	require.NoError(t, store.Write(&models.RunResult{RunID: "b"}))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("[]"), 0644))

	paths, err = store.ResultPaths()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a", "result.json"),
		filepath.Join(dir, "b", "result.json"),
	}, paths)

	missing := New(filepath.Join(dir, "nope"))
	paths, err = missing.ResultPaths()
	require.NoError(t, err)
	assert.Empty(t, paths)
}
