// Package registry maintains runs/index.json, a derived listing of every run
// in the run store. The index can always be rebuilt from the run store.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
	"github.com/kaveh8866/SemantIQ/internal/utils"
)

// IndexFile is the name of the index inside the runs directory.
const IndexFile = "index.json"

// WriteError reports a failure to publish the index.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing run index %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Registry rebuilds and reads the run index.
type Registry struct {
	store  *runstore.Store
	logger *slog.Logger

	mu sync.Mutex
}

type Option func(*Registry)

// WithLogger sets the logger used for skipped-entry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

func New(store *runstore.Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the run store the index is derived from.
func (r *Registry) Store() *runstore.Store {
	return r.store
}

// IndexPath returns the location of index.json.
func (r *Registry) IndexPath() string {
	return filepath.Join(r.store.Dir(), IndexFile)
}

// RebuildIndex scans every persisted run and replaces the index. Runs whose
// result.json cannot be read or parsed are skipped with a warning. Concurrent
// rebuilds are serialized.
func (r *Registry) RebuildIndex() ([]models.RegistryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths, err := r.store.ResultPaths()
	if err != nil {
		return nil, fmt.Errorf("scanning run store: %w", err)
	}

	entries := make([]models.RegistryEntry, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			r.logger.Warn("Skipping unreadable run", "path", p, "error", err)
			continue
		}
		result, err := runstore.Decode(data)
		if err != nil {
			r.logger.Warn("Skipping unparsable run", "path", p, "error", err)
			continue
		}
		entries = append(entries, result.Entry())
	}

	SortEntries(entries)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling index: %w", err)
	}
	if err := utils.WriteFileAtomic(r.IndexPath(), data, 0644); err != nil {
		return nil, &WriteError{Path: r.IndexPath(), Err: err}
	}

	r.logger.Debug("Rebuilt run index", "entries", len(entries), "path", r.IndexPath())
	return entries, nil
}

// ListIndex returns the indexed runs, newest first. A missing index yields an
// empty list.
func (r *Registry) ListIndex() ([]models.RegistryEntry, error) {
	data, err := os.ReadFile(r.IndexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.RegistryEntry{}, nil
		}
		return nil, fmt.Errorf("reading run index: %w", err)
	}

	var entries []models.RegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing run index: %w", err)
	}
	SortEntries(entries)
	return entries, nil
}

// Lookup returns the full result of a run.
func (r *Registry) Lookup(runID string) (*models.RunResult, error) {
	return r.store.Read(runID)
}

// SortEntries orders entries by timestamp descending, breaking ties by run ID
// ascending.
func SortEntries(entries []models.RegistryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.RunID < b.RunID
	})
}
