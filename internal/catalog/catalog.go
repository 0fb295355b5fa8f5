// Package catalog resolves benchmark ids to their specs. Specs are read
// from YAML files in the benchmarks directory, falling back to the specs
// built into the binary.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/validation"
)

// ErrBenchmarkNotFound is returned when no spec exists for an id.
var ErrBenchmarkNotFound = errors.New("benchmark not found")

//go:embed builtin
var builtinFS embed.FS

func builtinSub(dir string) fs.FS {
	sub, err := fs.Sub(builtinFS, path.Join("builtin", dir))
	if err != nil {
		panic(fmt.Sprintf("embedded %s: %v", dir, err))
	}
	return sub
}

// BuiltinDatasets holds the datasets of the built-in benchmarks.
func BuiltinDatasets() fs.FS { return builtinSub("datasets") }

// BuiltinPrompts holds the prompt templates of the built-in benchmarks.
func BuiltinPrompts() fs.FS { return builtinSub("prompts") }

func builtinSpecs() fs.FS { return builtinSub("benchmarks") }

// DatasetHasher computes the content hash of a dataset path.
type DatasetHasher interface {
	Hash(path string) (string, error)
}

// Catalog resolves and caches benchmark specs. A resolved spec is shared by
// every caller and must not be modified.
type Catalog struct {
	dir    string
	hasher DatasetHasher
	logger *slog.Logger

	mu       sync.Mutex
	resolved map[string]*models.BenchmarkSpec
}

// Option configures a Catalog.
type Option func(*Catalog)

func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// New creates a catalog reading specs from dir. hasher fills in the dataset
// hash of specs that do not pin one; nil leaves it empty.
func New(dir string, hasher DatasetHasher, opts ...Option) *Catalog {
	c := &Catalog{
		dir:      dir,
		hasher:   hasher,
		logger:   slog.Default(),
		resolved: make(map[string]*models.BenchmarkSpec),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the spec for id. Specs on disk take precedence over
// built-in ones. The result is cached for the lifetime of the catalog.
func (c *Catalog) Resolve(id string) (*models.BenchmarkSpec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if spec, ok := c.resolved[id]; ok {
		return spec, nil
	}

	spec, err := c.load(id)
	if err != nil {
		return nil, err
	}
	if err := c.fillDatasetHash(spec); err != nil {
		return nil, err
	}

	c.resolved[id] = spec
	return spec, nil
}

func (c *Catalog) load(id string) (*models.BenchmarkSpec, error) {
	if c.dir != "" {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(c.dir, id+ext)
			data, err := os.ReadFile(p)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("reading benchmark %s: %w", id, err)
			}
			return parseSpec(data, p, id)
		}
	}

	data, err := fs.ReadFile(builtinSpecs(), id+".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBenchmarkNotFound, id)
	}
	return parseSpec(data, "builtin:"+id, id)
}

func parseSpec(data []byte, name, id string) (*models.BenchmarkSpec, error) {
	if problems := validation.ValidateBenchmarkBytes(data); len(problems) > 0 {
		return nil, fmt.Errorf("benchmark spec %s is invalid:\n  %s", name, strings.Join(problems, "\n  "))
	}
	spec, err := models.ParseBenchmarkSpec(data, name)
	if err != nil {
		return nil, err
	}
	if id != "" && spec.ID != id {
		return nil, fmt.Errorf("benchmark spec %s declares id %q, expected %q", name, spec.ID, id)
	}
	return spec, nil
}

// fillDatasetHash computes the dataset hash when the spec does not pin one,
// and verifies it when it does. An unreadable dataset leaves the hash empty
// so the dataset path stands in for it.
func (c *Catalog) fillDatasetHash(spec *models.BenchmarkSpec) error {
	if c.hasher == nil {
		return nil
	}

	sum, err := c.hasher.Hash(spec.DatasetPath)
	if err != nil {
		c.logger.Debug("Dataset not readable, using its path as identity", "benchmark", spec.ID, "dataset", spec.DatasetPath, "error", err)
		return nil
	}

	if spec.DatasetHash != "" && spec.DatasetHash != sum {
		return fmt.Errorf("benchmark %s: dataset %s hash mismatch: spec pins %s, content is %s",
			spec.ID, spec.DatasetPath, spec.DatasetHash, sum)
	}
	spec.DatasetHash = sum
	return nil
}

// List returns every resolvable spec sorted by id. Specs on disk that fail
// to load are skipped with a warning.
func (c *Catalog) List() ([]*models.BenchmarkSpec, error) {
	ids := map[string]bool{}

	builtin, err := fs.ReadDir(builtinSpecs(), ".")
	if err != nil {
		return nil, fmt.Errorf("reading built-in benchmarks: %w", err)
	}
	for _, e := range builtin {
		ids[strings.TrimSuffix(e.Name(), ".yaml")] = true
	}

	if c.dir != "" {
		entries, err := os.ReadDir(c.dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading benchmark directory: %w", err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
				continue
			}
			ids[strings.TrimSuffix(e.Name(), ext)] = true
		}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	specs := make([]*models.BenchmarkSpec, 0, len(sorted))
	for _, id := range sorted {
		spec, err := c.Resolve(id)
		if err != nil {
			c.logger.Warn("Skipping benchmark", "id", id, "error", err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
