package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
	"github.com/kaveh8866/SemantIQ/internal/validation"
	"gopkg.in/yaml.v3"
)

// CachePolicy controls how the orchestrator treats existing cache entries.
type CachePolicy string

const (
	// CachePolicyUse skips execution when an entry exists.
	CachePolicyUse CachePolicy = "use"
	// CachePolicyRefresh executes anyway and overwrites the entry.
	CachePolicyRefresh CachePolicy = "refresh"
	// CachePolicyDisable never consults the cache but still writes it.
	CachePolicyDisable CachePolicy = "disable"
)

// Valid reports whether p is one of the known policies.
func (p CachePolicy) Valid() bool {
	switch p {
	case CachePolicyUse, CachePolicyRefresh, CachePolicyDisable:
		return true
	}
	return false
}

const (
	DefaultMaxWorkers   = 1
	DefaultBaseDir      = "runs"
	DefaultNamingScheme = "{timestamp}_{benchmark_id}_{provider}_{model}"
)

var benchmarkIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// RunOptions control scheduling and cache behavior of a pipeline run.
type RunOptions struct {
	Parallelism bool        `yaml:"parallelism"`
	MaxWorkers  int         `yaml:"max_workers"`
	FailFast    bool        `yaml:"fail_fast"`
	CachePolicy CachePolicy `yaml:"cache_policy"`
}

// Workers returns the effective worker pool size. Without parallelism the
// pipeline runs one entry at a time regardless of MaxWorkers.
func (o RunOptions) Workers() int {
	if !o.Parallelism || o.MaxWorkers < 1 {
		return 1
	}
	return o.MaxWorkers
}

// OutputOptions control where run results are written.
type OutputOptions struct {
	BaseDir      string                        `yaml:"base_dir"`
	NamingScheme string                        `yaml:"naming_scheme"`
	AzureBlob    projectconfig.AzureBlobConfig `yaml:"azure_blob,omitempty"`
}

// PipelineConfig is the declarative matrix consumed by the orchestrator.
type PipelineConfig struct {
	Benchmarks    []string            `yaml:"benchmarks"`
	Providers     []string            `yaml:"providers"`
	Models        map[string][]string `yaml:"models"`
	Parameters    models.Sweep        `yaml:"parameters,omitempty"`
	RunOptions    RunOptions          `yaml:"run_options"`
	OutputOptions OutputOptions       `yaml:"output_options"`
}

// NewPipelineConfig returns an empty config with run and output defaults
// populated. A non-nil pc supplies project-level defaults.
func NewPipelineConfig(pc *projectconfig.ProjectConfig) *PipelineConfig {
	cfg := &PipelineConfig{
		Models:     map[string][]string{},
		Parameters: models.Sweep{},
		RunOptions: RunOptions{
			MaxWorkers:  DefaultMaxWorkers,
			CachePolicy: CachePolicyUse,
		},
		OutputOptions: OutputOptions{
			BaseDir:      DefaultBaseDir,
			NamingScheme: DefaultNamingScheme,
		},
	}
	if pc != nil {
		if pc.Defaults.Workers > 0 {
			cfg.RunOptions.MaxWorkers = pc.Defaults.Workers
		}
		if pc.Defaults.CachePolicy != "" {
			cfg.RunOptions.CachePolicy = CachePolicy(pc.Defaults.CachePolicy)
		}
		if pc.Defaults.FailFast != nil {
			cfg.RunOptions.FailFast = *pc.Defaults.FailFast
		}
		if pc.Paths.Runs != "" {
			cfg.OutputOptions.BaseDir = pc.Resolve(pc.Paths.Runs)
		}
		cfg.OutputOptions.AzureBlob = pc.AzureBlob
	}
	return cfg
}

// ValidationError lists every problem found in a pipeline config. It is
// fatal: nothing is executed when a config fails validation.
type ValidationError struct {
	Source   string
	Problems []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		fmt.Fprintf(&b, "invalid pipeline config %s", e.Source)
	} else {
		b.WriteString("invalid pipeline config")
	}
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

// LoadPipelineConfig reads and validates a pipeline config. Schema problems
// and semantic problems are both reported as a *ValidationError.
func LoadPipelineConfig(path string, pc *projectconfig.ProjectConfig, knownProviders []string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline config: %w", err)
	}
	cfg, err := ParsePipelineConfig(data, pc, knownProviders)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Source = path
		}
		return nil, err
	}
	return cfg, nil
}

// ParsePipelineConfig decodes and validates YAML bytes.
func ParsePipelineConfig(data []byte, pc *projectconfig.ProjectConfig, knownProviders []string) (*PipelineConfig, error) {
	if problems := validation.ValidatePipelineBytes(data); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	cfg := NewPipelineConfig(pc)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	if err := cfg.Validate(knownProviders); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the semantic rules the schema cannot express. Every
// problem is collected; a nil return means the config can be executed.
func (c *PipelineConfig) Validate(knownProviders []string) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(c.Benchmarks) == 0 {
		add("benchmarks: at least one benchmark is required")
	}
	for _, id := range c.Benchmarks {
		if !benchmarkIDPattern.MatchString(id) {
			add("benchmarks: %q is not a valid benchmark id", id)
		}
	}

	if len(c.Providers) == 0 {
		add("providers: at least one provider is required")
	}
	for _, p := range c.Providers {
		if !slices.Contains(knownProviders, p) {
			add("providers: unknown provider %q (known: %s)", p, strings.Join(knownProviders, ", "))
		}
	}
	for p, names := range c.Models {
		if !slices.Contains(c.Providers, p) {
			add("models: provider %q is not listed under providers", p)
		}
		for _, m := range names {
			if hasNUL(m) {
				add("models.%s: model %q contains a NUL byte", p, m)
			}
		}
	}

	// NUL delimits fields in the fingerprint encoding.
	for _, key := range c.Parameters.Keys() {
		if key == "" {
			add("parameters: empty parameter name")
		}
		if hasNUL(key) {
			add("parameters: name %q contains a NUL byte", key)
		}
		if len(c.Parameters[key]) == 0 {
			add("parameters.%s: value list is empty", key)
		}
		for _, v := range c.Parameters[key] {
			if v.Kind() == models.ParamString && hasNUL(v.String()) {
				add("parameters.%s: value %q contains a NUL byte", key, v.String())
			}
		}
	}

	if !c.RunOptions.CachePolicy.Valid() {
		add("run_options.cache_policy: %q is not one of use, refresh, disable", c.RunOptions.CachePolicy)
	}
	if c.RunOptions.MaxWorkers < 1 {
		add("run_options.max_workers: must be at least 1, got %d", c.RunOptions.MaxWorkers)
	}
	if c.OutputOptions.BaseDir == "" {
		add("output_options.base_dir: must not be empty")
	}
	if c.OutputOptions.NamingScheme == "" {
		add("output_options.naming_scheme: must not be empty")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func hasNUL(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}
