package models

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// BenchmarkCategory groups benchmarks by the capability they exercise.
type BenchmarkCategory string

const (
	CategoryCodeWriter BenchmarkCategory = "code_writer"
	CategoryReasoning  BenchmarkCategory = "reasoning"
	CategoryRetrieval  BenchmarkCategory = "retrieval"
	CategoryGeneral    BenchmarkCategory = "general"
	CategoryVision     BenchmarkCategory = "vision"
)

var benchmarkIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// BenchmarkSpec describes a benchmark: where its dataset and prompts live,
// which versions of them are in use and how outputs are scored.
type BenchmarkSpec struct {
	ID                   string            `yaml:"id" json:"id"`
	Name                 string            `yaml:"name" json:"name"`
	Category             BenchmarkCategory `yaml:"category" json:"category"`
	Version              string            `yaml:"version" json:"version"`
	DatasetPath          string            `yaml:"dataset_path" json:"dataset_path"`
	DatasetHash          string            `yaml:"dataset_hash,omitempty" json:"dataset_hash,omitempty"`
	PromptTemplatePath   string            `yaml:"prompt_template_path" json:"prompt_template_path"`
	PromptVersion        string            `yaml:"prompt_version" json:"prompt_version"`
	RunConfig            RunParameters     `yaml:"run_config" json:"run_config"`
	Scoring              ScoringConfig     `yaml:"scoring" json:"scoring"`
	OutputArtifactFormat string            `yaml:"output_artifact_format,omitempty" json:"output_artifact_format,omitempty"`
}

// RunParameters are the generation defaults a benchmark ships with.
type RunParameters struct {
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	TopP        float64 `yaml:"top_p" json:"top_p"`
	Seed        *int    `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// DefaultRunParameters mirrors the defaults used when a spec omits run_config.
func DefaultRunParameters() RunParameters {
	return RunParameters{
		Temperature: 0.7,
		MaxTokens:   1024,
		TopP:        1.0,
	}
}

// Params converts the defaults into the parameter layer that sweep values
// and CLI overrides are merged on top of.
func (r RunParameters) Params() Params {
	p := Params{
		"temperature": Float(r.Temperature),
		"max_tokens":  Int(int64(r.MaxTokens)),
		"top_p":       Float(r.TopP),
	}
	if r.Seed != nil {
		p["seed"] = Int(int64(*r.Seed))
	}
	return p
}

// ScoringConfig selects the scorer and the metrics it reports.
type ScoringConfig struct {
	ScorerType string         `yaml:"scorer_type" json:"scorer_type"`
	Metrics    []string       `yaml:"metrics" json:"metrics"`
	Options    map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// LoadBenchmarkSpec loads a spec from a YAML file
func LoadBenchmarkSpec(path string) (*BenchmarkSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBenchmarkSpec(data, path)
}

// ParseBenchmarkSpec decodes and validates a YAML spec. Keys missing from the
// document keep their defaults. name is used in error messages.
func ParseBenchmarkSpec(data []byte, name string) (*BenchmarkSpec, error) {
	spec := BenchmarkSpec{
		RunConfig:            DefaultRunParameters(),
		OutputArtifactFormat: "json",
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing benchmark spec %s: %w", name, err)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("benchmark spec %s: %w", name, err)
	}

	return &spec, nil
}

// Validate checks that the spec is valid
func (s *BenchmarkSpec) Validate() error {
	if !benchmarkIDPattern.MatchString(s.ID) {
		return fmt.Errorf("id %q must match %s", s.ID, benchmarkIDPattern.String())
	}
	if s.Version == "" {
		return fmt.Errorf("version is required")
	}
	if s.DatasetPath == "" {
		return fmt.Errorf("dataset_path is required")
	}
	if s.PromptTemplatePath == "" {
		return fmt.Errorf("prompt_template_path is required")
	}
	if s.PromptVersion == "" {
		return fmt.Errorf("prompt_version is required")
	}
	if s.Scoring.ScorerType == "" {
		return fmt.Errorf("scoring.scorer_type is required")
	}
	rc := s.RunConfig
	if rc.Temperature < 0 || rc.Temperature > 2 {
		return fmt.Errorf("run_config.temperature must be within [0, 2], got %g", rc.Temperature)
	}
	if rc.MaxTokens <= 0 {
		return fmt.Errorf("run_config.max_tokens must be positive, got %d", rc.MaxTokens)
	}
	if rc.TopP < 0 || rc.TopP > 1 {
		return fmt.Errorf("run_config.top_p must be within [0, 1], got %g", rc.TopP)
	}
	return nil
}

// DatasetIdentity returns the dataset hash, falling back to the dataset path
// when no content hash is known.
func (s *BenchmarkSpec) DatasetIdentity() string {
	if s.DatasetHash != "" {
		return s.DatasetHash
	}
	return s.DatasetPath
}
