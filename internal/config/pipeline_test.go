package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownProviders = []string{"dummy", "dummy_vision", "openai", "openrouter", "marber", "copilot"}

const samplePipeline = `benchmarks: [code_writer_v1]
providers: [dummy, openai]
models:
  dummy: [dummy-model]
  openai: [gpt-4o-mini, gpt-4o]
parameters:
  temperature: [0.1, 0.9]
  seed: [42]
run_options:
  parallelism: true
  max_workers: 4
  fail_fast: true
  cache_policy: refresh
output_options:
  base_dir: out
`

func TestParsePipelineConfig(t *testing.T) {
	cfg, err := ParsePipelineConfig([]byte(samplePipeline), nil, knownProviders)
	require.NoError(t, err)

	assert.Equal(t, []string{"code_writer_v1"}, cfg.Benchmarks)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, cfg.Models["openai"])
	require.Len(t, cfg.Parameters["temperature"], 2)
	assert.Equal(t, models.ParamFloat, cfg.Parameters["temperature"][0].Kind())
	assert.Equal(t, models.ParamInt, cfg.Parameters["seed"][0].Kind())

	assert.True(t, cfg.RunOptions.FailFast)
	assert.Equal(t, CachePolicyRefresh, cfg.RunOptions.CachePolicy)
	assert.Equal(t, 4, cfg.RunOptions.Workers())

	assert.Equal(t, "out", cfg.OutputOptions.BaseDir)
	// omitted keys keep their defaults
	assert.Equal(t, DefaultNamingScheme, cfg.OutputOptions.NamingScheme)
}

func TestParsePipelineConfig_Defaults(t *testing.T) {
	cfg, err := ParsePipelineConfig([]byte(`benchmarks: [b]
providers: [dummy]
models: {dummy: [m]}
`), nil, knownProviders)
	require.NoError(t, err)

	assert.Equal(t, CachePolicyUse, cfg.RunOptions.CachePolicy)
	assert.Equal(t, 1, cfg.RunOptions.MaxWorkers)
	assert.False(t, cfg.RunOptions.FailFast)
	assert.Equal(t, DefaultBaseDir, cfg.OutputOptions.BaseDir)
	assert.Empty(t, cfg.Parameters)
}

func TestParsePipelineConfig_ProjectDefaults(t *testing.T) {
	pc := projectconfig.New()
	pc.Root = "/proj"
	pc.Defaults.CachePolicy = "disable"
	pc.Defaults.Workers = 3

	cfg, err := ParsePipelineConfig([]byte(`benchmarks: [b]
providers: [dummy]
models: {dummy: [m]}
run_options: {parallelism: true}
`), pc, knownProviders)
	require.NoError(t, err)

	assert.Equal(t, CachePolicyDisable, cfg.RunOptions.CachePolicy)
	assert.Equal(t, 3, cfg.RunOptions.Workers())
	assert.Equal(t, filepath.Join("/proj", "runs"), cfg.OutputOptions.BaseDir)
}

func TestRunOptions_Workers(t *testing.T) {
	assert.Equal(t, 1, RunOptions{MaxWorkers: 8}.Workers())
	assert.Equal(t, 8, RunOptions{Parallelism: true, MaxWorkers: 8}.Workers())
	assert.Equal(t, 1, RunOptions{Parallelism: true}.Workers())
}

func TestParsePipelineConfig_SchemaErrors(t *testing.T) {
	_, err := ParsePipelineConfig([]byte(`benchmarks: [b]
providers: [dummy]
models: {dummy: [m]}
parameters:
  temperature: []
run_options:
  cache_policy: sometimes
`), nil, knownProviders)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	joined := strings.Join(ve.Problems, "\n")
	assert.Contains(t, joined, "temperature")
	assert.Contains(t, joined, "cache_policy")
}

func TestPipelineConfig_ValidateCollectsEveryProblem(t *testing.T) {
	cfg := NewPipelineConfig(nil)
	cfg.Benchmarks = []string{"Bad ID"}
	cfg.Providers = []string{"dummy", "acme"}
	cfg.Models = map[string][]string{"dummy": {"m"}, "other": {"x"}}
	cfg.Parameters = models.Sweep{"temperature": {}}
	cfg.RunOptions.CachePolicy = "sometimes"
	cfg.RunOptions.MaxWorkers = 0

	err := cfg.Validate(knownProviders)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Problems, 6)

	msg := err.Error()
	assert.Contains(t, msg, `"Bad ID"`)
	assert.Contains(t, msg, `unknown provider "acme"`)
	assert.Contains(t, msg, `provider "other"`)
	assert.Contains(t, msg, "parameters.temperature")
	assert.Contains(t, msg, "cache_policy")
	assert.Contains(t, msg, "max_workers")
}

func TestPipelineConfig_ValidateRejectsNULBytes(t *testing.T) {
	cfg := NewPipelineConfig(nil)
	cfg.Benchmarks = []string{"b"}
	cfg.Providers = []string{"dummy"}
	cfg.Models = map[string][]string{"dummy": {"m\x00x"}}
	// {"a\x00s:x\x00b": y} would encode exactly like {"a": x, "b": y}
	cfg.Parameters = models.Sweep{
		"a\x00s:x\x00b": {models.String("y")},
		"style":         {models.String("x\x00b\x00s:y"), models.String("plain")},
	}

	err := cfg.Validate(knownProviders)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Problems, 3)

	msg := err.Error()
	assert.Contains(t, msg, "models.dummy")
	assert.Contains(t, msg, "parameters: name")
	assert.Contains(t, msg, "parameters.style")
	assert.NotContains(t, msg, "plain")
}

func TestPipelineConfig_ProviderWithoutModelsIsValid(t *testing.T) {
	cfg := NewPipelineConfig(nil)
	cfg.Benchmarks = []string{"b"}
	cfg.Providers = []string{"dummy", "openai"}
	cfg.Models = map[string][]string{"dummy": {"m"}}

	assert.NoError(t, cfg.Validate(knownProviders))
}

func TestLoadPipelineConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePipeline), 0644))

	cfg, err := LoadPipelineConfig(path, nil, knownProviders)
	require.NoError(t, err)
	assert.Len(t, cfg.Providers, 2)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("benchmarks: [b]\nproviders: [acme]\nmodels: {}\n"), 0644))
	_, err = LoadPipelineConfig(bad, nil, knownProviders)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, bad, ve.Source)
	assert.Contains(t, err.Error(), bad)

	_, err = LoadPipelineConfig(filepath.Join(dir, "missing.yaml"), nil, knownProviders)
	require.Error(t, err)
	assert.False(t, errors.As(err, &ve))
}
