package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validPipelineYAML = `benchmarks: [code_writer_v1]
providers: [dummy, openai]
models:
  dummy: [dummy-model]
  openai: [gpt-4o-mini]
parameters:
  temperature: [0.0, 0.7]
  seed: [42]
run_options:
  parallelism: true
  max_workers: 4
  fail_fast: false
  cache_policy: use
output_options:
  base_dir: runs
  naming_scheme: "{timestamp}_{benchmark_id}_{provider}_{model}"
`

const invalidPipelineYAML = `benchmarks: [Code Writer]
providers: [dummy]
models:
  dummy: [dummy-model]
parameters:
  temperature: []
  nested: [[1]]
run_options:
  max_workers: 0
  cache_policy: sometimes
`

const validBenchmarkYAML = `id: code_writer_v1
name: Code Writer V1
category: code_writer
version: "1.0.0"
dataset_path: code_writer_v1.json
prompt_template_path: code_writer/v1
prompt_version: "1.0.0"
run_config:
  temperature: 0.0
  max_tokens: 512
scoring:
  scorer_type: heuristic
  metrics: [not_empty, contains_expected]
`

const invalidBenchmarkYAML = `id: code_writer_v1
name: Code Writer V1
category: poetry
version: "1.0.0"
dataset_path: code_writer_v1.json
prompt_template_path: code_writer/v1
prompt_version: "1.0.0"
run_config:
  temperature: 3.5
scoring:
  metrics: [not_empty]
`

func TestValidatePipelineBytes_Valid(t *testing.T) {
	errs := ValidatePipelineBytes([]byte(validPipelineYAML))
	require.Empty(t, errs, "valid pipeline config should have no errors")
}

func TestValidatePipelineBytes_Invalid(t *testing.T) {
	errs := ValidatePipelineBytes([]byte(invalidPipelineYAML))
	require.NotEmpty(t, errs, "invalid pipeline config should have errors")

	joined := strings.Join(errs, "\n")
	require.Contains(t, joined, "/benchmarks/0")
	require.Contains(t, joined, "/parameters/temperature")
	require.Contains(t, joined, "/parameters/nested/0")
	require.Contains(t, joined, "/run_options/max_workers")
	require.Contains(t, joined, "/run_options/cache_policy")
}

func TestValidatePipelineBytes_MissingRequired(t *testing.T) {
	errs := ValidatePipelineBytes([]byte("providers: [dummy]\n"))
	require.NotEmpty(t, errs)

	joined := strings.Join(errs, "\n")
	require.Contains(t, joined, "benchmarks")
	require.Contains(t, joined, "models")
}

func TestValidatePipelineBytes_BadYAML(t *testing.T) {
	errs := ValidatePipelineBytes([]byte("benchmarks: [unterminated"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")

	errs = ValidatePipelineBytes([]byte(""))
	require.Len(t, errs, 1)
}

func TestValidateBenchmarkBytes_Valid(t *testing.T) {
	errs := ValidateBenchmarkBytes([]byte(validBenchmarkYAML))
	require.Empty(t, errs, "valid benchmark spec should have no errors")
}

func TestValidateBenchmarkBytes_Invalid(t *testing.T) {
	errs := ValidateBenchmarkBytes([]byte(invalidBenchmarkYAML))
	require.NotEmpty(t, errs, "invalid benchmark spec should have errors")

	joined := strings.Join(errs, "\n")
	require.Contains(t, joined, "/category")
	require.Contains(t, joined, "/run_config/temperature")
	require.Contains(t, joined, "scorer_type")
}

func TestValidateBenchmarkDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(validBenchmarkYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(invalidBenchmarkYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not a spec"), 0644))

	errs, err := ValidateBenchmarkDir(dir)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	require.NotEmpty(t, errs["bad.yml"])
}

func TestValidateBenchmarkDir_NotFound(t *testing.T) {
	_, err := ValidateBenchmarkDir("/nonexistent/benchmarks")
	require.Error(t, err)
}
