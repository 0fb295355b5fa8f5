package wizard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownProviders = []string{"dummy", "openai", "openrouter"}

func TestGeneratePipelineYAML_Parses(t *testing.T) {
	answers := &PipelineAnswers{
		Benchmarks:   []string{"code_writer_v1", "summarize_v1"},
		Provider:     "openrouter",
		Models:       []string{"meta-llama/llama-3-8b-instruct", "mistral:7b"},
		Temperatures: []float64{0, 0.7},
		Workers:      4,
		FailFast:     true,
		CachePolicy:  "refresh",
	}

	content, err := GeneratePipelineYAML(answers)
	require.NoError(t, err)
	assert.Contains(t, content, "temperature: [0.0, 0.7]")

	cfg, err := config.ParsePipelineConfig([]byte(content), nil, knownProviders)
	require.NoError(t, err)

	assert.Equal(t, answers.Benchmarks, cfg.Benchmarks)
	assert.Equal(t, []string{"openrouter"}, cfg.Providers)
	assert.Equal(t, answers.Models, cfg.Models["openrouter"])
	assert.Equal(t, []models.ParamValue{models.Float(0), models.Float(0.7)}, cfg.Parameters["temperature"])
	assert.True(t, cfg.RunOptions.Parallelism)
	assert.Equal(t, 4, cfg.RunOptions.Workers())
	assert.True(t, cfg.RunOptions.FailFast)
	assert.Equal(t, config.CachePolicyRefresh, cfg.RunOptions.CachePolicy)
	assert.Equal(t, config.DefaultNamingScheme, cfg.OutputOptions.NamingScheme)
}

func TestGeneratePipelineYAML_Defaults(t *testing.T) {
	answers := DefaultAnswers()
	answers.Temperatures = nil
	answers.Workers = 0

	content, err := GeneratePipelineYAML(&answers)
	require.NoError(t, err)
	assert.NotContains(t, content, "parameters:")

	cfg, err := config.ParsePipelineConfig([]byte(content), nil, knownProviders)
	require.NoError(t, err)
	assert.False(t, cfg.RunOptions.Parallelism)
	assert.Equal(t, 1, cfg.RunOptions.MaxWorkers)
	assert.Empty(t, cfg.Parameters)
}

func TestGenerateProjectYAML_Loads(t *testing.T) {
	answers := DefaultAnswers()
	answers.Provider = "openai"
	answers.Models = []string{"gpt-4o-mini", "gpt-4o"}
	answers.Workers = 3

	content, err := GenerateProjectYAML(&answers)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, projectconfig.FileName), []byte(content), 0o644))

	pc, err := projectconfig.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", pc.Defaults.Provider)
	assert.Equal(t, "gpt-4o-mini", pc.Defaults.Model)
	assert.Equal(t, 3, pc.Defaults.Workers)
	assert.Equal(t, projectconfig.DefaultRunsDir, pc.Paths.Runs)
	require.NotNil(t, pc.Defaults.FailFast)
	assert.False(t, *pc.Defaults.FailFast)
}

func TestFormatFloats(t *testing.T) {
	assert.Equal(t, "0.0, 0.25, 1.0, 0.0000001", formatFloats([]float64{0, 0.25, 1, 1e-7}))
	assert.Equal(t, "", formatFloats(nil))
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats(" 0, 0.5 ,,1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, got)

	got, err = parseFloats("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseFloats("0.1, warm")
	assert.EqualError(t, err, `invalid number "warm"`)
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "hello", []string{"hello"}},
		{"multiple", "a, b, c", []string{"a", "b", "c"}},
		{"with blanks", "a,, b, ,c", []string{"a", "b", "c"}},
		{"whitespace only", "  ,  ,  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
