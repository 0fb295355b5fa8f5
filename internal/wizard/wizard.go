package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// PipelineAnswers holds all fields collected during the interactive wizard.
type PipelineAnswers struct {
	Benchmarks   []string
	Provider     string
	Models       []string
	Temperatures []float64
	Workers      int
	FailFast     bool
	CachePolicy  string
}

// DefaultAnswers returns the answers used when no wizard runs.
func DefaultAnswers() PipelineAnswers {
	return PipelineAnswers{
		Benchmarks:   []string{"code_writer_v1"},
		Provider:     projectconfig.DefaultProvider,
		Models:       []string{projectconfig.DefaultModel},
		Temperatures: []float64{0.0, 0.7},
		Workers:      projectconfig.DefaultWorkers,
		CachePolicy:  projectconfig.DefaultCachePolicy,
	}
}

const pipelineTemplate = `# SemantIQ pipeline configuration
benchmarks:
{{- range .Benchmarks }}
  - {{ . }}
{{- end }}
providers:
  - {{ .Provider }}
models:
  {{ .Provider }}:
{{- range .Models }}
    - {{ quote . }}
{{- end }}
{{- if .Temperatures }}
parameters:
  temperature: [{{ floats .Temperatures }}]
{{- end }}
run_options:
  parallelism: {{ gt .Workers 1 }}
  max_workers: {{ .Workers }}
  fail_fast: {{ .FailFast }}
  cache_policy: {{ .CachePolicy }}
output_options:
  base_dir: runs
  naming_scheme: "{timestamp}_{benchmark_id}_{provider}_{model}"
`

// RunPipelineWizard runs an interactive huh form seeded with defaults.
// benchmarks and providers are the choices offered.
func RunPipelineWizard(in io.Reader, out io.Writer, defaults PipelineAnswers, benchmarks, providers []string) (*PipelineAnswers, error) {
	var (
		selected        = defaults.Benchmarks
		provider        = defaults.Provider
		modelsRaw       = strings.Join(defaults.Models, ", ")
		temperaturesRaw = formatFloats(defaults.Temperatures)
		workersRaw      = strconv.Itoa(defaults.Workers)
		failFast        = defaults.FailFast
		cachePolicy     = defaults.CachePolicy
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Benchmarks").
				Description("Benchmarks to include in the matrix").
				Options(huh.NewOptions(benchmarks...)...).
				Value(&selected).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("select at least one benchmark")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Provider").
				Options(huh.NewOptions(providers...)...).
				Value(&provider),
			huh.NewInput().
				Title("Models").
				Description("Comma-separated model names for the provider").
				Placeholder("gpt-4o-mini, gpt-4o").
				Value(&modelsRaw).
				Validate(func(s string) error {
					if len(splitAndTrim(s)) == 0 {
						return fmt.Errorf("at least one model is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Temperatures").
				Description("Comma-separated temperature sweep, empty for the benchmark default").
				Placeholder("0.0, 0.7").
				Value(&temperaturesRaw).
				Validate(func(s string) error {
					_, err := parseFloats(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Workers").
				Description("Maximum concurrent executions").
				Value(&workersRaw).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return fmt.Errorf("workers must be a positive integer")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Cache policy").
				Options(
					huh.NewOption("use", "use"),
					huh.NewOption("refresh", "refresh"),
					huh.NewOption("disable", "disable"),
				).
				Value(&cachePolicy),
			huh.NewConfirm().
				Title("Stop at the first failed run?").
				Value(&failFast),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	temps, err := parseFloats(temperaturesRaw)
	if err != nil {
		return nil, err
	}
	workers, err := strconv.Atoi(strings.TrimSpace(workersRaw))
	if err != nil {
		return nil, fmt.Errorf("invalid workers: %w", err)
	}

	return &PipelineAnswers{
		Benchmarks:   selected,
		Provider:     provider,
		Models:       splitAndTrim(modelsRaw),
		Temperatures: temps,
		Workers:      workers,
		FailFast:     failFast,
		CachePolicy:  cachePolicy,
	}, nil
}

// GeneratePipelineYAML renders a pipeline config from the answers.
func GeneratePipelineYAML(a *PipelineAnswers) (string, error) {
	view := *a
	if view.Workers < 1 {
		view.Workers = 1
	}
	if view.CachePolicy == "" {
		view.CachePolicy = projectconfig.DefaultCachePolicy
	}

	tmpl, err := template.New("pipeline").Funcs(template.FuncMap{
		"quote":  strconv.Quote,
		"floats": formatFloats,
	}).Parse(pipelineTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// GenerateProjectYAML renders a .semantiq.yaml whose defaults match the
// answers.
func GenerateProjectYAML(a *PipelineAnswers) (string, error) {
	defaults := projectconfig.New()
	failFast := a.FailFast
	cfg := projectconfig.ProjectConfig{
		Paths: defaults.Paths,
		Defaults: projectconfig.DefaultsConfig{
			Provider:    a.Provider,
			Workers:     max(a.Workers, 1),
			CachePolicy: a.CachePolicy,
			FailFast:    &failFast,
		},
	}
	if len(a.Models) > 0 {
		cfg.Defaults.Model = a.Models[0]
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal project config: %w", err)
	}
	return "# SemantIQ project configuration\n" + string(data), nil
}

// formatFloats joins values so that each keeps a decimal point and decodes
// back as a float.
func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, p := range splitAndTrim(s) {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, f)
	}
	return out, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
