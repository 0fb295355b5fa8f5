// Package projectconfig provides the ProjectConfig struct and loader for
// .semantiq.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file discovered by Load.
const FileName = ".semantiq.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultBenchmarksDir = "benchmarks/"
	DefaultDatasetsDir   = "datasets/"
	DefaultPromptsDir    = "prompts/"
	DefaultRunsDir       = "runs/"
	DefaultCacheDir      = ".cache/runs"

	DefaultProvider    = "dummy"
	DefaultModel       = "dummy-model"
	DefaultWorkers     = 1
	DefaultCachePolicy = "use"

	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultMarberBaseURL     = "https://api.marber.ai/v1"
	DefaultHTTPTimeout       = 60 * time.Second

	DefaultRetryMaxAttempts    = 3
	DefaultRetryInitialBackoff = 2 * time.Second
	DefaultRetryMaxBackoff     = 10 * time.Second

	DefaultServerPort = 3000
)

// PathsConfig holds the directories the runner reads from and writes to.
type PathsConfig struct {
	Benchmarks string `yaml:"benchmarks,omitempty"`
	Datasets   string `yaml:"datasets,omitempty"`
	Prompts    string `yaml:"prompts,omitempty"`
	Runs       string `yaml:"runs,omitempty"`
	Cache      string `yaml:"cache,omitempty"`
}

// DefaultsConfig holds the provider/model used by single-benchmark runs and
// the pipeline defaults applied when a config omits them.
type DefaultsConfig struct {
	Provider    string `yaml:"provider,omitempty"`
	Model       string `yaml:"model,omitempty"`
	Workers     int    `yaml:"workers,omitempty"`
	CachePolicy string `yaml:"cache_policy,omitempty"`
	FailFast    *bool  `yaml:"fail_fast,omitempty"`
}

// ProvidersConfig holds endpoint overrides for the HTTP providers.
type ProvidersConfig struct {
	OpenAIBaseURL     string        `yaml:"openai_base_url,omitempty"`
	OpenRouterBaseURL string        `yaml:"openrouter_base_url,omitempty"`
	MarberBaseURL     string        `yaml:"marber_base_url,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
}

// RetryConfig controls adapter-level retries of transient failures.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts,omitempty"`
	InitialBackoff time.Duration `yaml:"initial_backoff,omitempty"`
	MaxBackoff     time.Duration `yaml:"max_backoff,omitempty"`
}

// ServerConfig holds dashboard API server settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
}

// AzureBlobConfig enables mirroring of run results to a blob container.
// Both fields must be set for the mirror to be active.
type AzureBlobConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
}

// Enabled reports whether a mirror target is configured.
func (c AzureBlobConfig) Enabled() bool {
	return c.AccountURL != "" && c.Container != ""
}

// ProjectConfig is the top-level configuration loaded from .semantiq.yaml.
type ProjectConfig struct {
	Paths     PathsConfig     `yaml:"paths,omitempty"`
	Defaults  DefaultsConfig  `yaml:"defaults,omitempty"`
	Providers ProvidersConfig `yaml:"providers,omitempty"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	AzureBlob AzureBlobConfig `yaml:"azure_blob,omitempty"`

	// Root is the directory the config file was found in, or the start
	// directory when no file exists. Relative paths resolve against it.
	Root string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Benchmarks: DefaultBenchmarksDir,
			Datasets:   DefaultDatasetsDir,
			Prompts:    DefaultPromptsDir,
			Runs:       DefaultRunsDir,
			Cache:      DefaultCacheDir,
		},
		Defaults: DefaultsConfig{
			Provider:    DefaultProvider,
			Model:       DefaultModel,
			Workers:     DefaultWorkers,
			CachePolicy: DefaultCachePolicy,
			FailFast:    boolPtr(false),
		},
		Providers: ProvidersConfig{
			OpenAIBaseURL:     DefaultOpenAIBaseURL,
			OpenRouterBaseURL: DefaultOpenRouterBaseURL,
			MarberBaseURL:     DefaultMarberBaseURL,
			Timeout:           DefaultHTTPTimeout,
		},
		Retry: RetryConfig{
			MaxAttempts:    DefaultRetryMaxAttempts,
			InitialBackoff: DefaultRetryInitialBackoff,
			MaxBackoff:     DefaultRetryMaxBackoff,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// Resolve joins a configured relative path onto the project root.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Load finds .semantiq.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", startDir, err)
	}
	cfg.Root = absStart

	data, root, err := findConfigFile(absStart)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	cfg.Root = root
	return cfg, nil
}

// findConfigFile walks up from dir looking for the config file and returns
// its contents along with the directory it was found in. Returns
// os.ErrNotExist if nothing is found.
func findConfigFile(dir string) ([]byte, string, error) {
	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	mergeString(&dst.Paths.Benchmarks, src.Paths.Benchmarks)
	mergeString(&dst.Paths.Datasets, src.Paths.Datasets)
	mergeString(&dst.Paths.Prompts, src.Paths.Prompts)
	mergeString(&dst.Paths.Runs, src.Paths.Runs)
	mergeString(&dst.Paths.Cache, src.Paths.Cache)

	// Defaults
	mergeString(&dst.Defaults.Provider, src.Defaults.Provider)
	mergeString(&dst.Defaults.Model, src.Defaults.Model)
	mergeString(&dst.Defaults.CachePolicy, src.Defaults.CachePolicy)
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.FailFast != nil {
		dst.Defaults.FailFast = src.Defaults.FailFast
	}

	// Providers
	mergeString(&dst.Providers.OpenAIBaseURL, src.Providers.OpenAIBaseURL)
	mergeString(&dst.Providers.OpenRouterBaseURL, src.Providers.OpenRouterBaseURL)
	mergeString(&dst.Providers.MarberBaseURL, src.Providers.MarberBaseURL)
	if src.Providers.Timeout != 0 {
		dst.Providers.Timeout = src.Providers.Timeout
	}

	// Retry
	if src.Retry.MaxAttempts != 0 {
		dst.Retry.MaxAttempts = src.Retry.MaxAttempts
	}
	if src.Retry.InitialBackoff != 0 {
		dst.Retry.InitialBackoff = src.Retry.InitialBackoff
	}
	if src.Retry.MaxBackoff != 0 {
		dst.Retry.MaxBackoff = src.Retry.MaxBackoff
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}

	// AzureBlob
	mergeString(&dst.AzureBlob.AccountURL, src.AzureBlob.AccountURL)
	mergeString(&dst.AzureBlob.Container, src.AzureBlob.Container)
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func boolPtr(b bool) *bool {
	return &b
}
