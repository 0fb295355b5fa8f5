package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kaveh8866/SemantIQ/internal/projectconfig"
)

// Environment variables recognized by LoadSettings.
const (
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvOpenAIBaseURL     = "OPENAI_BASE_URL"
	EnvOpenRouterAPIKey  = "OPENROUTER_API_KEY"
	EnvOpenRouterBaseURL = "OPENROUTER_BASE_URL"
	EnvMarberAPIKey      = "MARBER_API_KEY"
	EnvMarberAPIURL      = "MARBER_API_URL"
)

// RetrySettings is the adapter retry schedule.
type RetrySettings struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Settings holds provider credentials and endpoints. It is built once per
// process and passed by value to adapter constructors.
type Settings struct {
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	MarberAPIKey      string
	MarberBaseURL     string

	HTTPTimeout time.Duration
	Retry       RetrySettings
}

// DefaultSettings returns settings with endpoints and retry schedule taken
// from the project config defaults and no credentials.
func DefaultSettings() Settings {
	return settingsFrom(projectconfig.New())
}

func settingsFrom(pc *projectconfig.ProjectConfig) Settings {
	return Settings{
		OpenAIBaseURL:     pc.Providers.OpenAIBaseURL,
		OpenRouterBaseURL: pc.Providers.OpenRouterBaseURL,
		MarberBaseURL:     pc.Providers.MarberBaseURL,
		HTTPTimeout:       pc.Providers.Timeout,
		Retry: RetrySettings{
			MaxAttempts:    pc.Retry.MaxAttempts,
			InitialBackoff: pc.Retry.InitialBackoff,
			MaxBackoff:     pc.Retry.MaxBackoff,
		},
	}
}

// LoadSettings builds Settings. Values come from the process environment
// first, then from envFile (a .env file; a missing file is not an error),
// then from the project config. A nil pc uses project defaults.
func LoadSettings(envFile string, pc *projectconfig.ProjectConfig) (Settings, error) {
	if pc == nil {
		pc = projectconfig.New()
	}
	s := settingsFrom(pc)

	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("No .env file found", "path", envFile)
		default:
			return Settings{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	lookup := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
			return
		}
		if v := dotenv[key]; v != "" {
			*dst = v
		}
	}

	lookup(EnvOpenAIAPIKey, &s.OpenAIAPIKey)
	lookup(EnvOpenAIBaseURL, &s.OpenAIBaseURL)
	lookup(EnvOpenRouterAPIKey, &s.OpenRouterAPIKey)
	lookup(EnvOpenRouterBaseURL, &s.OpenRouterBaseURL)
	lookup(EnvMarberAPIKey, &s.MarberAPIKey)
	lookup(EnvMarberAPIURL, &s.MarberBaseURL)

	return s, nil
}

// LogValue implements slog.LogValuer so credentials never reach the logs.
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("openai_key_set", s.OpenAIAPIKey != ""),
		slog.String("openai_base_url", s.OpenAIBaseURL),
		slog.Bool("openrouter_key_set", s.OpenRouterAPIKey != ""),
		slog.String("openrouter_base_url", s.OpenRouterBaseURL),
		slog.Bool("marber_key_set", s.MarberAPIKey != ""),
		slog.String("marber_base_url", s.MarberBaseURL),
		slog.Duration("http_timeout", s.HTTPTimeout),
		slog.Int("retry_max_attempts", s.Retry.MaxAttempts),
	)
}
