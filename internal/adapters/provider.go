package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/kaveh8866/SemantIQ/internal/config"
)

// Provider names one supported model backend.
type Provider string

const (
	ProviderDummy       Provider = "dummy"
	ProviderDummyVision Provider = "dummy_vision"
	ProviderOpenAI      Provider = "openai"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderMarber      Provider = "marber"
	ProviderCopilot     Provider = "copilot"
)

var allProviders = []Provider{
	ProviderDummy,
	ProviderDummyVision,
	ProviderOpenAI,
	ProviderOpenRouter,
	ProviderMarber,
	ProviderCopilot,
}

// Providers returns the names of every supported provider.
func Providers() []string {
	names := make([]string, len(allProviders))
	for i, p := range allProviders {
		names[i] = string(p)
	}
	return names
}

// ParseProvider converts a provider name into a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(name)
	if !slices.Contains(allProviders, p) {
		return "", fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}

// Factory builds adapters for a provider/model pair.
type Factory interface {
	New(provider, model string) (Adapter, error)
}

// ProviderFactory is the Factory used in production. It holds the settings
// every adapter is built from and shares one Copilot client across adapters.
type ProviderFactory struct {
	settings   config.Settings
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger

	newCopilotClient func(*copilot.ClientOptions) copilotClient
	copilotMu        sync.Mutex
	copilot          *copilotRuntime
}

// FactoryOption configures a ProviderFactory.
type FactoryOption func(*ProviderFactory)

// WithHTTPClient overrides the HTTP client used by the HTTP providers.
func WithHTTPClient(c *http.Client) FactoryOption {
	return func(f *ProviderFactory) { f.httpClient = c }
}

// WithRetryPolicy overrides the retry policy derived from settings.
func WithRetryPolicy(p RetryPolicy) FactoryOption {
	return func(f *ProviderFactory) { f.retry = p }
}

// WithLogger sets the logger handed to adapters.
func WithLogger(l *slog.Logger) FactoryOption {
	return func(f *ProviderFactory) { f.logger = l }
}

// NewFactory creates a ProviderFactory from immutable settings.
func NewFactory(settings config.Settings, opts ...FactoryOption) *ProviderFactory {
	f := &ProviderFactory{
		settings:         settings,
		retry:            RetryPolicyFromSettings(settings.Retry),
		logger:           slog.Default(),
		newCopilotClient: newCopilotClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: settings.HTTPTimeout}
	}
	return f
}

// New builds the adapter for provider and model.
func (f *ProviderFactory) New(provider, model string) (Adapter, error) {
	p, err := ParseProvider(provider)
	if err != nil {
		return nil, err
	}

	switch p {
	case ProviderDummy:
		return NewDummyAdapter(model), nil
	case ProviderDummyVision:
		return NewDummyVisionAdapter(model), nil
	case ProviderOpenAI:
		return newChatAdapter(chatConfig{
			provider:    ProviderOpenAI,
			model:       model,
			baseURL:     f.settings.OpenAIBaseURL,
			apiKey:      f.settings.OpenAIAPIKey,
			keyRequired: true,
		}, f.httpClient, f.retry, f.logger)
	case ProviderOpenRouter:
		return newChatAdapter(chatConfig{
			provider:    ProviderOpenRouter,
			model:       model,
			baseURL:     f.settings.OpenRouterBaseURL,
			apiKey:      f.settings.OpenRouterAPIKey,
			keyRequired: true,
			headers: map[string]string{
				"HTTP-Referer": openRouterReferer,
				"X-Title":      openRouterTitle,
			},
		}, f.httpClient, f.retry, f.logger)
	case ProviderMarber:
		return newChatAdapter(chatConfig{
			provider: ProviderMarber,
			model:    model,
			baseURL:  f.settings.MarberBaseURL,
			apiKey:   f.settings.MarberAPIKey,
			gateway:  true,
		}, f.httpClient, f.retry, f.logger)
	case ProviderCopilot:
		return f.newCopilotAdapter(model), nil
	}
	return nil, fmt.Errorf("provider %q has no constructor", p)
}

func (f *ProviderFactory) newCopilotAdapter(model string) *CopilotAdapter {
	f.copilotMu.Lock()
	defer f.copilotMu.Unlock()

	if f.copilot == nil {
		f.copilot = &copilotRuntime{
			client: f.newCopilotClient(&copilot.ClientOptions{
				LogLevel:  "error",
				AutoStart: copilot.Bool(false),
			}),
		}
	}
	return &CopilotAdapter{runtime: f.copilot, model: model}
}

// Close releases shared provider resources. It is safe to call when no
// adapter was ever built.
func (f *ProviderFactory) Close(ctx context.Context) error {
	f.copilotMu.Lock()
	rt := f.copilot
	f.copilotMu.Unlock()

	if rt == nil {
		return nil
	}
	return rt.stop()
}
