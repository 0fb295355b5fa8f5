package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/kaveh8866/SemantIQ/internal/models"
)

const (
	openRouterReferer = "https://semantiq.benchmarks"
	openRouterTitle   = "SemantIQ Benchmarks"

	defaultTemperature = 0.0
	defaultMaxTokens   = 1000

	maxErrorBody = 512
)

type chatConfig struct {
	provider    Provider
	model       string
	baseURL     string
	apiKey      string
	keyRequired bool
	headers     map[string]string

	// gateway selects the proxy payload shape: generation parameters are
	// nested under "parameters" and a bare "text" response is accepted.
	gateway bool
}

// ChatAdapter talks to OpenAI-compatible chat completion endpoints.
type ChatAdapter struct {
	cfg    chatConfig
	client *http.Client
	retry  RetryPolicy
	logger *slog.Logger
}

func newChatAdapter(cfg chatConfig, client *http.Client, retry RetryPolicy, logger *slog.Logger) (*ChatAdapter, error) {
	if cfg.keyRequired && cfg.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.provider, ErrMissingAPIKey)
	}
	if cfg.baseURL == "" {
		return nil, fmt.Errorf("%s: base URL is not set", cfg.provider)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatAdapter{cfg: cfg, client: client, retry: retry, logger: logger}, nil
}

func (a *ChatAdapter) Provider() Provider { return a.cfg.provider }
func (a *ChatAdapter) Model() string      { return a.cfg.model }

// requestOptions are the generation parameters understood by every chat
// provider. Unrecognized parameters are forwarded untouched.
type requestOptions struct {
	Temperature float64        `mapstructure:"temperature"`
	MaxTokens   int            `mapstructure:"max_tokens"`
	TopP        *float64       `mapstructure:"top_p"`
	Seed        *int64         `mapstructure:"seed"`
	Extra       map[string]any `mapstructure:",remain"`
}

func decodeRequestOptions(params models.Params) (requestOptions, error) {
	opts := requestOptions{Temperature: defaultTemperature, MaxTokens: defaultMaxTokens}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(params.AnyMap()); err != nil {
		return opts, fmt.Errorf("decoding generation parameters: %w", err)
	}
	return opts, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Text  string         `json:"text"`
	Usage map[string]any `json:"usage"`
}

func (a *ChatAdapter) buildBody(prompt string, opts requestOptions) map[string]any {
	gen := map[string]any{
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}
	if opts.TopP != nil {
		gen["top_p"] = *opts.TopP
	}
	if opts.Seed != nil {
		gen["seed"] = *opts.Seed
	}
	for k, v := range opts.Extra {
		gen[k] = v
	}

	body := map[string]any{
		"model":    a.cfg.model,
		"messages": []chatMessage{{Role: "user", Content: prompt}},
	}
	if a.cfg.gateway {
		body["prompt"] = prompt
		body["parameters"] = gen
		return body
	}
	for k, v := range gen {
		body[k] = v
	}
	return body
}

// Generate posts the prompt to <baseURL>/chat/completions, retrying
// transient failures per the adapter's RetryPolicy.
func (a *ChatAdapter) Generate(ctx context.Context, prompt string, params models.Params) (*Response, error) {
	opts, err := decodeRequestOptions(params)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(a.buildBody(prompt, opts))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := strings.TrimRight(a.cfg.baseURL, "/") + "/chat/completions"

	var parsed chatResponse
	attempt := 0
	err = a.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			a.logger.Debug("Retrying provider request", "provider", a.cfg.provider, "model", a.cfg.model, "attempt", attempt)
		}
		var doErr error
		parsed, doErr = a.do(ctx, url, payload)
		return doErr
	})
	if err != nil {
		return nil, err
	}

	return a.normalize(&parsed)
}

func (a *ChatAdapter) do(ctx context.Context, url string, payload []byte) (chatResponse, error) {
	var out chatResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.apiKey)
	}
	for k, v := range a.cfg.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, fmt.Errorf("%s: %w: %w", a.cfg.provider, errTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("%s: reading response: %w: %w", a.cfg.provider, errTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return out, &StatusError{Provider: a.cfg.provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%s: decoding response: %w", a.cfg.provider, err)
	}
	return out, nil
}

func (a *ChatAdapter) normalize(r *chatResponse) (*Response, error) {
	var content, finish string
	switch {
	case len(r.Choices) > 0:
		content = r.Choices[0].Message.Content
		finish = r.Choices[0].FinishReason
	case a.cfg.gateway:
		content = r.Text
	default:
		return nil, fmt.Errorf("%s: response has no choices", a.cfg.provider)
	}

	model := r.Model
	if model == "" {
		model = a.cfg.model
	}

	usage := r.Usage
	if usage == nil {
		usage = map[string]any{}
	}

	meta := map[string]any{
		"provider": string(a.cfg.provider),
		"usage":    usage,
	}
	if r.ID != "" {
		meta["request_id"] = r.ID
	}
	if finish != "" {
		meta["finish_reason"] = finish
	}

	return &Response{Content: content, Model: model, Usage: usage, Metadata: meta}, nil
}
