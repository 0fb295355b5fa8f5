package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/config"
	"github.com/kaveh8866/SemantIQ/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func testSettings(url string) config.Settings {
	s := config.DefaultSettings()
	s.OpenAIAPIKey = "sk-openai"
	s.OpenAIBaseURL = url
	s.OpenRouterAPIKey = "sk-router"
	s.OpenRouterBaseURL = url
	s.MarberBaseURL = url
	s.HTTPTimeout = 5 * time.Second
	return s
}

func TestChatAdapter_OpenAI(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-openai", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		_, _ = w.Write([]byte(`{
  "id": "chatcmpl-1",
  "model": "gpt-4o-mini-2024",
  "choices": [{"message": {"role": "assistant", "content": "def factorial(n):"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4}
}`))
	}))
	defer srv.Close()

	f := NewFactory(testSettings(srv.URL+"/"), WithRetryPolicy(fastRetry(1)))
	a, err := f.New("openai", "gpt-4o-mini")
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), "write factorial", models.Params{
		"temperature": models.Int(1),
		"max_tokens":  models.Int(64),
		"seed":        models.Int(42),
		"stop":        models.String("###"),
	})
	require.NoError(t, err)

	assert.Equal(t, "def factorial(n):", resp.Content)
	assert.Equal(t, "gpt-4o-mini-2024", resp.Model)
	assert.Equal(t, float64(12), resp.Usage["prompt_tokens"])
	assert.Equal(t, "chatcmpl-1", resp.Metadata["request_id"])
	assert.Equal(t, "stop", resp.Metadata["finish_reason"])
	assert.Equal(t, "openai", resp.Metadata["provider"])

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, float64(1), body["temperature"])
	assert.Equal(t, float64(64), body["max_tokens"])
	assert.Equal(t, float64(42), body["seed"])
	assert.Equal(t, "###", body["stop"])
	assert.NotContains(t, body, "top_p")
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]any{"role": "user", "content": "write factorial"}, msgs[0])
}

func TestChatAdapter_DefaultsWhenParamsMissing(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	a, err := NewFactory(testSettings(srv.URL), WithRetryPolicy(fastRetry(1))).New("openai", "m")
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "m", resp.Model)
	assert.Equal(t, float64(0), body["temperature"])
	assert.Equal(t, float64(1000), body["max_tokens"])
	assert.NotContains(t, body, "seed")
}

func TestChatAdapter_OpenRouterHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-router", r.Header.Get("Authorization"))
		assert.Equal(t, "https://semantiq.benchmarks", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "SemantIQ Benchmarks", r.Header.Get("X-Title"))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	a, err := NewFactory(testSettings(srv.URL), WithRetryPolicy(fastRetry(1))).New("openrouter", "meta/llama")
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestChatAdapter_MarberGatewayPayload(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "marber key is optional")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id": "m-1", "text": "plain text answer"}`))
	}))
	defer srv.Close()

	a, err := NewFactory(testSettings(srv.URL), WithRetryPolicy(fastRetry(1))).New("marber", "gw-model")
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), "hello", models.Params{"temperature": models.Float(0.5)})
	require.NoError(t, err)
	assert.Equal(t, "plain text answer", resp.Content)
	assert.Equal(t, "m-1", resp.Metadata["request_id"])

	assert.Equal(t, "hello", body["prompt"])
	assert.Equal(t, "gw-model", body["model"])
	params := body["parameters"].(map[string]any)
	assert.Equal(t, 0.5, params["temperature"])
	assert.Equal(t, float64(1000), params["max_tokens"])
	assert.NotContains(t, body, "temperature")
}

func TestChatAdapter_MissingKey(t *testing.T) {
	s := config.DefaultSettings()
	f := NewFactory(s)

	_, err := f.New("openai", "gpt-4o")
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = f.New("openrouter", "x")
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = f.New("marber", "x")
	require.NoError(t, err)
}

func TestChatAdapter_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "finally"}}]}`))
	}))
	defer srv.Close()

	a, err := NewFactory(testSettings(srv.URL), WithRetryPolicy(fastRetry(3))).New("openai", "m")
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "finally", resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatAdapter_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	a, err := NewFactory(testSettings(srv.URL), WithRetryPolicy(fastRetry(3))).New("openai", "m")
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), "hi", nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Contains(t, se.Body, "upstream down")
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatAdapter_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	a, err := NewFactory(testSettings(srv.URL), WithRetryPolicy(fastRetry(3))).New("openai", "m")
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatAdapter_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	a, err := NewFactory(testSettings(srv.URL), WithRetryPolicy(fastRetry(1))).New("openai", "m")
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), "hi", nil)
	require.ErrorContains(t, err, "no choices")
}

func TestChatAdapter_TransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	a, err := NewFactory(testSettings(url), WithRetryPolicy(fastRetry(2))).New("openai", "m")
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTransport))
}
