package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/kaveh8866/SemantIQ/internal/models"
)

// copilotRuntime owns the Copilot client shared by every CopilotAdapter a
// factory builds. The client is started lazily on first use.
type copilotRuntime struct {
	client copilotClient

	startOnce sync.Once
	startErr  error
	started   bool
}

func (r *copilotRuntime) start(ctx context.Context) error {
	// the client's AutoStart races when sessions are created from several
	// goroutines, so start it exactly once ourselves
	r.startOnce.Do(func() {
		r.startErr = r.client.Start(ctx)
		r.started = r.startErr == nil
	})
	return r.startErr
}

func (r *copilotRuntime) stop() error {
	r.startOnce.Do(func() {
		r.startErr = errors.New("copilot client is stopped")
	})
	if !r.started {
		return nil
	}
	if err := r.client.Stop(); err != nil {
		return fmt.Errorf("stopping copilot client: %w", err)
	}
	return nil
}

// CopilotAdapter sends each prompt to a fresh GitHub Copilot session.
// Generation parameters are not supported by the session API and are
// ignored.
type CopilotAdapter struct {
	runtime *copilotRuntime
	model   string
}

func (a *CopilotAdapter) Provider() Provider { return ProviderCopilot }
func (a *CopilotAdapter) Model() string      { return a.model }

func (a *CopilotAdapter) Generate(ctx context.Context, prompt string, params models.Params) (*Response, error) {
	if err := a.runtime.start(ctx); err != nil {
		return nil, fmt.Errorf("copilot failed to start: %w", err)
	}
	if len(params) > 0 {
		slog.Debug("Copilot ignores generation parameters", "params", params.String())
	}

	session, err := a.runtime.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               a.model,
		OnPermissionRequest: allowAllTools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	var (
		mu    sync.Mutex
		parts []string
	)
	unsubscribe := session.On(func(event copilot.SessionEvent) {
		if event.Type == copilot.AssistantMessage && event.Data.Content != nil {
			mu.Lock()
			parts = append(parts, *event.Data.Content)
			mu.Unlock()
		}
	})
	defer unsubscribe()

	unsubscribe = session.On(a.logEvent)
	defer unsubscribe()

	resp, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send prompt: %w", err)
	}

	var content string
	if resp != nil && resp.Data.Content != nil {
		content = *resp.Data.Content
	} else {
		mu.Lock()
		content = strings.Join(parts, "")
		mu.Unlock()
	}

	return &Response{
		Content:  content,
		Model:    a.model,
		Usage:    map[string]any{},
		Metadata: map[string]any{"provider": string(ProviderCopilot)},
	}, nil
}

func (a *CopilotAdapter) logEvent(event copilot.SessionEvent) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{"model", a.model, "type", event.Type}
	attrs = appendIfSet(attrs, "content", event.Data.Content)
	attrs = appendIfSet(attrs, "deltaContent", event.Data.DeltaContent)
	attrs = appendIfSet(attrs, "toolName", event.Data.ToolName)
	attrs = appendIfSet(attrs, "reasoningText", event.Data.ReasoningText)

	slog.Debug("Copilot session event", attrs...)
}

func appendIfSet[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name, *v)
	}
	return attrs
}

func allowAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "approved"}, nil
}
