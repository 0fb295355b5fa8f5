// Package adapters connects the execution engine to model providers. Every
// provider is one variant of the closed Provider enum and is constructed
// once per run through a Factory.
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// ErrMissingAPIKey is returned when a provider that requires credentials is
// constructed without them.
var ErrMissingAPIKey = errors.New("api key is not set")

// Adapter generates text for a prompt. Implementations own retries for
// transient failures; a returned error is final.
type Adapter interface {
	Generate(ctx context.Context, prompt string, params models.Params) (*Response, error)

	// Provider and Model identify the target the adapter was built for.
	Provider() Provider
	Model() string
}

// Response is the normalized output of a Generate call.
type Response struct {
	Content string
	Model   string

	// Usage carries provider token accounting (prompt_tokens, ...).
	Usage map[string]any

	// Metadata carries provider details such as finish_reason and request_id.
	Metadata map[string]any
}

// ImageRenderer is implemented by adapters that can render images.
type ImageRenderer interface {
	RenderImage(ctx context.Context, prompt string, params models.Params) (*ImageResult, error)
}

// ImageResult is the normalized output of a RenderImage call.
type ImageResult struct {
	Data      []byte
	Format    string
	Width     int
	Height    int
	Seed      int64
	Provider  Provider
	Model     string
	RequestID string
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}
