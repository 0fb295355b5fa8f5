package adapters

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// DummyAdapter answers deterministically without any network access. It
// recognizes the built-in code_writer prompts and returns their expected
// snippets.
type DummyAdapter struct {
	model string
}

func NewDummyAdapter(model string) *DummyAdapter {
	return &DummyAdapter{model: model}
}

func (a *DummyAdapter) Provider() Provider { return ProviderDummy }
func (a *DummyAdapter) Model() string      { return a.model }

func (a *DummyAdapter) Generate(ctx context.Context, prompt string, params models.Params) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := "Dummy response to: " + truncateRunes(prompt, 50) + "..."
	switch {
	case strings.Contains(prompt, "factorial"):
		content = "def factorial(n):"
	case strings.Contains(prompt, "isPalindrome"):
		content = "function isPalindrome(str) {"
	}

	usage := map[string]any{
		"prompt_tokens":     utf8.RuneCountInString(prompt),
		"completion_tokens": utf8.RuneCountInString(content),
	}
	return &Response{
		Content: content,
		Model:   a.model,
		Usage:   usage,
		Metadata: map[string]any{
			"provider":      string(ProviderDummy),
			"finish_reason": "stop",
			"usage":         usage,
		},
	}, nil
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// 1x1 transparent PNG.
var dummyPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89\x00\x00\x00\nIDATx\x9cc\x00\x01\x00\x00\x05\x00\x01\r\n-\xb4\x00\x00\x00\x00IEND\xaeB`\x82")

const (
	dummyVisionText = "Dummy Vision Adapter text response"
	dummyImageSize  = 1024
	dummyImageSeed  = 12345
)

// DummyVisionAdapter is the offline stand-in for image generation providers.
type DummyVisionAdapter struct {
	model string
}

func NewDummyVisionAdapter(model string) *DummyVisionAdapter {
	return &DummyVisionAdapter{model: model}
}

func (a *DummyVisionAdapter) Provider() Provider { return ProviderDummyVision }
func (a *DummyVisionAdapter) Model() string      { return a.model }

func (a *DummyVisionAdapter) Generate(ctx context.Context, prompt string, params models.Params) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Response{
		Content:  dummyVisionText,
		Model:    a.model,
		Usage:    map[string]any{},
		Metadata: map[string]any{"provider": string(ProviderDummyVision)},
	}, nil
}

// RenderImage returns a fixed 1x1 PNG. width, height and seed are echoed
// back from params when present.
func (a *DummyVisionAdapter) RenderImage(ctx context.Context, prompt string, params models.Params) (*ImageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &ImageResult{
		Data:     append([]byte(nil), dummyPNG...),
		Format:   "png",
		Width:    dummyImageSize,
		Height:   dummyImageSize,
		Seed:     dummyImageSeed,
		Provider: ProviderDummyVision,
		Model:    a.model,
	}
	if w, ok := params.Int("width"); ok {
		res.Width = int(w)
	}
	if h, ok := params.Int("height"); ok {
		res.Height = int(h)
	}
	if s, ok := params.Int("seed"); ok {
		res.Seed = s
	}
	return res, nil
}
