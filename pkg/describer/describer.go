// Package describer defines the description-generation capability and its
// providers: a remote Gemini provider and a local OpenAI-compatible one.
package describer

import (
	"context"
	"strings"
)

// Kind selects the prompt sent with an image.
type Kind int

const (
	// Create asks for new alt text.
	Create Kind = iota
	// Verify asks whether existing alt text is correct.
	Verify
)

// Request is one image to describe.
type Request struct {
	// Name identifies the image in logs and errors.
	Name      string
	Image     []byte
	MediaType string
	Kind      Kind
	// ExistingAlt is the text to verify; nil or "" selects the blank variant.
	ExistingAlt *string
}

// Describer turns an image into alt text or commentary.
type Describer interface {
	Name() string
	Describe(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to a Describer.
type Func func(ctx context.Context, req Request) (string, error)

// Describe implements Describer.
func (f Func) Describe(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// Name implements Describer.
func (Func) Name() string { return "func" }

// NormalizeBlank trims text and maps the quoted empty-string sentinels some
// models return ("" and '') to the empty string.
func NormalizeBlank(text string) string {
	t := strings.TrimSpace(text)
	if t == `""` || t == `''` {
		return ""
	}
	return t
}
