package describer

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/errors"
)

// contentGenerator is the part of the genai client the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the remote provider.
type GeminiConfig struct {
	APIKey string
	Model  string
	// Project and Location select the Vertex AI backend when Project is set.
	Project  string
	Location string
}

// Gemini describes images with Google's Gemini models.
type Gemini struct {
	cfg GeminiConfig

	models contentGenerator
	mu     sync.Mutex
}

// NewGemini returns a Gemini provider. The genai client is created on first use.
func NewGemini(cfg GeminiConfig) *Gemini {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.Model == "" {
		cfg.Model = constants.DefaultGeminiModel
	}
	return &Gemini{cfg: cfg}
}

// Name implements Describer.
func (g *Gemini) Name() string { return "gemini" }

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.cfg.Model }

func (g *Gemini) client(ctx context.Context) (contentGenerator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.models != nil {
		return g.models, nil
	}

	var config *genai.ClientConfig
	if g.cfg.Project != "" {
		location := g.cfg.Location
		if location == "" {
			location = "us-central1"
		}
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  g.cfg.Project,
			Location: location,
		}
	} else {
		if g.cfg.APIKey == "" {
			return nil, &errors.AuthenticationError{
				Provider: g.Name(),
				Method:   "api_key",
				Message:  "API key required for the Gemini API (set GEMINI_API_KEY)",
				Err:      errors.ErrAPIKeyRequired,
			}
		}
		config = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  g.cfg.APIKey,
		}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, errors.NewConfigError(g.Name(), "cannot create client", err)
	}
	g.models = client.Models
	return g.models, nil
}

// Describe implements Describer.
func (g *Gemini) Describe(ctx context.Context, req Request) (string, error) {
	models, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = http.DetectContentType(req.Image)
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(Prompt(req)),
			genai.NewPartFromBytes(req.Image, mediaType),
		}, genai.RoleUser),
	}

	resp, err := models.GenerateContent(ctx, g.cfg.Model, contents, nil)
	if err != nil {
		return "", g.wrap(err)
	}
	return resp.Text(), nil
}

func (g *Gemini) wrap(err error) error {
	status := 0
	var apiErr genai.APIError
	var apiPtr *genai.APIError
	switch {
	case stderrors.As(err, &apiErr):
		status = apiErr.Code
	case stderrors.As(err, &apiPtr) && apiPtr != nil:
		status = apiPtr.Code
	}
	return errors.WrapAPI(g.Name(), status, err)
}
