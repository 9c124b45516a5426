package describer

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/agentstation/epubalt/internal/transport"
	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/errors"
)

// LocalConfig configures the on-device provider.
type LocalConfig struct {
	// BaseURL is the OpenAI-compatible endpoint, e.g. LM Studio's http://localhost:1234/v1.
	BaseURL string
	Model   string
	APIKey  string
	// AuthHeader sends APIKey in this header instead of a bearer token;
	// AuthQuery sends it as this query parameter.
	AuthHeader string
	AuthQuery  string
	// Timeout bounds one request; local models can be slow on first load.
	Timeout time.Duration
}

// Local describes images with a model served on this machine through an
// OpenAI-compatible chat completions endpoint.
type Local struct {
	cfg    LocalConfig
	client *transport.Client
}

// NewLocal returns a Local provider.
func NewLocal(cfg LocalConfig, opts ...transport.Option) *Local {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultLocalURL
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultLocalModel
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIKey != "" {
		opts = append(opts, transport.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		opts = append([]transport.Option{transport.WithTimeout(cfg.Timeout)}, opts...)
	}
	return &Local{
		cfg:    cfg,
		client: transport.New("local", cfg.authenticator(), opts...),
	}
}

func (cfg LocalConfig) authenticator() transport.Authenticator {
	switch {
	case cfg.APIKey == "":
		return &transport.NoAuth{}
	case cfg.AuthHeader != "":
		return &transport.HeaderAuth{Header: cfg.AuthHeader}
	case cfg.AuthQuery != "":
		return &transport.QueryAuth{Param: cfg.AuthQuery}
	default:
		return &transport.BearerAuth{}
	}
}

// Name implements Describer.
func (l *Local) Name() string { return "local" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string     `json:"role"`
	Content []chatPart `json:"content"`
}

type chatPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Describe implements Describer.
func (l *Local) Describe(ctx context.Context, req Request) (string, error) {
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = http.DetectContentType(req.Image)
	}
	body := chatRequest{
		Model: l.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatPart{
				{Type: "text", Text: Prompt(req)},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
				}},
			},
		}},
	}

	var resp chatResponse
	if err := l.client.PostJSON(ctx, l.cfg.BaseURL+"/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewAPIError(l.Name(), 0, "response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
