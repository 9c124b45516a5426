package describer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/agentstation/epubalt/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestNormalizeBlank(t *testing.T) {
	tests := map[string]string{
		"":               "",
		`""`:             "",
		`''`:             "",
		"  \"\"\n":       "",
		"  A red kite  ": "A red kite",
		`"quoted"`:       `"quoted"`,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeBlank(in), "input %q", in)
	}
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, CreatePrompt, Prompt(Request{Kind: Create, ExistingAlt: strPtr("ignored")}))
	assert.Equal(t, VerifyBlankPrompt, Prompt(Request{Kind: Verify}))
	assert.Equal(t, VerifyBlankPrompt, Prompt(Request{Kind: Verify, ExistingAlt: strPtr("")}))

	p := Prompt(Request{Kind: Verify, ExistingAlt: strPtr("A dog")})
	assert.True(t, strings.HasPrefix(p, "Is the following alt text for this image correct?"))
	assert.Contains(t, p, "\n\nA dog\n\n")
}

func TestLocalDescribe(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A lighthouse at dusk"}}]}`))
	}))
	defer server.Close()

	local := NewLocal(LocalConfig{BaseURL: server.URL + "/v1/", Model: "test-model"})
	text, err := local.Describe(context.Background(), Request{
		Name:      "fig.png",
		Image:     []byte("png-bytes"),
		MediaType: "image/png",
		Kind:      Create,
	})
	require.NoError(t, err)
	assert.Equal(t, "A lighthouse at dusk", text)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, CreatePrompt, got.Messages[0].Content[0].Text)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", got.Messages[0].Content[1].ImageURL.URL)
}

func TestLocalDescribeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "empty") {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewLocal(LocalConfig{BaseURL: server.URL}).Describe(context.Background(), Request{Image: []byte("x")})
	require.Error(t, err)
	assert.True(t, errors.IsProviderUnavailable(err))

	_, err = NewLocal(LocalConfig{BaseURL: server.URL + "/empty"}).Describe(context.Background(), Request{Image: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestLocalAuth(t *testing.T) {
	tests := []struct {
		name  string
		cfg   LocalConfig
		check func(t *testing.T, r *http.Request)
	}{
		{"none", LocalConfig{}, func(t *testing.T, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
		}},
		{"bearer", LocalConfig{APIKey: "k1"}, func(t *testing.T, r *http.Request) {
			assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))
		}},
		{"header", LocalConfig{APIKey: "k2", AuthHeader: "api-key"}, func(t *testing.T, r *http.Request) {
			assert.Equal(t, "k2", r.Header.Get("api-key"))
			assert.Empty(t, r.Header.Get("Authorization"))
		}},
		{"query", LocalConfig{APIKey: "k3", AuthQuery: "key"}, func(t *testing.T, r *http.Request) {
			assert.Equal(t, "k3", r.URL.Query().Get("key"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.check(t, r)
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
			}))
			defer server.Close()

			cfg := tt.cfg
			cfg.BaseURL = server.URL
			cfg.Timeout = 5 * time.Second
			text, err := NewLocal(cfg).Describe(context.Background(), Request{Image: []byte("x"), MediaType: "image/png"})
			require.NoError(t, err)
			assert.Equal(t, "ok", text)
		})
	}
}

type fakeModels struct {
	model    string
	contents []*genai.Content
	text     string
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(f.text, genai.RoleModel),
		}},
	}, nil
}

func TestGeminiDescribe(t *testing.T) {
	fake := &fakeModels{text: "A bar chart of rainfall"}
	g := NewGemini(GeminiConfig{APIKey: "k"})
	g.models = fake

	text, err := g.Describe(context.Background(), Request{
		Image:       []byte("jpeg"),
		MediaType:   "image/jpeg",
		Kind:        Verify,
		ExistingAlt: strPtr("Chart"),
	})
	require.NoError(t, err)
	assert.Equal(t, "A bar chart of rainfall", text)
	assert.Equal(t, "gemini-2.5-flash", fake.model)

	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, VerifyPrompt("Chart"), parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("jpeg"), parts[1].InlineData.Data)
}

func TestGeminiErrors(t *testing.T) {
	_, err := NewGemini(GeminiConfig{}).Describe(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, errors.IsAPIKeyError(err))

	g := NewGemini(GeminiConfig{APIKey: "k"})
	g.models = &fakeModels{err: genai.APIError{Code: 429, Message: "quota"}}
	_, err = g.Describe(context.Background(), Request{Image: []byte("x")})
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))

	g.models = &fakeModels{err: &genai.APIError{Code: 503, Message: "overloaded"}}
	_, err = g.Describe(context.Background(), Request{Image: []byte("x")})
	assert.True(t, errors.IsProviderUnavailable(err))

	cause := errors.New("connection reset")
	g.models = &fakeModels{err: cause}
	_, err = g.Describe(context.Background(), Request{Image: []byte("x")})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "gemini", apiErr.Provider)
	assert.Zero(t, apiErr.StatusCode)
	assert.ErrorIs(t, err, cause)
}

func TestFunc(t *testing.T) {
	var d Describer = Func(func(_ context.Context, req Request) (string, error) {
		return "described " + req.Name, nil
	})
	text, err := d.Describe(context.Background(), Request{Name: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "described a.png", text)
}
