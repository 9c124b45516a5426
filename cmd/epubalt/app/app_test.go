package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/logging"
	"github.com/agentstation/epubalt/pkg/store"
)

func newTestApp(t *testing.T, config *Config) *App {
	t.Helper()
	isolate(t)
	s, err := store.New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatal(err)
	}
	app, err := New("1.0.0", "abc123", "2024-01-01", "test",
		WithConfig(config),
		WithLogger(logging.NewNopLogger()),
		WithStore(s),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app := newTestApp(t, &Config{})

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	s1, err := app.Store()
	if err != nil {
		t.Fatal(err)
	}
	s2, _ := app.Store()
	if s1 != s2 {
		t.Error("Store() returned different instances")
	}
}

// TestApp_Describer verifies provider selection.
func TestApp_Describer(t *testing.T) {
	app := newTestApp(t, &Config{GeminiAPIKey: "k", LocalURL: "http://127.0.0.1:9/v1"})

	d, err := app.Describer("")
	if err != nil {
		t.Fatal(err)
	}
	if d.Name() != "gemini" {
		t.Errorf("default provider = %s, want gemini", d.Name())
	}

	d, err = app.Describer("local")
	if err != nil {
		t.Fatal(err)
	}
	if d.Name() != "local" {
		t.Errorf("provider = %s, want local", d.Name())
	}

	if _, err := app.Describer("openai"); !errors.IsValidationError(err) {
		t.Errorf("unknown provider error = %v", err)
	}
}

// TestApp_DescriberRequiresKey verifies the remote provider needs credentials.
func TestApp_DescriberRequiresKey(t *testing.T) {
	app := newTestApp(t, &Config{})
	if _, err := app.Describer("api"); !errors.IsAPIKeyError(err) {
		t.Errorf("Describer() error = %v, want API key error", err)
	}
}

// TestApp_SavedProvider verifies the stored provider choice is the fallback.
func TestApp_SavedProvider(t *testing.T) {
	app := newTestApp(t, &Config{})
	s, _ := app.Store()
	if err := s.SaveUserConfig(store.UserConfig{Email: "a@b.c", Provider: store.ProviderLocal}); err != nil {
		t.Fatal(err)
	}
	if got := app.Settings().Provider; got != ProviderLocal {
		t.Errorf("Settings().Provider = %s, want local", got)
	}

	app.config.Provider = "api"
	if got := app.Settings().Provider; got != ProviderAPI {
		t.Errorf("Settings().Provider = %s, want api", got)
	}
}

// TestApp_ExecuteVersion runs the root command end to end.
func TestApp_ExecuteVersion(t *testing.T) {
	app := newTestApp(t, &Config{LogOutput: "discard"})

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out.String(), "epubalt version 1.0.0") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
