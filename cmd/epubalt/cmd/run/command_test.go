package run

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/epubalt/internal/appcontext"
	"github.com/agentstation/epubalt/pkg/describer"
	"github.com/agentstation/epubalt/pkg/engine"
	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/images"
	"github.com/agentstation/epubalt/pkg/logging"
	"github.com/agentstation/epubalt/pkg/planner"
	"github.com/agentstation/epubalt/pkg/store"
)

var defaults = appcontext.Settings{BatchSize: 2, LocalBatchSize: 4, BatchDelay: 15000, Identity: "basename"}

func TestBuildRunConfig(t *testing.T) {
	tests := []struct {
		name    string
		flags   Flags
		remote  string
		check   func(t *testing.T, cfg engine.RunConfig)
		wantErr bool
	}{
		{
			name:  "remote defaults",
			flags: Flags{Package: "b.epub", UpdateMissing: true, Delay: -1},
			check: func(t *testing.T, cfg engine.RunConfig) {
				assert.Equal(t, planner.UpdateMissing, cfg.Blanket)
				assert.True(t, cfg.Remote)
				assert.Equal(t, 2, cfg.BatchSize)
				require.NotNil(t, cfg.Delay)
				assert.Equal(t, 15*time.Second, *cfg.Delay)
				assert.Equal(t, images.IdentityBasename, cfg.Identity)
			},
		},
		{
			name:   "local defaults",
			flags:  Flags{Package: "b.epub", VerifyAll: true, Delay: -1},
			remote: "local",
			check: func(t *testing.T, cfg engine.RunConfig) {
				assert.False(t, cfg.Remote)
				assert.Equal(t, 4, cfg.BatchSize)
			},
		},
		{
			name:  "explicit count and delay",
			flags: Flags{Package: "b.epub", Count: 3, Delay: 0, Identity: "path"},
			check: func(t *testing.T, cfg engine.RunConfig) {
				assert.Equal(t, 3, cfg.BatchSize)
				require.NotNil(t, cfg.Delay)
				assert.Equal(t, time.Duration(0), *cfg.Delay)
				assert.Equal(t, images.IdentityPath, cfg.Identity)
			},
		},
		{
			name:  "manual text",
			flags: Flags{Package: "b.epub", Images: []int{1, 3}, Manual: "A map", Delay: -1},
			check: func(t *testing.T, cfg engine.RunConfig) {
				text, ok := cfg.Mode.Manual()
				assert.True(t, ok)
				assert.Equal(t, "A map", text)
				assert.Equal(t, []int{1, 3}, cfg.Targets)
			},
		},
		{
			name:  "ai token",
			flags: Flags{Package: "b.epub", Images: []int{2}, Manual: "_ai_", Delay: -1},
			check: func(t *testing.T, cfg engine.RunConfig) {
				assert.True(t, cfg.Mode.IsGenerate())
				_, ok := cfg.Mode.Manual()
				assert.False(t, ok)
				assert.True(t, needsProvider(cfg))
			},
		},
		{
			name:  "reset token",
			flags: Flags{Package: "b.epub", Images: []int{2}, Manual: "_reset_", Delay: -1},
			check: func(t *testing.T, cfg engine.RunConfig) {
				assert.True(t, cfg.Mode.IsReset())
				_, ok := cfg.Mode.Manual()
				assert.False(t, ok)
				assert.False(t, needsProvider(cfg))
			},
		},
		{
			name:  "verify token",
			flags: Flags{Package: "b.epub", Images: []int{2}, Manual: "_verify_", Delay: -1},
			check: func(t *testing.T, cfg engine.RunConfig) {
				assert.True(t, cfg.Mode.IsVerify())
				_, ok := cfg.Mode.Manual()
				assert.False(t, ok)
				assert.True(t, needsProvider(cfg))
			},
		},
		{
			name:    "images without mode",
			flags:   Flags{Package: "b.epub", Images: []int{1}, Delay: -1},
			wantErr: true,
		},
		{
			name:    "mode without images",
			flags:   Flags{Package: "b.epub", Reset: true, Delay: -1},
			wantErr: true,
		},
		{
			name:    "bad identity",
			flags:   Flags{Package: "b.epub", Identity: "inode", Delay: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := tt.remote
			if provider == "" {
				provider = "api"
			}
			flags := tt.flags
			cfg, err := BuildRunConfig(&flags, defaults, provider)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestOpener(t *testing.T) {
	name, args := opener("darwin", "r.html")
	assert.Equal(t, "open", name)
	assert.Equal(t, []string{"r.html"}, args)

	name, _ = opener("linux", "r.html")
	assert.Equal(t, "xdg-open", name)

	name, args = opener("windows", "r.html")
	assert.Equal(t, "cmd", name)
	assert.Equal(t, []string{"/c", "start", "", "r.html"}, args)
}

func newMock(t *testing.T, s *store.Store, d describer.Describer) *appcontext.Mock {
	t.Helper()
	return &appcontext.Mock{
		StoreFunc:     func() (*store.Store, error) { return s, nil },
		DescriberFunc: func(string) (describer.Describer, error) { return d, nil },
		SettingsFunc: func() appcontext.Settings {
			settings := defaults
			settings.BatchDelay = 0
			return settings
		},
	}
}

func writeBook(t *testing.T, dir string) string {
	t.Helper()
	data, err := epub.Fixture{
		Order:      []string{"ch1.xhtml"},
		Documents:  map[string]string{"ch1.xhtml": epub.XHTML(`<img src="fig.png"/>`)},
		Images:     map[string]string{"fig.png": "image/png"},
		ImageOrder: []string{"fig.png"},
	}.Build()
	require.NoError(t, err)
	book := filepath.Join(dir, "book.epub")
	require.NoError(t, os.WriteFile(book, data, 0o644))
	return book
}

func TestRunRequiresEmail(t *testing.T) {
	logging.DisableLoggingForTest(t)
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "data"))
	require.NoError(t, err)

	cmd := NewCommand(newMock(t, s, nil))
	cmd.SetArgs([]string{"-e", writeBook(t, dir)})
	cmd.SetOut(&bytes.Buffer{})
	err = cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestRunCommand(t *testing.T) {
	logging.DisableLoggingForTest(t)
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.NoError(t, s.SaveUserConfig(store.UserConfig{Email: "reader@example.com"}))

	d := describer.Func(func(context.Context, describer.Request) (string, error) {
		return "A figure", nil
	})
	book := writeBook(t, dir)
	out := filepath.Join(dir, "out.epub")

	var stdout bytes.Buffer
	cmd := NewCommand(newMock(t, s, d))
	cmd.SetArgs([]string{"-e", book, "--update-missing", "-o", out})
	cmd.SetOut(&stdout)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, stdout.String(), "Images: 1, requests: 1")
	assert.Contains(t, stdout.String(), "Report: ")

	pkg, err := epub.Open(out)
	require.NoError(t, err)
	text, err := pkg.ReadText(pkg.Spine()[0].Path)
	require.NoError(t, err)
	assert.Contains(t, text, `alt="A figure"`)
}

func TestRunCommandFlagConflicts(t *testing.T) {
	cmd := NewCommand(&appcontext.Mock{})
	cmd.SetArgs([]string{"-e", "b.epub", "--update-all", "--verify-all"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
