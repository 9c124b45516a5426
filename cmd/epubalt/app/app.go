// Package app provides the application context and dependency management
// for the epubalt CLI: configuration, logging, the data store and the
// description providers.
package app

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/epubalt/internal/appcontext"
	"github.com/agentstation/epubalt/pkg/describer"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/logging"
	"github.com/agentstation/epubalt/pkg/store"
)

// Provider names accepted on the command line and in config files.
const (
	ProviderAPI   = "api"
	ProviderLocal = "local"
)

// App represents the epubalt application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// lazily created
	mu    sync.Mutex
	store *store.Store
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the --format value or the config default.
func (a *App) OutputFormat() string { return a.config.Format }

// Store returns the data store, creating its directory on first use.
func (a *App) Store() (*store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}
	s, err := store.New(a.config.DataDir)
	if err != nil {
		return nil, errors.WrapResource("open", "store", a.config.DataDir, err)
	}
	a.store = s
	return s, nil
}

// Settings returns the configured run defaults. The provider falls back to
// the choice saved with `epubalt config --provider`.
func (a *App) Settings() appcontext.Settings {
	return appcontext.Settings{
		Provider:       a.provider(""),
		BatchSize:      a.config.BatchSize,
		LocalBatchSize: a.config.LocalBatchSize,
		BatchDelay:     a.config.BatchDelay,
		Identity:       a.config.Identity,
	}
}

// Describer returns the description provider by name.
func (a *App) Describer(provider string) (describer.Describer, error) {
	switch name := a.provider(provider); name {
	case ProviderAPI:
		if a.config.GeminiAPIKey == "" && a.config.GeminiProject == "" {
			return nil, errors.NewConfigError("gemini", "set GEMINI_API_KEY or gemini_api_key", errors.ErrAPIKeyRequired)
		}
		return describer.NewGemini(describer.GeminiConfig{
			APIKey:   a.config.GeminiAPIKey,
			Model:    a.config.GeminiModel,
			Project:  a.config.GeminiProject,
			Location: a.config.GeminiLocation,
		}), nil
	case ProviderLocal:
		cfg := describer.LocalConfig{
			BaseURL: a.config.LocalURL,
			Model:   a.config.LocalModel,
			APIKey:  a.config.LocalAPIKey,
			Timeout: a.config.LocalTimeout,
		}
		if param, ok := strings.CutPrefix(a.config.LocalAuth, "query:"); ok {
			cfg.AuthQuery = param
		} else {
			cfg.AuthHeader = a.config.LocalAuth
		}
		return describer.NewLocal(cfg), nil
	default:
		return nil, errors.NewValidationError("provider", provider, "must be api or local")
	}
}

func (a *App) provider(explicit string) string {
	for _, p := range []string{explicit, a.config.Provider} {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			return p
		}
	}
	if s, err := a.Store(); err == nil {
		if cfg, found, err := s.LoadUserConfig(); err == nil && found && cfg.IsLocal() {
			return ProviderLocal
		}
	}
	return ProviderAPI
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the data store (useful for testing).
func WithStore(s *store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}

func (a *App) installLogger() {
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
}

// Ensure App implements appcontext.Interface.
var _ appcontext.Interface = (*App)(nil)
