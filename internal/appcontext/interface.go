// Package appcontext provides the shared application context interface
// used by all commands.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/epubalt/pkg/describer"
	"github.com/agentstation/epubalt/pkg/store"
)

// Settings are the resolved run defaults from config files and the environment.
type Settings struct {
	Provider       string
	BatchSize      int
	LocalBatchSize int
	// BatchDelay is in milliseconds.
	BatchDelay int
	Identity   string
}

// Interface defines what commands need from the application.
// The App struct from cmd/epubalt/app implements it; tests use Mock.
type Interface interface {
	// Store returns the per-user data store, creating it lazily.
	Store() (*store.Store, error)

	// Describer returns the description provider for "api" or "local".
	// An empty name uses the configured default.
	Describer(provider string) (describer.Describer, error)

	// Settings returns the configured run defaults.
	Settings() Settings

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
