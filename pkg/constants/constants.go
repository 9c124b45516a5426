// Package constants provides shared constants used throughout the epubalt codebase.
// This includes batch limits, delays, timeouts, file permissions and the
// default model identifiers for the description providers.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to description providers.
	// Local vision models can be slow on consumer hardware, so this is generous.
	DefaultHTTPTimeout = 5 * time.Minute

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for a whole CLI run
	CommandTimeout = 2 * time.Hour

	// ShutdownTimeout bounds graceful shutdown after an error
	ShutdownTimeout = 5 * time.Second
)

// Batching constants control how many description requests run at once.
const (
	// DefaultRemoteBatchSize is the number of concurrent requests sent to the remote API
	// before pausing for DefaultBatchDelay.
	DefaultRemoteBatchSize = 2

	// DefaultLocalBatchSize is the number of concurrent requests sent to a local model.
	// No delay is inserted between local batches.
	DefaultLocalBatchSize = 4

	// DefaultBatchDelay is the pause between remote API batches.
	DefaultBatchDelay = 15 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// WritablePermissions is applied to an output file before retrying a failed write (rw-rw-rw-)
	WritablePermissions = 0666

	// SecureFilePermissions is for sensitive files like the user config (rw-------)
	SecureFilePermissions = 0600
)

// Default values
const (
	// DefaultGeminiModel is the Gemini model used by the remote provider.
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultLocalURL is the OpenAI-compatible endpoint exposed by LM Studio.
	DefaultLocalURL = "http://localhost:1234/v1"

	// DefaultLocalModel is the vision model loaded in the local server.
	DefaultLocalModel = "gemma-3-12b-it"

	// AppName names the per-user data directory.
	AppName = "epubalt"
)

// Path constants
const (
	// UserConfigFile is the file in the data directory holding the user config.
	UserConfigFile = "config.json"

	// ExclusionsFile is the file in the data directory holding the exclusion set.
	ExclusionsFile = "exclude.json"

	// ReportFile is the report file name inside the log folder.
	ReportFile = "index.html"

	// ExtractDir is the folder inside the log folder holding the unpacked package.
	ExtractDir = "epub"

	// LogDirSuffix replaces the .epub extension when deriving the default log folder.
	LogDirSuffix = "_log"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
