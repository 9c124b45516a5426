package engine

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/images"
	"github.com/agentstation/epubalt/pkg/planner"
)

// RunConfig is the immutable input of one run.
type RunConfig struct {
	// PackagePath is the e-book to review.
	PackagePath string
	// OutputPath, when set, receives a copy of the package with new alt text.
	OutputPath string
	// LogDir holds the report and the extracted package; defaults to
	// <dir>/<name>_log next to the package.
	LogDir string

	Blanket planner.Blanket
	// ResetAll ignores the cached state of previous runs.
	ResetAll bool
	Targets  []int
	Mode     planner.RequestMode
	// Ignore toggles one alt text in the exclusion set before planning.
	Ignore string

	Identity images.Identity

	// Remote selects the remote provider timing: inter-batch delays and
	// the remote batch size default.
	Remote    bool
	BatchSize int
	// Delay overrides the pause between remote batches; nil keeps the
	// default and zero disables it.
	Delay *time.Duration

	// NoReport skips writing the HTML report.
	NoReport bool
}

// Validate checks the configuration.
func (c RunConfig) Validate() error {
	if c.PackagePath == "" {
		return errors.NewValidationError("package", nil, "is required")
	}
	if len(c.Targets) > 0 && c.Mode.IsZero() {
		return errors.NewValidationError("images", c.Targets, "requires a manual text, generate, verify or reset mode")
	}
	if !c.Mode.IsZero() && len(c.Targets) == 0 {
		return errors.NewValidationError("images", nil, "a per-image mode requires image numbers")
	}
	for _, n := range c.Targets {
		if n < 1 {
			return errors.NewValidationError("images", n, "image numbers start at 1")
		}
	}
	if c.BatchSize < 0 {
		return errors.NewValidationError("batch_size", c.BatchSize, "must be positive")
	}
	if c.Delay != nil && *c.Delay < 0 {
		return errors.NewValidationError("delay", *c.Delay, "must not be negative")
	}
	return nil
}

var epubSuffix = regexp.MustCompile(`(?i)\.epub$`)

// ResolvedLogDir returns LogDir or the default next to the package.
func (c RunConfig) ResolvedLogDir() string {
	if c.LogDir != "" {
		return c.LogDir
	}
	base := filepath.Base(c.PackagePath)
	name := epubSuffix.ReplaceAllString(base, constants.LogDirSuffix)
	if name == base {
		name = base + constants.LogDirSuffix
	}
	return filepath.Join(filepath.Dir(c.PackagePath), name)
}

// ReportPath returns the report location.
func (c RunConfig) ReportPath() string {
	return filepath.Join(c.ResolvedLogDir(), constants.ReportFile)
}

// ModeName describes the selected actions for logs and the report.
func (c RunConfig) ModeName() string {
	switch {
	case c.Blanket != planner.BlanketNone:
		return c.Blanket.String()
	case !c.Mode.IsZero():
		return c.Mode.String()
	case c.ResetAll:
		return "reset all"
	default:
		return "review"
	}
}
