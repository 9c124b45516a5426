// Package run provides the run command: one reconciliation of a book.
package run

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/epubalt/internal/appcontext"
	"github.com/agentstation/epubalt/pkg/engine"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/images"
	"github.com/agentstation/epubalt/pkg/planner"
)

// Flags holds the parsed run flags.
type Flags struct {
	Package string
	Output  string
	LogDir  string
	Show    bool

	UpdateMissing bool
	UpdateAll     bool
	VerifyAll     bool
	ResetAll      bool

	Images   []int
	Manual   string
	Generate bool
	Verify   bool
	Reset    bool

	Ignore   string
	Count    int
	Delay    int
	Provider string
	Identity string
	NoReport bool
}

// NewCommand creates the run command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Review a book and update its alt text",
		Long: `Run indexes the images of a book, merges the state remembered from
earlier runs, sends the selected images to the description provider,
and writes the report, the cache and optionally an updated copy of the book.

Blanket modes apply to every image:
  --update-missing  generate alt text for images without it
  --update-all      generate alt text for every image
  --verify-all      ask the model to check every existing alt text
  --reset-all       forget everything remembered about this book

Per-image modes apply to the images listed with -i:
  -m TEXT   use TEXT as the new alt text
  --ai      generate new alt text
  --verify  check the existing alt text
  --reset   forget the remembered state`,
		Example: `  epubalt run -e book.epub --update-missing -o book-alt.epub
  epubalt run -e book.epub -i 3,7 -m "Map of the harbour"
  epubalt run -e book.epub -i 2 --verify --show`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.Package, "epub", "e", "", "EPUB file to review (required)")
	f.StringVarP(&flags.Output, "output", "o", "", "write an updated copy of the book here")
	f.StringVarP(&flags.LogDir, "log-dir", "l", "", "report folder (default <book>_log next to the book)")
	f.BoolVar(&flags.Show, "show", false, "open the report when done")

	f.BoolVar(&flags.UpdateMissing, "update-missing", false, "generate alt text for images without it")
	f.BoolVar(&flags.UpdateAll, "update-all", false, "generate alt text for every image")
	f.BoolVar(&flags.VerifyAll, "verify-all", false, "verify every image's alt text")
	f.BoolVar(&flags.ResetAll, "reset-all", false, "ignore remembered state for this book")

	f.IntSliceVarP(&flags.Images, "images", "i", nil, "image numbers for a per-image mode, e.g. 1,4,9")
	f.StringVarP(&flags.Manual, "manual", "m", "", "alt text for the listed images, or _ai_, _verify_, _reset_")
	f.BoolVar(&flags.Generate, "ai", false, "generate alt text for the listed images")
	f.BoolVar(&flags.Verify, "verify", false, "verify alt text of the listed images")
	f.BoolVar(&flags.Reset, "reset", false, "reset the listed images")

	f.StringVar(&flags.Ignore, "ignore", "", "toggle an alt text that --update-missing should replace")
	f.IntVarP(&flags.Count, "count", "c", 0, "images per batch")
	f.IntVarP(&flags.Delay, "delay", "d", -1, "milliseconds between batches")
	f.StringVar(&flags.Provider, "provider", "", "description provider: api or local")
	f.StringVar(&flags.Identity, "identity", "", "image identity: basename or path")
	f.BoolVar(&flags.NoReport, "no-report", false, "skip the HTML report")

	_ = cmd.MarkFlagRequired("epub")
	cmd.MarkFlagsMutuallyExclusive("update-missing", "update-all", "verify-all")
	cmd.MarkFlagsMutuallyExclusive("manual", "ai", "verify", "reset")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	ctx := cmd.Context()
	logger := app.Logger()

	s, err := app.Store()
	if err != nil {
		return err
	}
	user, _, err := s.LoadUserConfig()
	if err != nil {
		return err
	}
	if user.Email == "" {
		return errors.NewConfigError("license", "no email configured; run `epubalt config --email you@example.com`", nil)
	}

	settings := app.Settings()
	provider := flags.Provider
	if provider == "" {
		provider = settings.Provider
	}

	cfg, err := BuildRunConfig(flags, settings, provider)
	if err != nil {
		return err
	}

	var opts []engine.Option
	if needsProvider(cfg) {
		d, err := app.Describer(provider)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithDescriber(d))
	}

	sum, err := engine.New(s, opts...).Run(ctx, cfg)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), sum)

	if flags.Show && sum.ReportPath != "" {
		if err := Open(ctx, sum.ReportPath); err != nil {
			logger.Warn().Err(err).Str("report", sum.ReportPath).Msg("Could not open the report")
		}
	}
	return nil
}

// BuildRunConfig turns flags and configured defaults into an engine config.
func BuildRunConfig(flags *Flags, settings appcontext.Settings, provider string) (engine.RunConfig, error) {
	identity, err := images.ParseIdentity(firstNonEmpty(flags.Identity, settings.Identity))
	if err != nil {
		return engine.RunConfig{}, errors.WrapValidation("identity", err)
	}

	cfg := engine.RunConfig{
		PackagePath: flags.Package,
		OutputPath:  flags.Output,
		LogDir:      flags.LogDir,
		ResetAll:    flags.ResetAll,
		Targets:     flags.Images,
		Ignore:      flags.Ignore,
		Identity:    identity,
		Remote:      provider != "local",
		NoReport:    flags.NoReport,
	}

	switch {
	case flags.UpdateMissing:
		cfg.Blanket = planner.UpdateMissing
	case flags.UpdateAll:
		cfg.Blanket = planner.UpdateAll
	case flags.VerifyAll:
		cfg.Blanket = planner.VerifyAll
	}

	switch {
	case flags.Manual != "":
		cfg.Mode = planner.ParseMode(flags.Manual)
	case flags.Generate:
		cfg.Mode = planner.Generate()
	case flags.Verify:
		cfg.Mode = planner.Verify()
	case flags.Reset:
		cfg.Mode = planner.Reset()
	}

	switch {
	case flags.Count > 0:
		cfg.BatchSize = flags.Count
	case cfg.Remote:
		cfg.BatchSize = settings.BatchSize
	default:
		cfg.BatchSize = settings.LocalBatchSize
	}

	delay := flags.Delay
	if delay < 0 {
		delay = settings.BatchDelay
	}
	pause := time.Duration(delay) * time.Millisecond
	cfg.Delay = &pause

	return cfg, cfg.Validate()
}

// needsProvider reports whether the run can queue description requests.
func needsProvider(cfg engine.RunConfig) bool {
	return cfg.Blanket != planner.BlanketNone || cfg.Mode.IsGenerate() || cfg.Mode.IsVerify()
}

func printSummary(w io.Writer, sum *engine.Summary) {
	fmt.Fprintf(w, "Images: %d, requests: %d", sum.Images, sum.Requests)
	if sum.Requests > 0 {
		fmt.Fprintf(w, " in %d batches, updated: %d, failed: %d", sum.Batches, sum.Applied, sum.Failed)
	}
	fmt.Fprintln(w)
	if sum.ReportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", sum.ReportPath)
	}
	if sum.OutputPath != "" {
		fmt.Fprintf(w, "Output: %s (%d documents changed)\n", sum.OutputPath, sum.Rewritten.Documents)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
