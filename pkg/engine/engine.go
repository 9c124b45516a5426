// Package engine runs one reconciliation of an e-book package: index,
// merge with the cache, plan, describe in batches, reconcile, then write
// the report, the output package and the cache.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/epubalt/pkg/batch"
	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/describer"
	"github.com/agentstation/epubalt/pkg/epub"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/images"
	"github.com/agentstation/epubalt/pkg/logging"
	"github.com/agentstation/epubalt/pkg/planner"
	"github.com/agentstation/epubalt/pkg/reconciler"
	"github.com/agentstation/epubalt/pkg/report"
	"github.com/agentstation/epubalt/pkg/rewriter"
	"github.com/agentstation/epubalt/pkg/store"
)

// Engine runs reconciliations against one store.
type Engine struct {
	store     *store.Store
	describer describer.Describer
	sleeper   batch.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithDescriber sets the description provider. Runs that queue requests
// fail without one.
func WithDescriber(d describer.Describer) Option {
	return func(e *Engine) {
		e.describer = d
	}
}

// WithSleeper overrides the inter-batch pause.
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(e *Engine) {
		e.sleeper = batch.WithSleeper(sleeper)
	}
}

// New returns an Engine.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{store: s}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary reports what a run did.
type Summary struct {
	RunID      string
	CachePath  string
	ReportPath string
	OutputPath string
	Images     int
	Plan       map[planner.Action]int
	Requests   int
	Batches    int
	Delays     int
	Applied    int
	Failed     int
	Rewritten  rewriter.Result
	Exclusions []string
	Index      *images.Index
}

// Run performs one reconciliation.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Identity == "" {
		cfg.Identity = images.IdentityBasename
	}

	sum := &Summary{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, sum.RunID)
	ctx = logging.WithPackage(ctx, filepath.Base(cfg.PackagePath))
	logger := logging.Ctx(ctx)

	info, err := os.Stat(cfg.PackagePath)
	if err != nil {
		return nil, errors.NewPackageError(cfg.PackagePath, "package does not exist", err)
	}

	cachePath, err := e.store.CachePath(cfg.PackagePath)
	if err != nil {
		return nil, err
	}
	sum.CachePath = cachePath

	lock, err := e.store.Lock(cachePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release cache lock")
		}
	}()

	previous := images.NewIndex()
	if !cfg.ResetAll {
		if previous, err = e.store.LoadCache(cachePath); err != nil {
			return nil, err
		}
	}

	exclusions, err := e.store.LoadExclusions()
	if err != nil {
		return nil, err
	}
	if cfg.Ignore != "" {
		if exclusions.Toggle(cfg.Ignore) {
			logger.Info().Str("text", cfg.Ignore).Msg("Alt text added to the exclusion set")
		} else {
			logger.Info().Str("text", cfg.Ignore).Msg("Already excluded, allowing it again")
		}
	}
	sum.Exclusions = exclusions.Texts()
	if cfg.Blanket == planner.UpdateMissing && exclusions.Len() > 0 {
		logger.Info().Strs("exclusions", sum.Exclusions).Msg("Replacing existing alt text that matches the exclusion set")
	}

	pkg, err := epub.Open(cfg.PackagePath)
	if err != nil {
		return nil, err
	}

	logDir := cfg.ResolvedLogDir()
	if err := prepareLogDir(logDir, pkg); err != nil {
		return nil, err
	}

	fresh, err := images.Build(ctx, pkg, cfg.Identity)
	if err != nil {
		return nil, err
	}
	idx := images.Merge(fresh, previous)

	plan := planner.Build(pkg.Manifest(), idx, planner.Config{
		Targets:    cfg.Targets,
		Mode:       cfg.Mode,
		Blanket:    cfg.Blanket,
		Identity:   cfg.Identity,
		Exclusions: exclusions,
	})
	idx = planner.Apply(idx, plan)
	sum.Images = len(plan.Entries)
	sum.Plan = plan.Counts()
	sum.Requests = len(plan.Requests)

	results, err := e.describe(ctx, cfg, pkg, plan)
	if err != nil {
		return nil, err
	}
	if results != nil {
		sum.Batches, sum.Delays = results.stats.Batches, results.stats.Delays
	}

	idx, res := reconciler.Reconcile(idx, plan, results.get(),
		reconciler.WithRootDir(pkg.RootDir()),
		reconciler.WithRows(!cfg.NoReport),
	)
	sum.Applied, sum.Failed = res.Applied, res.Failed
	sum.Index = idx

	g, gctx := errgroup.WithContext(ctx)
	if !cfg.NoReport {
		sum.ReportPath = cfg.ReportPath()
		g.Go(func() error {
			return report.WriteFile(sum.ReportPath, report.Report{
				Package:  filepath.Base(cfg.PackagePath),
				Mode:     cfg.ModeName(),
				Provider: e.describerName(),
				Modified: utc.Time{Time: info.ModTime()},
				Rows:     res.Rows,
				Applied:  res.Applied,
				Failed:   res.Failed,
			})
		})
	}
	if cfg.OutputPath != "" {
		sum.OutputPath = cfg.OutputPath
		g.Go(func() error {
			rw, err := rewriter.Rewrite(gctx, pkg, idx, cfg.Identity)
			if err != nil {
				return err
			}
			sum.Rewritten = rw
			data, err := pkg.Bytes()
			if err != nil {
				return err
			}
			return store.WriteOutput(cfg.OutputPath, data)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := e.store.SaveCache(cachePath, idx); err != nil {
		return nil, err
	}
	if err := e.store.SaveExclusions(exclusions); err != nil {
		return nil, err
	}

	logger.Info().
		Int("images", sum.Images).
		Int("requests", sum.Requests).
		Int("applied", sum.Applied).
		Int("failed", sum.Failed).
		Msg("Run complete")
	return sum, nil
}

type described struct {
	results batch.Results
	stats   batch.Stats
}

func (d *described) get() batch.Results {
	if d == nil {
		return batch.Results{}
	}
	return d.results
}

func (e *Engine) describe(ctx context.Context, cfg RunConfig, pkg *epub.Package, plan planner.Plan) (*described, error) {
	logger := logging.Ctx(ctx)
	if len(plan.Requests) == 0 {
		logger.Info().Msg("No alt text needs to be generated")
		return nil, nil
	}
	if e.describer == nil {
		return nil, errors.NewConfigError("describer", "no description provider configured", nil)
	}

	opts := []batch.Option{batch.WithRemote(cfg.Remote)}
	if cfg.BatchSize > 0 {
		opts = append(opts, batch.WithBatchSize(cfg.BatchSize))
	}
	if cfg.Delay != nil {
		opts = append(opts, batch.WithDelay(*cfg.Delay))
	}
	if e.sleeper != nil {
		opts = append(opts, e.sleeper)
	}
	exec, err := batch.New(e.describer, pkg, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("images", len(plan.Requests)).
		Int("batch_size", exec.BatchSize()).
		Str("provider", e.describer.Name()).
		Msg("Generating alt text")

	results, stats, err := exec.Run(logging.WithProvider(ctx, e.describer.Name()), plan.Requests)
	if err != nil {
		return nil, err
	}
	return &described{results: results, stats: stats}, nil
}

func (e *Engine) describerName() string {
	if e.describer == nil {
		return ""
	}
	return e.describer.Name()
}

// prepareLogDir creates the log folder and extracts the package into it
// the first time.
func prepareLogDir(dir string, pkg *epub.Package) error {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	extracted := filepath.Join(dir, constants.ExtractDir)
	if _, err := os.Stat(extracted); err == nil {
		return nil
	}
	return pkg.Extract(extracted)
}
