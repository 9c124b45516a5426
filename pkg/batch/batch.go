// Package batch runs description requests in fixed-size batches. All
// requests of a batch run concurrently and the batch is awaited as a whole;
// remote providers get a fixed pause between batches.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/describer"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/logging"
	"github.com/agentstation/epubalt/pkg/planner"
)

// ImageSource reads image bytes by package-relative path.
type ImageSource interface {
	ReadFile(name string) ([]byte, error)
}

// Outcome is the result of one request. Exactly one of Text and Err is meaningful.
type Outcome struct {
	Request planner.Request
	Text    string
	Err     error
}

// OK reports whether the request succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Results maps request paths to outcomes.
type Results map[string]Outcome

// Stats summarizes an execution.
type Stats struct {
	Requests int
	Batches  int
	Delays   int
	Failed   int
}

// Executor issues requests through a Describer.
type Executor struct {
	describer describer.Describer
	images    ImageSource
	options   *options
}

// New returns an Executor.
func New(d describer.Describer, images ImageSource, opts ...Option) (*Executor, error) {
	o, err := newOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.NewValidationError("describer", nil, "is required")
	}
	return &Executor{describer: d, images: images, options: o}, nil
}

// BatchSize returns the effective batch size.
func (e *Executor) BatchSize() int { return e.options.batchSize }

// Run executes reqs in order. Failures are recorded per request and never
// stop sibling requests or later batches. Run returns an error only when ctx
// is canceled.
func (e *Executor) Run(ctx context.Context, reqs []planner.Request) (Results, Stats, error) {
	logger := logging.Ctx(ctx)
	results := make(Results, len(reqs))
	stats := Stats{Requests: len(reqs)}
	size := e.options.batchSize

	for start := 0; start < len(reqs); start += size {
		end := min(start+size, len(reqs))
		batch := reqs[start:end]
		stats.Batches++

		logger.Info().
			Int("batch", stats.Batches).
			Int("size", len(batch)).
			Str("provider", e.describer.Name()).
			Msg("Describing images")

		// Failures live in the outcomes, so siblings never cancel each other.
		outs := make([]Outcome, len(batch))
		var wg sync.WaitGroup
		for i, req := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				outs[i] = e.describe(ctx, req)
			}()
		}
		wg.Wait()

		for _, out := range outs {
			results[out.Request.Path] = out
			if !out.OK() {
				stats.Failed++
				logger.Warn().Err(out.Err).Str("image", out.Request.Path).Msg("Description request failed")
			}
		}

		if err := ctx.Err(); err != nil {
			return results, stats, errors.ErrCanceled
		}

		if end < len(reqs) && e.options.remote && e.options.delay > 0 {
			logger.Info().Dur("delay", e.options.delay).Msg("Batch limit reached, pausing to avoid rate limiting")
			stats.Delays++
			if err := e.options.sleeper(ctx, e.options.delay); err != nil {
				return results, stats, errors.ErrCanceled
			}
		}
	}
	return results, stats, nil
}

func (e *Executor) describe(ctx context.Context, req planner.Request) Outcome {
	out := Outcome{Request: req}

	data, err := e.images.ReadFile(req.Path)
	if err != nil {
		out.Err = errors.NewDescribeError(e.describer.Name(), req.Path, err)
		return out
	}

	dreq := describer.Request{
		Name:        req.Path,
		Image:       data,
		MediaType:   req.MediaType,
		Kind:        describer.Create,
		ExistingAlt: req.ExistingAlt,
	}
	if req.Kind == planner.KindVerify {
		dreq.Kind = describer.Verify
	}

	logging.Ctx(ctx).Debug().Str("image", req.Path).Stringer("kind", req.Kind).Msg("Processing image")
	text, err := e.describer.Describe(ctx, dreq)
	if err != nil {
		out.Err = errors.NewDescribeError(e.describer.Name(), req.Path, err)
		return out
	}
	if req.Kind == planner.KindCreate {
		out.Text = describer.NormalizeBlank(text)
	} else {
		out.Text = text
	}
	return out
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DefaultBatchSize returns the batch size for the provider mode.
func DefaultBatchSize(remote bool) int {
	if remote {
		return constants.DefaultRemoteBatchSize
	}
	return constants.DefaultLocalBatchSize
}
