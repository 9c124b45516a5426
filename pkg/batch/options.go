package batch

import (
	"context"
	"time"

	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/errors"
)

// Option configures an Executor.
type Option func(*options) error

type options struct {
	batchSize int
	delay     time.Duration
	remote    bool
	sleeper   func(context.Context, time.Duration) error
}

func newOptions() *options {
	return &options{
		remote:  true,
		delay:   constants.DefaultBatchDelay,
		sleeper: Sleep,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.batchSize == 0 {
		o.batchSize = DefaultBatchSize(o.remote)
	}
	return o, nil
}

// WithBatchSize sets the number of concurrent requests per batch.
func WithBatchSize(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewValidationError("batch_size", n, "must be positive")
		}
		o.batchSize = n
		return nil
	}
}

// WithDelay sets the pause between batches in remote mode.
func WithDelay(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.NewValidationError("batch_delay", d, "must not be negative")
		}
		o.delay = d
		return nil
	}
}

// WithRemote selects remote mode (delays between batches) or local mode (none).
func WithRemote(remote bool) Option {
	return func(o *options) error {
		o.remote = remote
		return nil
	}
}

// WithSleeper overrides how inter-batch pauses are performed.
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(o *options) error {
		if sleeper != nil {
			o.sleeper = sleeper
		}
		return nil
	}
}
