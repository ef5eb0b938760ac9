// Package polling implements the submit → poll-until-terminal protocol every
// asynchronous AI provider shares, so individual clients only supply the
// status-check call and terminal-state predicate.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut indicates the task did not reach a terminal state within the
// attempt budget.
var ErrTimedOut = errors.New("polling: task did not complete in time")

// Options bounds a poll loop. Zero values fall back to the defaults: 5s
// interval, 120 attempts (~10 minutes), 5 consecutive transient errors with
// exponential backoff starting at 2s.
type Options struct {
	Interval             time.Duration
	MaxAttempts          int
	MaxConsecutiveErrors int
	ErrorBackoff         time.Duration
}

func (o *Options) applyDefaults() {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 120
	}
	if o.MaxConsecutiveErrors <= 0 {
		o.MaxConsecutiveErrors = 5
	}
	if o.ErrorBackoff <= 0 {
		o.ErrorBackoff = 2 * time.Second
	}
}

// CheckFunc inspects the remote task once: done=true with a result ends the
// loop, done=false schedules another attempt, and an error counts against the
// consecutive-error budget (the loop backs off and retries).
type CheckFunc[T any] func(ctx context.Context) (result T, done bool, err error)

// Poll runs check on the configured cadence until it reports done, the
// attempt budget is spent, too many consecutive errors accumulate, or ctx is
// cancelled.
func Poll[T any](ctx context.Context, opts Options, check CheckFunc[T]) (T, error) {
	opts.applyDefaults()
	var zero T

	consecutiveErrs := 0
	backoff := opts.ErrorBackoff

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, done, err := check(ctx)
		if err != nil {
			consecutiveErrs++
			if consecutiveErrs >= opts.MaxConsecutiveErrors {
				return zero, fmt.Errorf("polling: giving up after %d consecutive errors: %w", consecutiveErrs, err)
			}
			if !sleep(ctx, backoff) {
				return zero, ctx.Err()
			}
			backoff *= 2
			continue
		}
		consecutiveErrs = 0
		backoff = opts.ErrorBackoff

		if done {
			return result, nil
		}
		if !sleep(ctx, opts.Interval) {
			return zero, ctx.Err()
		}
	}
	return zero, ErrTimedOut
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
