// Package cleanup guarantees liveness when a job stops advancing: a crashed
// worker, a lost queue message, or an orchestrator restart that dropped the
// in-memory execution. It is the sole durability backstop for those cases.
package cleanup

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

const (
	DefaultInterval   = 15 * time.Minute
	DefaultJobTimeout = time.Hour

	staleBatchSize = 100
)

// Compensator matches the refund service surface the watchdog needs.
type Compensator interface {
	ProcessJobFailureRefund(ctx context.Context, jobID string) (*domain.Transaction, error)
	ProcessPartialRefund(ctx context.Context, jobID string, completedItems, totalItems int) (*domain.Transaction, error)
}

// Watchdog sweeps for jobs stuck in PENDING or PROCESSING beyond the timeout
// and forces them terminal with the appropriate compensation.
type Watchdog struct {
	repo     domain.JobRepository
	refunds  Compensator
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// New constructs a watchdog; zero durations fall back to the defaults.
func New(repo domain.JobRepository, refunds Compensator, interval, timeout time.Duration, logger zerolog.Logger) *Watchdog {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Watchdog{
		repo:     repo,
		refunds:  refunds,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. The first sweep runs
// immediately so a restarted process reaps orphans without waiting a tick.
func (w *Watchdog) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Dur("timeout", w.timeout).Msg("watchdog: started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("watchdog: stopped")
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep finds stale jobs and forces each one terminal. Per-job errors are
// logged and do not stop the sweep.
func (w *Watchdog) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.timeout)
	jobs, err := w.repo.ListStale(ctx, cutoff, staleBatchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("watchdog: stale query failed")
		return
	}
	for _, job := range jobs {
		if err := w.reap(ctx, job); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("watchdog: reap failed")
		}
	}
}

// reap resolves one stale job. A job whose items all completed but whose
// aggregate update never landed is a success, not a failure; everything else
// is failed and compensated by the completed/total ratio.
func (w *Watchdog) reap(ctx context.Context, job *domain.Job) error {
	completed := job.CompletedItems()
	total := len(job.Items)

	if total > 0 && completed == total {
		w.logger.Warn().Str("job_id", job.ID).Msg("watchdog: all items complete, finalizing as completed")
		return w.repo.MarkCompleted(ctx, job.ID)
	}

	w.logger.Warn().
		Str("job_id", job.ID).
		Int("completed", completed).
		Int("total", total).
		Time("updated_at", job.UpdatedAt).
		Msg("watchdog: forcing stale job to failed")

	if err := w.repo.MarkFailed(ctx, job.ID); err != nil {
		return err
	}

	var refundErr error
	if completed == 0 {
		_, refundErr = w.refunds.ProcessJobFailureRefund(ctx, job.ID)
	} else {
		_, refundErr = w.refunds.ProcessPartialRefund(ctx, job.ID, completed, total)
	}
	if refundErr != nil && !errors.Is(refundErr, domain.ErrAlreadyRefunded) {
		// Already FAILED; compensation is retried by an operator, not here.
		w.logger.Error().Err(refundErr).Str("job_id", job.ID).Msg("watchdog: refund failed")
	}
	return nil
}
