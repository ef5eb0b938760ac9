// Package refund reconciles a user's credit balance when generation work does
// not complete as paid for.
package refund

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

// Service applies full, partial, and manual credit reversals. All paths guard
// against double-compensation: once credits_refunded is non-zero the automatic
// paths report ErrAlreadyRefunded, and the manual path is bounded by what
// remains.
type Service struct {
	repo   domain.JobRepository
	ledger domain.CreditLedger
	logger zerolog.Logger
}

// NewService constructs a refund service.
func NewService(repo domain.JobRepository, ledger domain.CreditLedger, logger zerolog.Logger) *Service {
	return &Service{repo: repo, ledger: ledger, logger: logger}
}

// ProcessJobFailureRefund returns the entire spent amount for a failed job
// where no items completed. A second call reports ErrAlreadyRefunded without
// touching the ledger.
func (s *Service) ProcessJobFailureRefund(ctx context.Context, jobID string) (*domain.Transaction, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status != domain.JobStatusFailed {
		return nil, fmt.Errorf("%w: job %s is %s", domain.ErrJobNotFailed, jobID, job.Status)
	}
	if job.CreditsRefunded > 0 {
		return nil, fmt.Errorf("%w: job %s already refunded %d credits", domain.ErrAlreadyRefunded, jobID, job.CreditsRefunded)
	}
	return s.apply(ctx, job, job.CreditsSpent, "full refund after job failure")
}

// ProcessPartialRefund returns the share of spend attributable to incomplete
// items, rounded up in the user's favor:
// ceil(creditsSpent * (1 - completedItems/totalItems)).
func (s *Service) ProcessPartialRefund(ctx context.Context, jobID string, completedItems, totalItems int) (*domain.Transaction, error) {
	if totalItems <= 0 {
		return nil, fmt.Errorf("partial refund for job %s: totalItems must be positive", jobID)
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status != domain.JobStatusFailed {
		return nil, fmt.Errorf("%w: job %s is %s", domain.ErrJobNotFailed, jobID, job.Status)
	}
	if job.CreditsRefunded > 0 {
		return nil, fmt.Errorf("%w: job %s already refunded %d credits", domain.ErrAlreadyRefunded, jobID, job.CreditsRefunded)
	}

	amount := ceilProportional(job.CreditsSpent, completedItems, totalItems)
	reason := fmt.Sprintf("partial refund: %d of %d items incomplete", totalItems-completedItems, totalItems)
	return s.apply(ctx, job, amount, reason)
}

// ProcessManualRefund lets an operator return an arbitrary amount, bounded by
// the unrefunded spend. When the refund settles the full spend the job moves
// to the REFUNDED terminal state.
func (s *Service) ProcessManualRefund(ctx context.Context, jobID string, amount int, adminID, reason string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("manual refund for job %s: amount must be positive", jobID)
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	remaining := job.CreditsSpent - job.CreditsRefunded
	if amount > remaining {
		return nil, fmt.Errorf("%w: %d requested, %d remaining on job %s", domain.ErrRefundExceedsSpend, amount, remaining, jobID)
	}

	status := job.Status
	if job.CreditsRefunded+amount >= job.CreditsSpent {
		status = domain.JobStatusRefunded
	}

	tx, err := s.ledger.Credit(ctx, job.UserID, amount, domain.TxJobRefund, jobID,
		fmt.Sprintf("manual refund by %s: %s", adminID, reason))
	if err != nil {
		return nil, fmt.Errorf("credit user %s: %w", job.UserID, err)
	}
	if err := s.repo.RecordRefund(ctx, jobID, amount, status); err != nil {
		return nil, fmt.Errorf("record refund on job %s: %w", jobID, err)
	}

	s.logger.Info().
		Str("job_id", jobID).
		Str("admin_id", adminID).
		Int("amount", amount).
		Msg("refund: manual refund applied")
	return tx, nil
}

func (s *Service) apply(ctx context.Context, job *domain.Job, amount int, reason string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, nil
	}
	tx, err := s.ledger.Credit(ctx, job.UserID, amount, domain.TxJobRefund, job.ID, reason)
	if err != nil {
		return nil, fmt.Errorf("credit user %s: %w", job.UserID, err)
	}
	if err := s.repo.RecordRefund(ctx, job.ID, amount, job.Status); err != nil {
		return nil, fmt.Errorf("record refund on job %s: %w", job.ID, err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Int("amount", amount).
		Str("reason", reason).
		Msg("refund: applied")
	return tx, nil
}

// ceilProportional computes ceil(spent * (total-completed) / total) using
// integer arithmetic.
func ceilProportional(spent, completed, total int) int {
	incomplete := total - completed
	if incomplete <= 0 {
		return 0
	}
	return (spent*incomplete + total - 1) / total
}
