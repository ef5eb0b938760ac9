package domain

import (
	"context"
	"encoding/json"
	"time"
)

// JobRepository defines persistence for jobs and their items. The job record
// is the single source of truth for pipeline state; repositories must apply
// each mutation atomically and bump updated_at.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)

	// MarkProcessing flips the job to PROCESSING, recording started_at once.
	MarkProcessing(ctx context.Context, jobID string) error
	// MarkCompleted flips the job to COMPLETED with progress 100.
	MarkCompleted(ctx context.Context, jobID string) error
	// MarkFailed flips the job to FAILED, recording failed_at.
	MarkFailed(ctx context.Context, jobID string) error
	MarkCancelled(ctx context.Context, jobID string) error

	// SetItemState persists one item's status/progress/result/error by index.
	SetItemState(ctx context.Context, jobID string, index int, status ItemStatus, progress int, result json.RawMessage, errMsg string) error
	// SetAggregate persists the derived job-level status and progress.
	SetAggregate(ctx context.Context, jobID string, status JobStatus, progress int) error

	// RecordRefund increments credits_refunded and sets refunded_at and the
	// final status. Used by the refund service after the ledger entry lands.
	RecordRefund(ctx context.Context, jobID string, amount int, status JobStatus) error

	// ListStale returns jobs still PENDING or PROCESSING whose updated_at is
	// older than the cutoff. Used by the watchdog.
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*Job, error)
}

// CreditLedger mutates a user's balance and records the matching transaction
// in one atomic step.
type CreditLedger interface {
	// Debit removes amount credits from the user. Fails with
	// ErrInsufficientCredits when the balance cannot cover it.
	Debit(ctx context.Context, userID string, amount int, txType TransactionType, jobID, reason string) (*Transaction, error)
	// Credit adds amount credits to the user.
	Credit(ctx context.Context, userID string, amount int, txType TransactionType, jobID, reason string) (*Transaction, error)
	// Balance returns the user's current credit balance.
	Balance(ctx context.Context, userID string) (int, error)
}
