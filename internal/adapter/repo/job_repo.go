package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/infra"
	"github.com/ceelsoin/productify-next-sub000/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. The items
// array lives in a jsonb column so per-item updates are single-row writes.
type JobRepositoryPG struct {
	db infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(db infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{db: db}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	product, err := json.Marshal(job.Product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	items, err := json.Marshal(job.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QJobInsert,
		job.ID,
		job.UserID,
		job.SourceImageURL,
		product,
		items,
		job.TotalCredits,
		job.CreditsSpent,
		job.CreditsRefunded,
		job.Status,
		job.Progress,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.db.QueryRow(ctx, sqlinline.QJobGetByID, jobID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// MarkProcessing flips the job to PROCESSING, recording started_at once.
func (r *JobRepositoryPG) MarkProcessing(ctx context.Context, jobID string) error {
	return r.exec(ctx, sqlinline.QJobMarkProcessing, jobID)
}

// MarkCompleted flips the job to COMPLETED with progress 100.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, jobID string) error {
	return r.exec(ctx, sqlinline.QJobMarkCompleted, jobID)
}

// MarkFailed flips the job to FAILED, recording failed_at.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID string) error {
	return r.exec(ctx, sqlinline.QJobMarkFailed, jobID)
}

// MarkCancelled flips the job to CANCELLED.
func (r *JobRepositoryPG) MarkCancelled(ctx context.Context, jobID string) error {
	return r.exec(ctx, sqlinline.QJobMarkCancelled, jobID)
}

// itemPatch is the jsonb merged into one items element. All fields are always
// present so a retry overwrites whatever the previous attempt left behind.
type itemPatch struct {
	Status   domain.ItemStatus `json:"status"`
	Progress int               `json:"progress"`
	Result   json.RawMessage   `json:"result,omitempty"`
	Error    string            `json:"error"`
}

// SetItemState persists one item's status, progress, result and error by index.
func (r *JobRepositoryPG) SetItemState(ctx context.Context, jobID string, index int, status domain.ItemStatus, progress int, result json.RawMessage, errMsg string) error {
	patch, err := json.Marshal(itemPatch{
		Status:   status,
		Progress: progress,
		Result:   result,
		Error:    errMsg,
	})
	if err != nil {
		return fmt.Errorf("marshal item patch: %w", err)
	}
	tag, err := r.db.Exec(ctx, sqlinline.QJobSetItemState, jobID, strconv.Itoa(index), patch)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetAggregate persists the derived job-level status and progress.
func (r *JobRepositoryPG) SetAggregate(ctx context.Context, jobID string, status domain.JobStatus, progress int) error {
	return r.exec(ctx, sqlinline.QJobSetAggregate, jobID, status, progress)
}

// RecordRefund increments credits_refunded and records the final status.
func (r *JobRepositoryPG) RecordRefund(ctx context.Context, jobID string, amount int, status domain.JobStatus) error {
	return r.exec(ctx, sqlinline.QJobRecordRefund, jobID, amount, status)
}

// ListStale returns PENDING or PROCESSING jobs untouched since the cutoff.
func (r *JobRepositoryPG) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Job, error) {
	rows, err := r.db.Query(ctx, sqlinline.QJobListStale, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *JobRepositoryPG) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job     domain.Job
		product []byte
		items   []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.SourceImageURL,
		&product,
		&items,
		&job.TotalCredits,
		&job.CreditsSpent,
		&job.CreditsRefunded,
		&job.Status,
		&job.Progress,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.FailedAt,
		&job.RefundedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(product, &job.Product); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	if err := json.Unmarshal(items, &job.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return &job, nil
}
