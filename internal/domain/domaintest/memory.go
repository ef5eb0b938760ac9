// Package domaintest provides in-memory implementations of the domain
// repository interfaces for tests.
package domaintest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

// MemoryJobs is an in-memory domain.JobRepository.
type MemoryJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func NewMemoryJobs() *MemoryJobs {
	return &MemoryJobs{jobs: make(map[string]*domain.Job)}
}

func cloneJob(j *domain.Job) *domain.Job {
	out := *j
	out.Items = make([]domain.JobItem, len(j.Items))
	copy(out.Items, j.Items)
	return &out
}

func (m *MemoryJobs) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cloneJob(job)
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.jobs[c.ID] = c
	return nil
}

func (m *MemoryJobs) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneJob(j), nil
}

func (m *MemoryJobs) mutate(jobID string, fn func(*domain.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	fn(j)
	j.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryJobs) MarkProcessing(ctx context.Context, jobID string) error {
	return m.mutate(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusProcessing
		if j.StartedAt == nil {
			now := time.Now()
			j.StartedAt = &now
		}
	})
}

func (m *MemoryJobs) MarkCompleted(ctx context.Context, jobID string) error {
	return m.mutate(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
		j.Progress = 100
		now := time.Now()
		j.CompletedAt = &now
	})
}

func (m *MemoryJobs) MarkFailed(ctx context.Context, jobID string) error {
	return m.mutate(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusFailed
		now := time.Now()
		j.FailedAt = &now
	})
}

func (m *MemoryJobs) MarkCancelled(ctx context.Context, jobID string) error {
	return m.mutate(jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusCancelled
	})
}

func (m *MemoryJobs) SetItemState(ctx context.Context, jobID string, index int, status domain.ItemStatus, progress int, result json.RawMessage, errMsg string) error {
	return m.mutate(jobID, func(j *domain.Job) {
		if index < 0 || index >= len(j.Items) {
			return
		}
		it := &j.Items[index]
		it.Status = status
		it.Progress = progress
		it.Result = result
		it.Error = errMsg
	})
}

func (m *MemoryJobs) SetAggregate(ctx context.Context, jobID string, status domain.JobStatus, progress int) error {
	return m.mutate(jobID, func(j *domain.Job) {
		j.Status = status
		j.Progress = progress
	})
}

func (m *MemoryJobs) RecordRefund(ctx context.Context, jobID string, amount int, status domain.JobStatus) error {
	return m.mutate(jobID, func(j *domain.Job) {
		j.CreditsRefunded += amount
		j.Status = status
		now := time.Now()
		j.RefundedAt = &now
	})
}

func (m *MemoryJobs) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Job
	for _, j := range m.jobs {
		if len(out) >= limit {
			break
		}
		if (j.Status == domain.JobStatusPending || j.Status == domain.JobStatusProcessing) && j.UpdatedAt.Before(cutoff) {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

// Touch backdates a job's updated_at, for staleness tests.
func (m *MemoryJobs) Touch(jobID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.UpdatedAt = at
	}
}

// MemoryLedger is an in-memory domain.CreditLedger.
type MemoryLedger struct {
	mu           sync.Mutex
	balances     map[string]int
	Transactions []*domain.Transaction
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int)}
}

// SetBalance seeds a user balance.
func (m *MemoryLedger) SetBalance(userID string, credits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = credits
}

func (m *MemoryLedger) Debit(ctx context.Context, userID string, amount int, txType domain.TransactionType, jobID, reason string) (*domain.Transaction, error) {
	return m.apply(userID, -amount, txType, jobID, reason)
}

func (m *MemoryLedger) Credit(ctx context.Context, userID string, amount int, txType domain.TransactionType, jobID, reason string) (*domain.Transaction, error) {
	return m.apply(userID, amount, txType, jobID, reason)
}

func (m *MemoryLedger) Balance(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *MemoryLedger) apply(userID string, delta int, txType domain.TransactionType, jobID, reason string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.balances[userID]
	after := before + delta
	if after < 0 {
		return nil, domain.ErrInsufficientCredits
	}
	m.balances[userID] = after
	tx := &domain.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          txType,
		Amount:        delta,
		BalanceBefore: before,
		BalanceAfter:  after,
		JobID:         jobID,
		Reason:        reason,
		CreatedAt:     time.Now(),
	}
	m.Transactions = append(m.Transactions, tx)
	return tx, nil
}
