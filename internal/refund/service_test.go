package refund

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/domain/domaintest"
)

func newTestService(t *testing.T) (*Service, *domaintest.MemoryJobs, *domaintest.MemoryLedger) {
	t.Helper()
	repo := domaintest.NewMemoryJobs()
	ledger := domaintest.NewMemoryLedger()
	return NewService(repo, ledger, zerolog.Nop()), repo, ledger
}

func seedFailedJob(t *testing.T, repo *domaintest.MemoryJobs, spent int) *domain.Job {
	t.Helper()
	job := &domain.Job{
		ID:     "job-1",
		UserID: "user-1",
		Items: []domain.JobItem{
			{Type: domain.ItemEnhancedImages, Credits: 10},
			{Type: domain.ItemViralCopy, Credits: 10},
			{Type: domain.ItemVoiceOver, Credits: 10},
		},
		TotalCredits: spent,
		CreditsSpent: spent,
		Status:       domain.JobStatusFailed,
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestProcessJobFailureRefundReturnsFullSpend(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	job := seedFailedJob(t, repo, 30)
	ctx := context.Background()

	tx, err := svc.ProcessJobFailureRefund(ctx, job.ID)
	if err != nil {
		t.Fatalf("ProcessJobFailureRefund returned error: %v", err)
	}
	if tx == nil || tx.Amount != 30 {
		t.Fatalf("refund amount = %+v, want +30", tx)
	}
	if tx.Type != domain.TxJobRefund {
		t.Fatalf("transaction type = %v, want JOB_REFUND", tx.Type)
	}

	stored, _ := repo.GetByID(ctx, job.ID)
	if stored.CreditsRefunded != 30 {
		t.Fatalf("creditsRefunded = %d, want 30", stored.CreditsRefunded)
	}
	if stored.RefundedAt == nil {
		t.Fatal("refundedAt not set")
	}
	balance, _ := ledger.Balance(ctx, job.UserID)
	if balance != 30 {
		t.Fatalf("balance = %d, want 30", balance)
	}
}

func TestProcessJobFailureRefundRequiresFailedStatus(t *testing.T) {
	svc, repo, _ := newTestService(t)
	job := &domain.Job{ID: "job-2", UserID: "user-1", CreditsSpent: 10, Status: domain.JobStatusProcessing}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	_, err := svc.ProcessJobFailureRefund(context.Background(), job.ID)
	if !errors.Is(err, domain.ErrJobNotFailed) {
		t.Fatalf("error = %v, want ErrJobNotFailed", err)
	}
}

func TestProcessJobFailureRefundIsIdempotent(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	job := seedFailedJob(t, repo, 30)
	ctx := context.Background()

	if _, err := svc.ProcessJobFailureRefund(ctx, job.ID); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	tx, err := svc.ProcessJobFailureRefund(ctx, job.ID)
	if !errors.Is(err, domain.ErrAlreadyRefunded) {
		t.Fatalf("second refund error = %v, want ErrAlreadyRefunded", err)
	}
	if tx != nil {
		t.Fatalf("second refund produced a transaction: %+v", tx)
	}
	if len(ledger.Transactions) != 1 {
		t.Fatalf("ledger has %d transactions, want 1", len(ledger.Transactions))
	}
}

func TestProcessPartialRefundReportsAlreadyRefunded(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	job := seedFailedJob(t, repo, 30)
	ctx := context.Background()

	if _, err := svc.ProcessPartialRefund(ctx, job.ID, 1, 3); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if _, err := svc.ProcessPartialRefund(ctx, job.ID, 1, 3); !errors.Is(err, domain.ErrAlreadyRefunded) {
		t.Fatalf("second refund error = %v, want ErrAlreadyRefunded", err)
	}
	if len(ledger.Transactions) != 1 {
		t.Fatalf("ledger has %d transactions, want 1", len(ledger.Transactions))
	}
}

func TestProcessPartialRefundRoundsUp(t *testing.T) {
	svc, repo, _ := newTestService(t)
	job := seedFailedJob(t, repo, 30)

	// 1 of 3 items completed: ceil(30 * 2/3) = 20.
	tx, err := svc.ProcessPartialRefund(context.Background(), job.ID, 1, 3)
	if err != nil {
		t.Fatalf("ProcessPartialRefund returned error: %v", err)
	}
	if tx == nil || tx.Amount != 20 {
		t.Fatalf("refund amount = %+v, want +20", tx)
	}
}

func TestCeilProportional(t *testing.T) {
	tests := []struct {
		spent, completed, total int
		want                    int
	}{
		{30, 1, 3, 20},
		{30, 0, 3, 30},
		{30, 3, 3, 0},
		{10, 2, 3, 4},  // ceil(10/3)
		{25, 1, 4, 19}, // ceil(75/4)
	}
	for _, tt := range tests {
		if got := ceilProportional(tt.spent, tt.completed, tt.total); got != tt.want {
			t.Fatalf("ceilProportional(%d, %d, %d) = %d, want %d", tt.spent, tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestProcessManualRefundBoundedBySpend(t *testing.T) {
	svc, repo, _ := newTestService(t)
	job := seedFailedJob(t, repo, 30)
	ctx := context.Background()

	if _, err := svc.ProcessManualRefund(ctx, job.ID, 20, "admin-1", "goodwill"); err != nil {
		t.Fatalf("first manual refund: %v", err)
	}
	_, err := svc.ProcessManualRefund(ctx, job.ID, 20, "admin-1", "again")
	if !errors.Is(err, domain.ErrRefundExceedsSpend) {
		t.Fatalf("error = %v, want ErrRefundExceedsSpend", err)
	}
}

func TestProcessManualRefundSettlesToRefunded(t *testing.T) {
	svc, repo, _ := newTestService(t)
	job := seedFailedJob(t, repo, 30)
	ctx := context.Background()

	if _, err := svc.ProcessManualRefund(ctx, job.ID, 30, "admin-1", "full settle"); err != nil {
		t.Fatalf("manual refund: %v", err)
	}
	stored, _ := repo.GetByID(ctx, job.ID)
	if stored.Status != domain.JobStatusRefunded {
		t.Fatalf("job status = %v, want REFUNDED", stored.Status)
	}
	if stored.CreditsRefunded != 30 {
		t.Fatalf("creditsRefunded = %d, want 30", stored.CreditsRefunded)
	}
}
