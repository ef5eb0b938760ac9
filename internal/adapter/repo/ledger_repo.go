package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/sqlinline"
)

// CreditLedgerPG implements domain.CreditLedger on PostgreSQL. Each mutation
// locks the user row, moves the balance and records the transaction in one
// database transaction, so the ledger and the balance can never disagree.
type CreditLedgerPG struct {
	pool *pgxpool.Pool
}

// NewCreditLedger creates a credit ledger backed by PostgreSQL.
func NewCreditLedger(pool *pgxpool.Pool) *CreditLedgerPG {
	return &CreditLedgerPG{pool: pool}
}

// Debit removes amount credits from the user.
func (l *CreditLedgerPG) Debit(ctx context.Context, userID string, amount int, txType domain.TransactionType, jobID, reason string) (*domain.Transaction, error) {
	return l.apply(ctx, userID, -amount, txType, jobID, reason)
}

// Credit adds amount credits to the user.
func (l *CreditLedgerPG) Credit(ctx context.Context, userID string, amount int, txType domain.TransactionType, jobID, reason string) (*domain.Transaction, error) {
	return l.apply(ctx, userID, amount, txType, jobID, reason)
}

// Balance returns the user's current credit balance.
func (l *CreditLedgerPG) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := l.pool.QueryRow(ctx, sqlinline.QLedgerBalance, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return balance, err
}

func (l *CreditLedgerPG) apply(ctx context.Context, userID string, delta int, txType domain.TransactionType, jobID, reason string) (*domain.Transaction, error) {
	if delta == 0 {
		return nil, fmt.Errorf("ledger: zero amount for %s", txType)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var before int
	if err := tx.QueryRow(ctx, sqlinline.QLedgerBalanceForUpdate, userID).Scan(&before); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock balance: %w", err)
	}

	after := before + delta
	if after < 0 {
		return nil, domain.ErrInsufficientCredits
	}

	if _, err := tx.Exec(ctx, sqlinline.QLedgerUpdateBalance, userID, after); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	record := &domain.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          txType,
		Amount:        delta,
		BalanceBefore: before,
		BalanceAfter:  after,
		JobID:         jobID,
		Reason:        reason,
	}
	err = tx.QueryRow(ctx, sqlinline.QLedgerInsertTransaction,
		record.ID,
		record.UserID,
		record.Type,
		record.Amount,
		record.BalanceBefore,
		record.BalanceAfter,
		record.JobID,
		record.Reason,
	).Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}
	return record, nil
}
