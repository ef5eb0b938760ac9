package domain

import "time"

// TransactionType enumerates credit ledger entry categories.
type TransactionType string

const (
	TxPurchase     TransactionType = "PURCHASE"
	TxJobDebit     TransactionType = "JOB_DEBIT"
	TxJobRefund    TransactionType = "JOB_REFUND"
	TxManualCredit TransactionType = "MANUAL_CREDIT"
	TxManualDebit  TransactionType = "MANUAL_DEBIT"
	TxBonus        TransactionType = "BONUS"
)

// Transaction is one append-only credit ledger entry.
//
// Invariant: BalanceAfter = BalanceBefore + Amount, and the user's stored
// balance always equals the BalanceAfter of their most recent transaction.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Type          TransactionType `json:"type"`
	Amount        int             `json:"amount"` // signed: debits negative, credits positive
	BalanceBefore int             `json:"balance_before"`
	BalanceAfter  int             `json:"balance_after"`
	JobID         string          `json:"job_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
