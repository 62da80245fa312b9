package models

import "time"

// TransactionType is the business reason for a credit transaction.
type TransactionType string

const (
	TxReward           TransactionType = "reward"
	TxEnrollmentCharge TransactionType = "enrollment_charge"
	TxEnrollmentRefund TransactionType = "enrollment_refund"
	TxAdjustment       TransactionType = "adjustment"
)

// CreditTransaction is one row of the append-only credit ledger. Exactly
// one of ParticipantID and LicenseID is set. Rows are created once, never
// mutated, never deleted; the unique constraint on IdempotencyKey is the
// ledger's sole concurrency-safety mechanism.
type CreditTransaction struct {
	ID             string          `json:"id" db:"id"`
	ParticipantID  *int64          `json:"participant_id,omitempty" db:"participant_id"`
	LicenseID      *int64          `json:"license_id,omitempty" db:"license_id"`
	Type           TransactionType `json:"transaction_type" db:"transaction_type"`
	Amount         int             `json:"amount" db:"amount"`
	BalanceAfter   int             `json:"balance_after" db:"balance_after"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	Description    *string         `json:"description,omitempty" db:"description"`
	TournamentID   *int64          `json:"tournament_id,omitempty" db:"tournament_id"`
	EnrollmentID   *int64          `json:"enrollment_id,omitempty" db:"enrollment_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
