package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skillforge/tournament-engine/models"
	"github.com/skillforge/tournament-engine/repositories"
)

// CreateTransactionParams describes one ledger write. Exactly one of
// ParticipantID and LicenseID must be set.
type CreateTransactionParams struct {
	ParticipantID  *int64
	LicenseID      *int64
	Type           models.TransactionType
	Amount         int
	Description    *string
	IdempotencyKey string
	TournamentID   *int64
	EnrollmentID   *int64
}

// LedgerService is the only writer of balance-changing records. The bool
// return reports whether a new transaction was created; when the
// idempotency key was already used, the existing transaction is returned
// unchanged regardless of the parameters passed — the first write wins.
type LedgerService interface {
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.CreditTransaction, bool, error)
}

type ledgerService struct {
	transactionRepo repositories.TransactionRepository
}

func NewLedgerService(transactionRepo repositories.TransactionRepository) LedgerService {
	return &ledgerService{transactionRepo: transactionRepo}
}

func (s *ledgerService) CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.CreditTransaction, bool, error) {
	if (params.ParticipantID == nil) == (params.LicenseID == nil) {
		return nil, false, ErrLedgerReferenceInvalid
	}
	if params.IdempotencyKey == "" {
		return nil, false, ErrLedgerIdempotencyKeyRequired
	}

	existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, params.IdempotencyKey)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, false, fmt.Errorf("failed to look up transaction by idempotency key: %w", err)
	}

	balance, err := s.transactionRepo.LastBalance(ctx, params.ParticipantID, params.LicenseID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read last balance: %w", err)
	}

	tx := &models.CreditTransaction{
		ID:             uuid.NewString(),
		ParticipantID:  params.ParticipantID,
		LicenseID:      params.LicenseID,
		Type:           params.Type,
		Amount:         params.Amount,
		BalanceAfter:   balance + params.Amount,
		IdempotencyKey: params.IdempotencyKey,
		Description:    params.Description,
		TournamentID:   params.TournamentID,
		EnrollmentID:   params.EnrollmentID,
	}

	err = s.transactionRepo.Create(ctx, tx)
	if err == nil {
		return tx, true, nil
	}
	if !errors.Is(err, repositories.ErrTransactionKeyConflict) {
		return nil, false, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Lost an insert race on the unique idempotency key. The winning row
	// is the transaction; return it instead of surfacing the conflict.
	winner, readErr := s.transactionRepo.GetByIdempotencyKey(ctx, params.IdempotencyKey)
	if readErr != nil {
		return nil, false, fmt.Errorf("failed to re-read transaction after key conflict: %w", readErr)
	}
	return winner, false, nil
}
