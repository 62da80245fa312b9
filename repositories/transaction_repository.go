package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/skillforge/tournament-engine/models"
)

var (
	ErrTransactionNotFound = errors.New("credit transaction not found")
	// ErrTransactionKeyConflict marks a lost race on the idempotency key
	// unique constraint. It is an expected branch for the ledger service,
	// which resolves it by re-reading the winning row.
	ErrTransactionKeyConflict = errors.New("idempotency key already exists")
)

const pqUniqueViolation = "23505"

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.CreditTransaction) error
	GetByIdempotencyKey(ctx context.Context, key string) (*models.CreditTransaction, error)
	// LastBalance returns the balance_after of the reference's most recent
	// transaction, or 0 when none exists.
	LastBalance(ctx context.Context, participantID, licenseID *int64) (int, error)
}

type postgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) TransactionRepository {
	return &postgresTransactionRepository{db: db}
}

func (r *postgresTransactionRepository) Create(ctx context.Context, tx *models.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions
			(id, participant_id, license_id, transaction_type, amount,
			 balance_after, idempotency_key, description, tournament_id, enrollment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		tx.ID,
		tx.ParticipantID,
		tx.LicenseID,
		tx.Type,
		tx.Amount,
		tx.BalanceAfter,
		tx.IdempotencyKey,
		tx.Description,
		tx.TournamentID,
		tx.EnrollmentID,
	).Scan(&tx.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%w: %s", ErrTransactionKeyConflict, tx.IdempotencyKey)
		}
		return fmt.Errorf("failed to insert credit transaction: %w", err)
	}
	return nil
}

func (r *postgresTransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.CreditTransaction, error) {
	query := `
		SELECT id, participant_id, license_id, transaction_type, amount,
		       balance_after, idempotency_key, description, tournament_id,
		       enrollment_id, created_at
		FROM credit_transactions
		WHERE idempotency_key = $1`

	tx := &models.CreditTransaction{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&tx.ID,
		&tx.ParticipantID,
		&tx.LicenseID,
		&tx.Type,
		&tx.Amount,
		&tx.BalanceAfter,
		&tx.IdempotencyKey,
		&tx.Description,
		&tx.TournamentID,
		&tx.EnrollmentID,
		&tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan credit transaction by key %s: %w", key, err)
	}
	return tx, nil
}

func (r *postgresTransactionRepository) LastBalance(ctx context.Context, participantID, licenseID *int64) (int, error) {
	var query string
	var ref int64
	switch {
	case participantID != nil:
		query = `SELECT balance_after FROM credit_transactions WHERE participant_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
		ref = *participantID
	case licenseID != nil:
		query = `SELECT balance_after FROM credit_transactions WHERE license_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
		ref = *licenseID
	default:
		return 0, fmt.Errorf("last balance query requires a reference")
	}

	var balance int
	err := r.db.QueryRowContext(ctx, query, ref).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query last balance: %w", err)
	}
	return balance, nil
}
