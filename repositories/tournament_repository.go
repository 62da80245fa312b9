package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skillforge/tournament-engine/models"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentStatusConflict = errors.New("tournament status changed concurrently")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int64) (*models.Tournament, error)
	// GetByIDForUpdate locks the tournament row for the duration of the
	// surrounding transaction.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Tournament, error)
	// UpdateStatus writes the new status only if the row still carries the
	// expected one; a lost race surfaces as ErrTournamentStatusConflict.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int64, from, to models.TournamentStatus) error
	// ListByStatusWithRegDateDue returns tournaments in the given status
	// whose registration date has passed; used by the scheduler.
	ListByStatusWithRegDateDue(ctx context.Context, status models.TournamentStatus, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, tournament_type_id, format, status, instructor_id,
	max_participants, enrollment_cost, format_params, reward_policy_snapshot,
	reg_date, start_date, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	paramsJSON, err := json.Marshal(t.FormatParams)
	if err != nil {
		return fmt.Errorf("failed to marshal format params: %w", err)
	}
	policyJSON, err := json.Marshal(t.RewardPolicy)
	if err != nil {
		return fmt.Errorf("failed to marshal reward policy snapshot: %w", err)
	}

	query := `
		INSERT INTO tournaments
			(name, tournament_type_id, format, status, instructor_id,
			 max_participants, enrollment_cost, format_params, reward_policy_snapshot,
			 reg_date, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		t.Name,
		t.TournamentTypeID,
		t.Format,
		t.Status,
		t.InstructorID,
		t.MaxParticipants,
		t.EnrollmentCost,
		paramsJSON,
		policyJSON,
		t.RegDate,
		t.StartDate,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int64) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return r.scanTournament(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int64, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`
	result, err := exec.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

func (r *postgresTournamentRepository) ListByStatusWithRegDateDue(ctx context.Context, status models.TournamentStatus, now time.Time) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE status = $1 AND reg_date <= $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, status, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments by status %s: %w", status, err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := r.scanTournamentRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresTournamentRepository) scanTournament(row *sql.Row) (*models.Tournament, error) {
	t, err := scanTournamentFields(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) scanTournamentRow(rows *sql.Rows) (*models.Tournament, error) {
	t, err := scanTournamentFields(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tournament row: %w", err)
	}
	return t, nil
}

func scanTournamentFields(row rowScanner) (*models.Tournament, error) {
	t := &models.Tournament{}
	var paramsJSON, policyJSON []byte

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.TournamentTypeID,
		&t.Format,
		&t.Status,
		&t.InstructorID,
		&t.MaxParticipants,
		&t.EnrollmentCost,
		&paramsJSON,
		&policyJSON,
		&t.RegDate,
		&t.StartDate,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &t.FormatParams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal format params for tournament %d: %w", t.ID, err)
		}
	}
	if len(policyJSON) > 0 {
		policy := &models.RewardPolicySnapshot{}
		if err := json.Unmarshal(policyJSON, policy); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reward policy for tournament %d: %w", t.ID, err)
		}
		t.RewardPolicy = policy
	}
	return t, nil
}
