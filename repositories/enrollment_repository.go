package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillforge/tournament-engine/models"
)

// EnrollmentRepository is read-mostly from the engine's point of view:
// enrollments are owned by the enrollment/payment subsystem, the engine
// reads them for eligibility and marks refunds on cancellation.
type EnrollmentRepository interface {
	CountByTournamentAndStatus(ctx context.Context, exec SQLExecutor, tournamentID int64, status models.EnrollmentStatus) (int, error)
	ListByTournamentAndStatus(ctx context.Context, exec SQLExecutor, tournamentID int64, status models.EnrollmentStatus) ([]*models.Enrollment, error)
}

type postgresEnrollmentRepository struct {
	db *sql.DB
}

func NewPostgresEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &postgresEnrollmentRepository{db: db}
}

func (r *postgresEnrollmentRepository) CountByTournamentAndStatus(ctx context.Context, exec SQLExecutor, tournamentID int64, status models.EnrollmentStatus) (int, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT COUNT(*) FROM enrollments WHERE tournament_id = $1 AND status = $2`
	var count int
	if err := exec.QueryRowContext(ctx, query, tournamentID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count enrollments for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresEnrollmentRepository) ListByTournamentAndStatus(ctx context.Context, exec SQLExecutor, tournamentID int64, status models.EnrollmentStatus) ([]*models.Enrollment, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		SELECT id, tournament_id, participant_id, status, cost_charged, created_at
		FROM enrollments
		WHERE tournament_id = $1 AND status = $2
		ORDER BY id`

	rows, err := exec.QueryContext(ctx, query, tournamentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0)
	for rows.Next() {
		e := &models.Enrollment{}
		if scanErr := rows.Scan(&e.ID, &e.TournamentID, &e.ParticipantID, &e.Status, &e.CostCharged, &e.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", scanErr)
		}
		enrollments = append(enrollments, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during enrollment rows iteration: %w", err)
	}
	return enrollments, nil
}
