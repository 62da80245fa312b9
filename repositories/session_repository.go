package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/skillforge/tournament-engine/models"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionAlreadyResolved = errors.New("session already carries results")
)

type SessionRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, sessions []*models.Session) error
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]*models.Session, error)
	// SetResults writes a result payload once; a second write fails with
	// ErrSessionAlreadyResolved.
	SetResults(ctx context.Context, exec SQLExecutor, id int64, results *models.SessionResults) error
	UpdateParticipants(ctx context.Context, exec SQLExecutor, id int64, participantIDs []int64) error
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

const sessionColumns = `
	id, tournament_id, phase, round_number, order_in_round, bracket_uid,
	group_key, participant_ids, required_participants, results, status,
	next_uid, winner_slot, loser_next_uid, loser_slot, created_at`

func (r *postgresSessionRepository) CreateBatch(ctx context.Context, exec SQLExecutor, sessions []*models.Session) error {
	query := `
		INSERT INTO sessions
			(tournament_id, phase, round_number, order_in_round, bracket_uid,
			 group_key, participant_ids, required_participants, status,
			 next_uid, winner_slot, loser_next_uid, loser_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	for _, s := range sessions {
		err := exec.QueryRowContext(ctx, query,
			s.TournamentID,
			s.Phase,
			s.RoundNumber,
			s.OrderInRound,
			s.BracketUID,
			s.GroupKey,
			pq.Array(s.ParticipantIDs),
			s.RequiredParticipants,
			s.Status,
			s.NextUID,
			s.WinnerSlot,
			s.LoserNextUID,
			s.LoserSlot,
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert session %s for tournament %d: %w", s.BracketUID, s.TournamentID, err)
		}
	}
	return nil
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	query := `SELECT` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session %d: %w", id, err)
	}
	return s, nil
}

func (r *postgresSessionRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]*models.Session, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT` + sessionColumns + ` FROM sessions WHERE tournament_id = $1 ORDER BY round_number, order_in_round, id`
	rows, err := exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		s, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", scanErr)
		}
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during session rows iteration: %w", err)
	}
	return sessions, nil
}

func (r *postgresSessionRepository) SetResults(ctx context.Context, exec SQLExecutor, id int64, results *models.SessionResults) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results for session %d: %w", id, err)
	}

	// results IS NULL makes the write-once rule hold even under
	// concurrent submissions.
	query := `UPDATE sessions SET results = $1, status = $2 WHERE id = $3 AND results IS NULL`
	result, err := exec.ExecContext(ctx, query, resultsJSON, models.SessionCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to set results for session %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSessionAlreadyResolved)
}

func (r *postgresSessionRepository) UpdateParticipants(ctx context.Context, exec SQLExecutor, id int64, participantIDs []int64) error {
	query := `UPDATE sessions SET participant_ids = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, pq.Array(participantIDs), id)
	if err != nil {
		return fmt.Errorf("failed to update participants for session %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func scanSession(row rowScanner) (*models.Session, error) {
	s := &models.Session{}
	var participantIDs pq.Int64Array
	var resultsJSON []byte

	err := row.Scan(
		&s.ID,
		&s.TournamentID,
		&s.Phase,
		&s.RoundNumber,
		&s.OrderInRound,
		&s.BracketUID,
		&s.GroupKey,
		&participantIDs,
		&s.RequiredParticipants,
		&resultsJSON,
		&s.Status,
		&s.NextUID,
		&s.WinnerSlot,
		&s.LoserNextUID,
		&s.LoserSlot,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ParticipantIDs = []int64(participantIDs)
	if len(resultsJSON) > 0 {
		results := &models.SessionResults{}
		if err := json.Unmarshal(resultsJSON, results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results for session %d: %w", s.ID, err)
		}
		s.Results = results
	}
	return s, nil
}
