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

var ErrSkillProfileNotFound = errors.New("skill profile not found")

// SkillProfileRepository exposes a bulk lookup so the reward orchestrator
// can prefetch every profile it needs before its main loop instead of
// issuing one query per participant.
type SkillProfileRepository interface {
	ListByParticipantIDs(ctx context.Context, participantIDs []int64) ([]*models.SkillProfile, error)
	// ApplyDeltas adds the deltas to the participant's ratings exactly once
	// per applicationKey. Returns true when this call performed the update,
	// false when the key was already applied.
	ApplyDeltas(ctx context.Context, participantID int64, applicationKey string, deltas map[string]int) (bool, error)
}

type postgresSkillProfileRepository struct {
	db *sql.DB
}

func NewPostgresSkillProfileRepository(db *sql.DB) SkillProfileRepository {
	return &postgresSkillProfileRepository{db: db}
}

func (r *postgresSkillProfileRepository) ListByParticipantIDs(ctx context.Context, participantIDs []int64) ([]*models.SkillProfile, error) {
	if len(participantIDs) == 0 {
		return []*models.SkillProfile{}, nil
	}

	query := `
		SELECT id, participant_id, ratings, updated_at
		FROM skill_profiles
		WHERE participant_id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(participantIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query skill profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.SkillProfile, 0, len(participantIDs))
	for rows.Next() {
		p := &models.SkillProfile{}
		var ratingsJSON []byte
		if scanErr := rows.Scan(&p.ID, &p.ParticipantID, &ratingsJSON, &p.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan skill profile row: %w", scanErr)
		}
		p.Ratings = map[string]int{}
		if len(ratingsJSON) > 0 {
			if err := json.Unmarshal(ratingsJSON, &p.Ratings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ratings for participant %d: %w", p.ParticipantID, err)
			}
		}
		profiles = append(profiles, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during skill profile rows iteration: %w", err)
	}
	return profiles, nil
}

func (r *postgresSkillProfileRepository) ApplyDeltas(ctx context.Context, participantID int64, applicationKey string, deltas map[string]int) (bool, error) {
	if len(deltas) == 0 {
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin skill rating transaction: %w", err)
	}
	defer tx.Rollback()

	// The marker row and the ratings update commit together, so the key is
	// claimed exactly when the deltas land.
	markerQuery := `
		INSERT INTO skill_rating_applications (application_key, participant_id, applied_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (application_key) DO NOTHING`
	result, err := tx.ExecContext(ctx, markerQuery, applicationKey, participantID)
	if err != nil {
		return false, fmt.Errorf("failed to record skill rating application %s: %w", applicationKey, err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to inspect skill rating application %s: %w", applicationKey, err)
	}
	if inserted == 0 {
		return false, nil
	}

	var ratingsJSON []byte
	row := tx.QueryRowContext(ctx,
		`SELECT ratings FROM skill_profiles WHERE participant_id = $1 FOR UPDATE`, participantID)
	if err := row.Scan(&ratingsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: participant %d", ErrSkillProfileNotFound, participantID)
		}
		return false, fmt.Errorf("failed to load ratings for participant %d: %w", participantID, err)
	}

	ratings := map[string]int{}
	if len(ratingsJSON) > 0 {
		if err := json.Unmarshal(ratingsJSON, &ratings); err != nil {
			return false, fmt.Errorf("failed to unmarshal ratings for participant %d: %w", participantID, err)
		}
	}
	for skill, delta := range deltas {
		ratings[skill] += delta
	}
	updatedJSON, err := json.Marshal(ratings)
	if err != nil {
		return false, fmt.Errorf("failed to marshal ratings for participant %d: %w", participantID, err)
	}

	query := `UPDATE skill_profiles SET ratings = $1, updated_at = NOW() WHERE participant_id = $2`
	if _, err := tx.ExecContext(ctx, query, updatedJSON, participantID); err != nil {
		return false, fmt.Errorf("failed to update skill profile for participant %d: %w", participantID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit skill rating update for participant %d: %w", participantID, err)
	}
	return true, nil
}
