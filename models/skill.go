package models

import "time"

// SkillProfile holds a participant's per-skill ratings. The reward
// orchestrator applies the snapshot's skill-point awards to it and records
// the applied delta on the distribution report.
type SkillProfile struct {
	ID            int64          `json:"id" db:"id"`
	ParticipantID int64          `json:"participant_id" db:"participant_id"`
	Ratings       map[string]int `json:"ratings" db:"ratings"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}
