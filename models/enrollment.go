package models

import "time"

// EnrollmentStatus matches the enrollment status ENUM in the DB.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentConfirmed EnrollmentStatus = "confirmed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

// Enrollment is owned by the enrollment/payment subsystem; the engine only
// reads it to decide eligibility and to refund charged enrollments on
// cancellation. Unique per (tournament_id, participant_id).
type Enrollment struct {
	ID            int64            `json:"id" db:"id"`
	TournamentID  int64            `json:"tournament_id" db:"tournament_id"`
	ParticipantID int64            `json:"participant_id" db:"participant_id"`
	Status        EnrollmentStatus `json:"status" db:"status"`
	CostCharged   bool             `json:"cost_charged" db:"cost_charged"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
