package services

import (
	"errors"
	"fmt"

	"github.com/skillforge/tournament-engine/models"
)

// Shared errors used across services and the HTTP mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business-rule errors.
	ErrValidationFailed             = errors.New("validation failed")
	ErrTournamentNameRequired       = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity    = errors.New("tournament max participants must be positive")
	ErrRewardPolicyRequired         = errors.New("tournament requires a reward policy snapshot")
	ErrInstructorRequired           = errors.New("tournament requires an assigned instructor")
	ErrEnrollmentMinimumNotMet      = errors.New("not enough confirmed enrollments to start")
	ErrLargeTournamentUnconfirmed   = errors.New("participant count exceeds the confirmation threshold")
	ErrCancellationTooLate          = errors.New("tournament cannot be cancelled after match play has started")
	ErrTournamentNotInProgress      = errors.New("tournament is not in progress")
	ErrRewardsNotReady              = errors.New("tournament has not completed yet")
	ErrGroupStageNotFinalized       = errors.New("group stage has not been finalized")
	ErrGroupStageAlreadyFinalized   = errors.New("group stage is already finalized")
	ErrGroupStageIncomplete         = errors.New("group stage sessions are missing results")
	ErrNotGroupKnockoutFormat       = errors.New("tournament is not a group+knockout tournament")
	ErrSessionNotReady              = errors.New("session is missing participants and cannot accept results")
	ErrResultAlreadyRecorded        = errors.New("session already carries results")
	ErrResultCountMismatch          = errors.New("result count does not match the session's required participant count")
	ErrResultParticipantMismatch    = errors.New("result references a participant not assigned to the session")
	ErrResultOutcomeInvalid         = errors.New("result payload has an invalid outcome shape")
	ErrLedgerReferenceInvalid       = errors.New("exactly one of participant and license reference must be set")
	ErrLedgerIdempotencyKeyRequired = errors.New("idempotency key is required")

	// Entity-specific not-found errors.
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrSessionNotFound    = errors.New("session not found")
)

// InvalidTransitionError reports an out-of-order state machine request. It
// always names both statuses so the caller can see what it asked for
// against what the tournament currently is.
type InvalidTransitionError struct {
	Current   models.TournamentStatus
	Requested models.TournamentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid tournament status transition: %s -> %s", e.Current, e.Requested)
}

// UnresolvedSessionsError blocks completion (or group-stage finalization)
// and names the sessions still waiting on participants or results.
type UnresolvedSessionsError struct {
	SessionIDs []int64
}

func (e *UnresolvedSessionsError) Error() string {
	return fmt.Sprintf("%d sessions are unresolved: %v", len(e.SessionIDs), e.SessionIDs)
}
