package models

import "time"

type SessionPhase string

const (
	PhaseGroupStage SessionPhase = "group_stage"
	PhaseKnockout   SessionPhase = "knockout"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
)

// BronzeSessionUID is the bracket UID of the optional third-place session.
const BronzeSessionUID = "BRONZE"

type ParticipantOutcome string

const (
	OutcomeWin  ParticipantOutcome = "win"
	OutcomeLoss ParticipantOutcome = "loss"
)

// ParticipantResult is one participant's entry in a session result payload.
// Head-to-head sessions carry Outcome (exactly one win and one loss);
// individual sessions carry Placement and/or Score.
type ParticipantResult struct {
	ParticipantID int64               `json:"participant_id"`
	Outcome       *ParticipantOutcome `json:"outcome,omitempty"`
	Placement     *int                `json:"placement,omitempty"`
	Score         *int                `json:"score,omitempty"`
}

// SessionResults is the write-once result payload of a session, stored as
// JSONB. Corrections require a separate amend path which the engine does
// not provide.
type SessionResults struct {
	Entries []ParticipantResult `json:"entries"`
}

// ByParticipant indexes the result entries by participant id.
func (r *SessionResults) ByParticipant() map[int64]ParticipantResult {
	out := make(map[int64]ParticipantResult, len(r.Entries))
	for _, e := range r.Entries {
		out[e.ParticipantID] = e
	}
	return out
}

// Session is a single match (or, for the individual format, a scored round)
// belonging to exactly one tournament. ParticipantIDs may be shorter than
// RequiredParticipants until a prior round resolves; such a session cannot
// accept results. NextUID/WinnerSlot and LoserNextUID/LoserSlot wire
// knockout advancement: the winner (and, for semifinals with a bronze
// match, the loser) always feeds a deterministic slot of a later session.
type Session struct {
	ID                   int64           `json:"id" db:"id"`
	TournamentID         int64           `json:"tournament_id" db:"tournament_id"`
	Phase                SessionPhase    `json:"phase" db:"phase"`
	RoundNumber          int             `json:"round_number" db:"round_number"`
	OrderInRound         int             `json:"order_in_round" db:"order_in_round"`
	BracketUID           string          `json:"bracket_uid" db:"bracket_uid"`
	GroupKey             *string         `json:"group_key,omitempty" db:"group_key"`
	ParticipantIDs       []int64         `json:"participant_ids" db:"participant_ids"`
	RequiredParticipants int             `json:"required_participants" db:"required_participants"`
	Results              *SessionResults `json:"results" db:"results"`
	Status               SessionStatus   `json:"status" db:"status"`
	NextUID              *string         `json:"next_uid,omitempty" db:"next_uid"`
	WinnerSlot           *int            `json:"winner_slot,omitempty" db:"winner_slot"`
	LoserNextUID         *string         `json:"loser_next_uid,omitempty" db:"loser_next_uid"`
	LoserSlot            *int            `json:"loser_slot,omitempty" db:"loser_slot"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// HasResults reports whether a result payload has been recorded.
func (s *Session) HasResults() bool {
	return s.Results != nil && len(s.Results.Entries) > 0
}

// IsResolvable reports whether every required participant slot is assigned.
func (s *Session) IsResolvable() bool {
	return len(s.ParticipantIDs) >= s.RequiredParticipants
}

// WinnerID returns the participant recorded as the winner of a
// head-to-head session, or 0 if no result is present.
func (s *Session) WinnerID() int64 {
	if !s.HasResults() {
		return 0
	}
	for _, e := range s.Results.Entries {
		if e.Outcome != nil && *e.Outcome == OutcomeWin {
			return e.ParticipantID
		}
	}
	return 0
}

// LoserID returns the participant recorded as the loser of a head-to-head
// session, or 0 if no result is present.
func (s *Session) LoserID() int64 {
	if !s.HasResults() {
		return 0
	}
	for _, e := range s.Results.Entries {
		if e.Outcome != nil && *e.Outcome == OutcomeLoss {
			return e.ParticipantID
		}
	}
	return 0
}
