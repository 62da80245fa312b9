package models

import "time"

// TournamentFormat matches the format ENUM in the DB.
type TournamentFormat string

const (
	FormatKnockout      TournamentFormat = "knockout"
	FormatLeague        TournamentFormat = "league"
	FormatGroupKnockout TournamentFormat = "group_knockout"
	FormatIndividual    TournamentFormat = "individual"
)

// TournamentStatus matches the status ENUM in the DB.
// Statuses advance strictly in the order below; cancelled is a one-way
// side branch reachable from any non-terminal status.
type TournamentStatus string

const (
	StatusDraft                       TournamentStatus = "draft"
	StatusSeekingInstructor           TournamentStatus = "seeking_instructor"
	StatusPendingInstructorAcceptance TournamentStatus = "pending_instructor_acceptance"
	StatusReadyForEnrollment          TournamentStatus = "ready_for_enrollment"
	StatusOpenForEnrollment           TournamentStatus = "open_for_enrollment"
	StatusInProgress                  TournamentStatus = "in_progress"
	StatusCompleted                   TournamentStatus = "completed"
	StatusRewardsDistributed          TournamentStatus = "rewards_distributed"
	StatusCancelled                   TournamentStatus = "cancelled"
)

var statusOrder = map[TournamentStatus]int{
	StatusDraft:                       0,
	StatusSeekingInstructor:           1,
	StatusPendingInstructorAcceptance: 2,
	StatusReadyForEnrollment:          3,
	StatusOpenForEnrollment:           4,
	StatusInProgress:                  5,
	StatusCompleted:                   6,
	StatusRewardsDistributed:          7,
}

// Order returns the position of the status in the forward chain,
// or -1 for cancelled.
func (s TournamentStatus) Order() int {
	order, ok := statusOrder[s]
	if !ok {
		return -1
	}
	return order
}

func (s TournamentStatus) IsTerminal() bool {
	return s == StatusRewardsDistributed || s == StatusCancelled
}

// CanTransition reports whether moving from one status to another is a
// structurally valid step: either the next status in the forward chain, or
// the cancelled branch from a non-terminal status. Business guards
// (enrollment minimums, results present, refund window) are enforced by the
// tournament service on top of this.
func CanTransition(from, to TournamentStatus) bool {
	if to == StatusCancelled {
		return !from.IsTerminal()
	}
	fromOrder, toOrder := from.Order(), to.Order()
	if fromOrder < 0 || toOrder < 0 {
		return false
	}
	return toOrder == fromOrder+1
}

// FormatParams holds per-format generation settings, stored as JSONB.
type FormatParams struct {
	WithBronzeMatch    bool   `json:"with_bronze_match,omitempty"`
	NumGroups          int    `json:"num_groups,omitempty"`
	QualifiersPerGroup int    `json:"qualifiers_per_group,omitempty"`
	NumRounds          int    `json:"num_rounds,omitempty"`
	ScoringRule        string `json:"scoring_rule,omitempty"` // "sum" or "best", individual format only
}

// Tournament is the aggregate root of the engine. Once the status advances
// past open_for_enrollment, MaxParticipants and RewardPolicy are frozen.
type Tournament struct {
	ID               int64                 `json:"id" db:"id"`
	Name             string                `json:"name" db:"name"`
	TournamentTypeID int64                 `json:"tournament_type_id" db:"tournament_type_id"`
	Format           TournamentFormat      `json:"format" db:"format"`
	Status           TournamentStatus      `json:"status" db:"status"`
	InstructorID     *int64                `json:"instructor_id,omitempty" db:"instructor_id"`
	MaxParticipants  int                   `json:"max_participants" db:"max_participants"`
	EnrollmentCost   int                   `json:"enrollment_cost" db:"enrollment_cost"`
	FormatParams     FormatParams          `json:"format_params" db:"format_params"`
	RewardPolicy     *RewardPolicySnapshot `json:"reward_policy_snapshot" db:"reward_policy_snapshot"`
	RegDate          time.Time             `json:"reg_date" db:"reg_date"`
	StartDate        time.Time             `json:"start_date" db:"start_date"`
	CreatedAt        time.Time             `json:"created_at" db:"created_at"`

	// Loaded on demand, not mapped directly.
	Sessions []Session `json:"sessions,omitempty" db:"-"`
}

// MinParticipants returns the smallest roster the format can start with.
func (t *Tournament) MinParticipants() int {
	if t.Format == FormatGroupKnockout {
		numGroups := t.FormatParams.NumGroups
		if numGroups < 2 {
			numGroups = 2
		}
		// every group needs at least two members
		return numGroups * 2
	}
	return 2
}
