package models

import "time"

// PlacementTier is the bucket used to look up reward amounts from a policy
// snapshot.
type PlacementTier string

const (
	TierFirst       PlacementTier = "first"
	TierSecond      PlacementTier = "second"
	TierThird       PlacementTier = "third"
	TierParticipant PlacementTier = "participant"
)

// DefaultTierCutoffs is the standard podium: ranks 1, 2 and 3 take the
// named tiers, everyone below is rewarded as a participant.
var DefaultTierCutoffs = map[PlacementTier]int{
	TierFirst:  1,
	TierSecond: 2,
	TierThird:  3,
}

// RewardAmount is the payout for a single placement tier.
type RewardAmount struct {
	XP          int            `json:"xp"`
	Credits     int            `json:"credits"`
	SkillPoints map[string]int `json:"skill_points,omitempty"`
}

// RewardPolicySnapshot is an immutable copy of the reward policy captured
// when the tournament is created. The orchestrator only ever reads this
// snapshot, never a live policy table, so reward calculation stays
// reproducible after later policy changes.
type RewardPolicySnapshot struct {
	Placements  map[PlacementTier]RewardAmount `json:"placements"`
	TierCutoffs map[PlacementTier]int          `json:"tier_cutoffs,omitempty"`
	CapturedAt  time.Time                      `json:"captured_at"`
}

// TierForRank maps a final rank to its placement tier. Each cutoff is the
// highest rank its tier still covers, so a policy can widen the podium
// (e.g. third covering ranks 3 through 5). Snapshots without cutoffs use
// DefaultTierCutoffs.
func (s *RewardPolicySnapshot) TierForRank(rank int) PlacementTier {
	cutoffs := s.TierCutoffs
	if len(cutoffs) == 0 {
		cutoffs = DefaultTierCutoffs
	}
	for _, tier := range []PlacementTier{TierFirst, TierSecond, TierThird} {
		if limit, ok := cutoffs[tier]; ok && rank <= limit {
			return tier
		}
	}
	return TierParticipant
}

// AmountFor returns the payout for a tier, falling back to the participant
// tier when the snapshot does not define the requested one.
func (s *RewardPolicySnapshot) AmountFor(tier PlacementTier) RewardAmount {
	if amount, ok := s.Placements[tier]; ok {
		return amount
	}
	return s.Placements[TierParticipant]
}
