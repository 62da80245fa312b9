package brackets

import (
	"context"
	"fmt"
)

// KnockoutPhaseUIDPrefix namespaces knockout-phase UIDs so they cannot
// collide with group-stage UIDs of the same tournament.
const KnockoutPhaseUIDPrefix = "KO_"

type GroupKnockoutGenerator struct {
	knockout *KnockoutGenerator
}

func NewGroupKnockoutGenerator() *GroupKnockoutGenerator {
	return &GroupKnockoutGenerator{knockout: NewKnockoutGenerator()}
}

func (g *GroupKnockoutGenerator) Name() string { return "GroupKnockout" }

// Generate builds only the group stage: participants are partitioned into
// balanced groups (sizes differ by at most one) and each group plays an
// internal round robin. The knockout phase is produced later by the
// finalize-group-stage step, once group results exist, via
// GenerateKnockoutPhase on the qualifiers.
func (g *GroupKnockoutGenerator) Generate(_ context.Context, params GenerateParams) ([]*PlannedSession, error) {
	ids := params.ParticipantIDs
	numGroups := params.Params.NumGroups
	qualifiers := params.Params.QualifiersPerGroup

	if numGroups < 2 || numGroups > 26 {
		return nil, fmt.Errorf("%w: %d (must be between 2 and 26)", ErrInvalidGroupCount, numGroups)
	}
	if len(ids) < numGroups*2 {
		return nil, fmt.Errorf("%w: group+knockout with %d groups needs at least %d, found %d",
			ErrNotEnoughParticipants, numGroups, numGroups*2, len(ids))
	}
	smallestGroup := len(ids) / numGroups
	if qualifiers < 1 || qualifiers > smallestGroup {
		return nil, fmt.Errorf("%w: %d qualifiers per group, smallest group has %d members",
			ErrInvalidQualifierCount, qualifiers, smallestGroup)
	}

	groups := PartitionGroups(ids, numGroups)

	var sessions []*PlannedSession
	for gi, group := range groups {
		key := GroupKeyFor(gi)
		prefix := fmt.Sprintf("G%s_", key)
		sessions = append(sessions, generateRoundRobin(group, prefix, key, 0)...)
	}
	return sessions, nil
}

// GenerateKnockoutPhase seeds the knockout bracket from crossover-ordered
// qualifiers. roundOffset should be the last group-stage round number so
// knockout rounds continue the sequence.
func (g *GroupKnockoutGenerator) GenerateKnockoutPhase(qualifierIDs []int64, withBronze bool, roundOffset int) ([]*PlannedSession, error) {
	return g.knockout.GenerateKnockoutPhase(qualifierIDs, withBronze, KnockoutPhaseUIDPrefix, roundOffset)
}

// PartitionGroups splits participants into numGroups contiguous groups
// whose sizes differ by at most one.
func PartitionGroups(ids []int64, numGroups int) [][]int64 {
	base := len(ids) / numGroups
	extra := len(ids) % numGroups

	groups := make([][]int64, 0, numGroups)
	offset := 0
	for gi := 0; gi < numGroups; gi++ {
		size := base
		if gi < extra {
			size++
		}
		groups = append(groups, ids[offset:offset+size])
		offset += size
	}
	return groups
}

// GroupKeyFor returns the letter key of the gi-th group ("A", "B", ...).
func GroupKeyFor(gi int) string {
	return string(rune('A' + gi))
}

// CrossoverOrder arranges qualifiers for knockout seeding in rank-major
// order: every group's first finisher, then every group's second, and so
// on. Combined with the knockout generator's seed-i-versus-seed-(size-1-i)
// pairing, group winners meet runners-up from other groups in the first
// knockout round instead of rematching their own group.
func CrossoverOrder(qualifiersByGroup [][]int64) []int64 {
	maxRank := 0
	for _, group := range qualifiersByGroup {
		if len(group) > maxRank {
			maxRank = len(group)
		}
	}

	var seeds []int64
	for rank := 0; rank < maxRank; rank++ {
		for _, group := range qualifiersByGroup {
			if rank < len(group) {
				seeds = append(seeds, group[rank])
			}
		}
	}
	return seeds
}
