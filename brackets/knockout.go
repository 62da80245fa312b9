package brackets

import (
	"context"
	"fmt"
	"math"

	"github.com/skillforge/tournament-engine/models"
)

type KnockoutGenerator struct{}

func NewKnockoutGenerator() *KnockoutGenerator {
	return &KnockoutGenerator{}
}

func (g *KnockoutGenerator) Name() string { return "Knockout" }

// Generate builds a single-elimination plan: ceil(log2(n)) rounds and
// exactly n-1 match sessions, plus an optional bronze session. Round 1
// pairs seed i with seed (size-1-i); seeds beyond n are byes, and a bye's
// opponent is pre-seeded directly into its round-2 slot instead of playing
// a placeholder match.
func (g *KnockoutGenerator) Generate(_ context.Context, params GenerateParams) ([]*PlannedSession, error) {
	return g.generate(params.ParticipantIDs, params.Params.WithBronzeMatch, "", 0)
}

// GenerateKnockoutPhase builds the knockout portion of a group+knockout
// tournament. Rounds are numbered after roundOffset so round numbers keep
// increasing along the dependency chain, and UIDs get the given prefix so
// they cannot collide with group-stage UIDs.
func (g *KnockoutGenerator) GenerateKnockoutPhase(qualifierIDs []int64, withBronze bool, uidPrefix string, roundOffset int) ([]*PlannedSession, error) {
	return g.generate(qualifierIDs, withBronze, uidPrefix, roundOffset)
}

type knockoutSlot struct {
	participantID int64
	occupied      bool
}

func (g *KnockoutGenerator) generate(ids []int64, withBronze bool, uidPrefix string, roundOffset int) ([]*PlannedSession, error) {
	n := len(ids)
	if n < 2 {
		return nil, fmt.Errorf("%w: knockout needs at least 2, found %d", ErrNotEnoughParticipants, n)
	}

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	bracketSize := 1 << uint(numRounds)

	current := make([]knockoutSlot, bracketSize)
	for i, id := range ids {
		current[i] = knockoutSlot{participantID: id, occupied: true}
	}

	uid := func(round, match int) string {
		return fmt.Sprintf("%sR%dM%d", uidPrefix, round, match)
	}

	sessions := make([]*PlannedSession, 0, n-1)

	for round := 1; round <= numRounds; round++ {
		numPairs := len(current) / 2
		next := make([]knockoutSlot, numPairs)

		for i := 0; i < numPairs; i++ {
			low, high := current[i], current[len(current)-1-i]

			if round == 1 {
				// A missing opponent is a bye: no session, the
				// participant is pre-seeded into the next round.
				if low.occupied && !high.occupied {
					next[i] = low
					continue
				}
				if high.occupied && !low.occupied {
					next[i] = high
					continue
				}
				if !low.occupied && !high.occupied {
					return nil, fmt.Errorf("two empty seeds met in round 1 pair %d for %d participants", i+1, n)
				}
			}

			session := &PlannedSession{
				UID:                  uid(round, i+1),
				Phase:                models.PhaseKnockout,
				Round:                roundOffset + round,
				OrderInRound:         i + 1,
				RequiredParticipants: 2,
			}
			if low.occupied {
				session.ParticipantIDs = append(session.ParticipantIDs, low.participantID)
			}
			if high.occupied {
				session.ParticipantIDs = append(session.ParticipantIDs, high.participantID)
			}

			if round < numRounds {
				// Winner of pair i takes slot i of the next round's
				// numPairs slots; pair j there combines slots j and
				// numPairs-1-j, so the target pair is min(i, numPairs-1-i).
				target := i
				if numPairs-1-i < target {
					target = numPairs - 1 - i
				}
				slot := 1
				if target != i {
					slot = 2
				}
				nextUID := uid(round+1, target+1)
				session.NextUID = &nextUID
				session.WinnerSlot = &slot
			}

			sessions = append(sessions, session)
		}
		current = next
	}

	if withBronze && numRounds >= 2 {
		if bronze := g.bronzeSession(sessions, uidPrefix, roundOffset, numRounds); bronze != nil {
			sessions = append(sessions, bronze)
		}
	}

	return sessions, nil
}

// bronzeSession builds the third-place session and wires the semifinal
// losers into it. Returns nil when a semifinal slot was decided by a bye,
// since there would be only one loser to seed.
func (g *KnockoutGenerator) bronzeSession(sessions []*PlannedSession, uidPrefix string, roundOffset, numRounds int) *PlannedSession {
	semifinalRound := roundOffset + numRounds - 1
	var semifinals []*PlannedSession
	for _, s := range sessions {
		if s.Round == semifinalRound {
			semifinals = append(semifinals, s)
		}
	}
	if len(semifinals) != 2 {
		return nil
	}

	bronzeUID := uidPrefix + models.BronzeSessionUID
	for i, semifinal := range semifinals {
		slot := i + 1
		semifinal.LoserNextUID = &bronzeUID
		semifinal.LoserSlot = &slot
	}

	return &PlannedSession{
		UID:                  bronzeUID,
		Phase:                models.PhaseKnockout,
		Round:                roundOffset + numRounds,
		OrderInRound:         2,
		RequiredParticipants: 2,
	}
}
