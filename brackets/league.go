package brackets

import (
	"context"
	"fmt"

	"github.com/skillforge/tournament-engine/models"
)

// MaxLeagueParticipants caps the round-robin format. Session count grows
// quadratically; beyond this size the group+knockout format is the
// recommended alternative.
const MaxLeagueParticipants = 32

type LeagueGenerator struct{}

func NewLeagueGenerator() *LeagueGenerator {
	return &LeagueGenerator{}
}

func (g *LeagueGenerator) Name() string { return "League" }

// Generate builds a single round-robin via the Berger tabulation: one
// participant is fixed, the rest rotate, producing exactly n*(n-1)/2
// sessions where every unordered pair meets once and no participant plays
// twice in the same round. An odd roster gets a synthetic bye that rotates
// through the rounds and never produces a session.
func (g *LeagueGenerator) Generate(_ context.Context, params GenerateParams) ([]*PlannedSession, error) {
	n := len(params.ParticipantIDs)
	if n < 2 {
		return nil, fmt.Errorf("%w: league needs at least 2, found %d", ErrNotEnoughParticipants, n)
	}
	if n > MaxLeagueParticipants {
		return nil, fmt.Errorf("%w: %d participants, cap is %d", ErrLeagueTooLarge, n, MaxLeagueParticipants)
	}
	return generateRoundRobin(params.ParticipantIDs, "", "", 0), nil
}

// syntheticBye marks the empty seat added when the roster is odd.
const syntheticBye int64 = 0

// generateRoundRobin is the Berger tabulation shared by the league format
// and the group stage of group+knockout tournaments.
func generateRoundRobin(ids []int64, uidPrefix, groupKey string, roundOffset int) []*PlannedSession {
	seats := append([]int64(nil), ids...)
	if len(seats)%2 == 1 {
		seats = append(seats, syntheticBye)
	}
	numSeats := len(seats)
	numRounds := numSeats - 1

	sessions := make([]*PlannedSession, 0, len(ids)*(len(ids)-1)/2)

	for round := 1; round <= numRounds; round++ {
		order := 0
		for i := 0; i < numSeats/2; i++ {
			home, away := seats[i], seats[numSeats-1-i]
			if home == syntheticBye || away == syntheticBye {
				continue
			}
			order++
			session := &PlannedSession{
				UID:                  fmt.Sprintf("%sR%dM%d", uidPrefix, round, order),
				Phase:                models.PhaseGroupStage,
				Round:                roundOffset + round,
				OrderInRound:         order,
				GroupKey:             groupKey,
				ParticipantIDs:       []int64{home, away},
				RequiredParticipants: 2,
			}
			sessions = append(sessions, session)
		}

		// Rotate clockwise around the fixed first seat.
		last := seats[numSeats-1]
		copy(seats[2:], seats[1:numSeats-1])
		seats[1] = last
	}

	return sessions
}
