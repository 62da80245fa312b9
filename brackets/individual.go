package brackets

import (
	"context"
	"fmt"

	"github.com/skillforge/tournament-engine/models"
)

type IndividualGenerator struct{}

func NewIndividualGenerator() *IndividualGenerator {
	return &IndividualGenerator{}
}

func (g *IndividualGenerator) Name() string { return "Individual" }

// Generate builds the individual-ranking format: no pairwise matches, just
// one session per round containing the whole roster. Every participant
// submits a placement or score per session and the individual calculator
// aggregates them by the configured scoring rule.
func (g *IndividualGenerator) Generate(_ context.Context, params GenerateParams) ([]*PlannedSession, error) {
	n := len(params.ParticipantIDs)
	if n < 2 {
		return nil, fmt.Errorf("%w: individual ranking needs at least 2, found %d", ErrNotEnoughParticipants, n)
	}

	numRounds := params.Params.NumRounds
	if numRounds < 1 {
		numRounds = 1
	}

	sessions := make([]*PlannedSession, 0, numRounds)
	for round := 1; round <= numRounds; round++ {
		sessions = append(sessions, &PlannedSession{
			UID:                  fmt.Sprintf("IR%d", round),
			Phase:                models.PhaseGroupStage,
			Round:                round,
			OrderInRound:         1,
			ParticipantIDs:       append([]int64(nil), params.ParticipantIDs...),
			RequiredParticipants: n,
		})
	}
	return sessions, nil
}
