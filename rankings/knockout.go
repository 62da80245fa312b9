package rankings

import (
	"sort"
	"strings"

	"github.com/skillforge/tournament-engine/models"
)

const (
	resultWin      = "win"
	resultRunnerUp = "runner_up"
	resultLoss     = "loss"
)

var knockoutResultPriority = map[string]int{
	resultWin:      0,
	resultRunnerUp: 1,
	resultLoss:     2,
}

type KnockoutCalculator struct{}

func NewKnockoutCalculator() *KnockoutCalculator {
	return &KnockoutCalculator{}
}

func (c *KnockoutCalculator) Name() string { return "HeadToHeadKnockout" }

// Rank orders participants by (furthest round reached, result in that
// round, score in that round). The bronze match does not advance anyone's
// round: it only refines the order of the two semifinal losers, so the
// finalists always rank above them. Ties share a rank; numbering continues
// at the next distinct group.
func (c *KnockoutCalculator) Rank(sessions []*models.Session) ([]models.RankingEntry, error) {
	type knockoutStanding struct {
		participantID int64
		roundReached  int
		result        string
		score         int
	}

	var completed []*models.Session
	var bronze *models.Session
	minRound, finalRound := 0, 0
	for _, s := range sessions {
		if s.Phase != models.PhaseKnockout {
			continue
		}
		if isBronzeSession(s) {
			if s.HasResults() {
				bronze = s
			}
			continue
		}
		if minRound == 0 || s.RoundNumber < minRound {
			minRound = s.RoundNumber
		}
		if s.RoundNumber > finalRound {
			finalRound = s.RoundNumber
		}
		if s.HasResults() {
			completed = append(completed, s)
		}
	}
	if len(completed) == 0 {
		return nil, ErrNoCompletedSessions
	}

	standings := make(map[int64]*knockoutStanding)
	for _, s := range completed {
		byParticipant := s.Results.ByParticipant()
		for participantID, result := range byParticipant {
			standing, ok := standings[participantID]
			if !ok {
				standing = &knockoutStanding{participantID: participantID}
				standings[participantID] = standing
			}
			if s.RoundNumber < standing.roundReached {
				continue
			}
			standing.roundReached = s.RoundNumber
			standing.score = 0
			if result.Score != nil {
				standing.score = *result.Score
			}
			switch {
			case result.Outcome != nil && *result.Outcome == models.OutcomeWin:
				standing.result = resultWin
			case s.RoundNumber == finalRound:
				standing.result = resultRunnerUp
			default:
				standing.result = resultLoss
			}
		}
	}

	// The bronze match upgrades its winner's outcome without moving
	// either participant past the semifinal round they were eliminated in.
	if bronze != nil {
		if winner, ok := standings[bronze.WinnerID()]; ok {
			winner.result = resultWin
		}
	}

	ordered := make([]*knockoutStanding, 0, len(standings))
	for _, standing := range standings {
		ordered = append(ordered, standing)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.roundReached != b.roundReached {
			return a.roundReached > b.roundReached
		}
		if knockoutResultPriority[a.result] != knockoutResultPriority[b.result] {
			return knockoutResultPriority[a.result] < knockoutResultPriority[b.result]
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.participantID < b.participantID
	})

	entries := make([]models.RankingEntry, 0, len(ordered))
	for _, standing := range ordered {
		entries = append(entries, models.RankingEntry{
			ParticipantID: standing.participantID,
			Stats: models.TieBreakStats{
				RoundReached:     standing.roundReached - minRound + 1,
				FinalResult:      standing.result,
				EliminationScore: standing.score,
			},
		})
	}
	assignRanks(entries, func(a, b models.RankingEntry) bool {
		return a.Stats.RoundReached == b.Stats.RoundReached &&
			a.Stats.FinalResult == b.Stats.FinalResult &&
			a.Stats.EliminationScore == b.Stats.EliminationScore
	})
	return entries, nil
}

func isBronzeSession(s *models.Session) bool {
	return strings.HasSuffix(s.BracketUID, models.BronzeSessionUID)
}
