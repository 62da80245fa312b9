package rankings

import (
	"github.com/skillforge/tournament-engine/models"
)

func intPtr(v int) *int { return &v }

func outcomePtr(o models.ParticipantOutcome) *models.ParticipantOutcome { return &o }

// headToHead builds a completed two-participant session. Scores of -1 are
// omitted from the result payload.
func headToHead(uid string, phase models.SessionPhase, round int, groupKey string, winner, loser int64, winScore, loseScore int) *models.Session {
	winnerEntry := models.ParticipantResult{ParticipantID: winner, Outcome: outcomePtr(models.OutcomeWin)}
	loserEntry := models.ParticipantResult{ParticipantID: loser, Outcome: outcomePtr(models.OutcomeLoss)}
	if winScore >= 0 {
		winnerEntry.Score = intPtr(winScore)
	}
	if loseScore >= 0 {
		loserEntry.Score = intPtr(loseScore)
	}

	s := &models.Session{
		BracketUID:           uid,
		Phase:                phase,
		RoundNumber:          round,
		ParticipantIDs:       []int64{winner, loser},
		RequiredParticipants: 2,
		Status:               models.SessionCompleted,
		Results: &models.SessionResults{
			Entries: []models.ParticipantResult{winnerEntry, loserEntry},
		},
	}
	if groupKey != "" {
		s.GroupKey = &groupKey
	}
	return s
}

func knockoutMatch(uid string, round int, winner, loser int64) *models.Session {
	return headToHead(uid, models.PhaseKnockout, round, "", winner, loser, -1, -1)
}

func groupMatch(uid, groupKey string, round int, winner, loser int64, winScore, loseScore int) *models.Session {
	return headToHead(uid, models.PhaseGroupStage, round, groupKey, winner, loser, winScore, loseScore)
}

// scoredRound builds a completed individual-format session from explicit
// participant scores.
func scoredRound(uid string, round int, scores map[int64]int) *models.Session {
	entries := make([]models.ParticipantResult, 0, len(scores))
	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	for _, id := range ids {
		entries = append(entries, models.ParticipantResult{ParticipantID: id, Score: intPtr(scores[id])})
	}
	return &models.Session{
		BracketUID:           uid,
		Phase:                models.PhaseGroupStage,
		RoundNumber:          round,
		ParticipantIDs:       ids,
		RequiredParticipants: len(ids),
		Status:               models.SessionCompleted,
		Results:              &models.SessionResults{Entries: entries},
	}
}

func rankOf(entries []models.RankingEntry, participantID int64) int {
	for _, e := range entries {
		if e.ParticipantID == participantID {
			return e.Rank
		}
	}
	return 0
}
