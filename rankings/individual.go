package rankings

import (
	"sort"

	"github.com/skillforge/tournament-engine/models"
)

const (
	// ScoringRuleSum ranks by the sum of session scores.
	ScoringRuleSum = "sum"
	// ScoringRuleBest ranks by the best single session score.
	ScoringRuleBest = "best"
)

// IndividualCalculator ranks formats without pairwise matches: every
// session carries a placement or score per participant, aggregated by the
// configured scoring rule.
type IndividualCalculator struct {
	rule string
}

func NewIndividualCalculator(rule string) *IndividualCalculator {
	if rule != ScoringRuleBest {
		rule = ScoringRuleSum
	}
	return &IndividualCalculator{rule: rule}
}

func (c *IndividualCalculator) Name() string { return "IndividualRanking" }

func (c *IndividualCalculator) Rank(sessions []*models.Session) ([]models.RankingEntry, error) {
	type individualStanding struct {
		participantID int64
		total         int
		best          int
		rounds        int
	}

	standings := make(map[int64]*individualStanding)
	completed := 0

	for _, s := range sessions {
		if !s.HasResults() {
			continue
		}
		completed++
		fieldSize := len(s.Results.Entries)
		for _, result := range s.Results.Entries {
			standing, ok := standings[result.ParticipantID]
			if !ok {
				standing = &individualStanding{participantID: result.ParticipantID}
				standings[result.ParticipantID] = standing
			}

			score := sessionScore(result, fieldSize)
			standing.total += score
			if standing.rounds == 0 || score > standing.best {
				standing.best = score
			}
			standing.rounds++
		}
	}
	if completed == 0 {
		return nil, ErrNoCompletedSessions
	}

	ordered := make([]*individualStanding, 0, len(standings))
	for _, standing := range standings {
		ordered = append(ordered, standing)
	}
	keyOf := func(s *individualStanding) int {
		if c.rule == ScoringRuleBest {
			return s.best
		}
		return s.total
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if keyOf(a) != keyOf(b) {
			return keyOf(a) > keyOf(b)
		}
		return a.participantID < b.participantID
	})

	entries := make([]models.RankingEntry, 0, len(ordered))
	for _, standing := range ordered {
		entries = append(entries, models.RankingEntry{
			ParticipantID: standing.participantID,
			Stats: models.TieBreakStats{
				TotalScore: standing.total,
				BestScore:  standing.best,
				Rounds:     standing.rounds,
			},
		})
	}
	assignRanks(entries, func(a, b models.RankingEntry) bool {
		if c.rule == ScoringRuleBest {
			return a.Stats.BestScore == b.Stats.BestScore
		}
		return a.Stats.TotalScore == b.Stats.TotalScore
	})
	return entries, nil
}

// sessionScore converts one result entry to points. An explicit score wins;
// otherwise a placement in a field of m earns m-placement+1 points, so
// first place in an 8-strong session is worth 8.
func sessionScore(result models.ParticipantResult, fieldSize int) int {
	if result.Score != nil {
		return *result.Score
	}
	if result.Placement != nil && *result.Placement >= 1 {
		return fieldSize - *result.Placement + 1
	}
	return 0
}
