package rankings

import (
	"sort"

	"github.com/skillforge/tournament-engine/models"
)

// PointsPerWin is the league scoring rule. The head-to-head formats have
// no draw outcome, so losses are worth zero.
const PointsPerWin = 3

type LeagueCalculator struct{}

func NewLeagueCalculator() *LeagueCalculator {
	return &LeagueCalculator{}
}

func (c *LeagueCalculator) Name() string { return "HeadToHeadLeague" }

// Rank accumulates points, score difference and scored totals over the
// completed head-to-head sessions and orders by (-points, -difference,
// -scored). Ties on all three share a rank.
func (c *LeagueCalculator) Rank(sessions []*models.Session) ([]models.RankingEntry, error) {
	entries, err := c.rank(sessions, nil)
	if err != nil {
		return nil, err
	}
	assignRanks(entries, leagueTied)
	return entries, nil
}

// RankGroup ranks only the sessions of one group; used by the
// finalize-group-stage step of group+knockout tournaments.
func (c *LeagueCalculator) RankGroup(sessions []*models.Session, groupKey string) ([]models.RankingEntry, error) {
	entries, err := c.rank(sessions, &groupKey)
	if err != nil {
		return nil, err
	}
	assignRanks(entries, leagueTied)
	return entries, nil
}

func (c *LeagueCalculator) rank(sessions []*models.Session, groupKey *string) ([]models.RankingEntry, error) {
	type leagueStanding struct {
		participantID int64
		stats         models.TieBreakStats
	}

	standings := make(map[int64]*leagueStanding)
	completed := 0

	for _, s := range sessions {
		if s.Phase != models.PhaseGroupStage || !s.HasResults() || s.RequiredParticipants != 2 {
			continue
		}
		if groupKey != nil && (s.GroupKey == nil || *s.GroupKey != *groupKey) {
			continue
		}
		results := s.Results.Entries
		if len(results) != 2 {
			continue
		}
		completed++
		for i, result := range results {
			standing, ok := standings[result.ParticipantID]
			if !ok {
				standing = &leagueStanding{participantID: result.ParticipantID}
				standings[result.ParticipantID] = standing
			}

			scored, conceded := 0, 0
			if result.Score != nil {
				scored = *result.Score
			}
			opponent := results[1-i]
			if opponent.Score != nil {
				conceded = *opponent.Score
			}

			standing.stats.ScoreFor += scored
			standing.stats.ScoreAgainst += conceded
			standing.stats.ScoreDifference += scored - conceded
			if result.Outcome != nil && *result.Outcome == models.OutcomeWin {
				standing.stats.Wins++
				standing.stats.Points += PointsPerWin
			} else {
				standing.stats.Losses++
			}
		}
	}
	if completed == 0 {
		return nil, ErrNoCompletedSessions
	}

	ordered := make([]*leagueStanding, 0, len(standings))
	for _, standing := range standings {
		ordered = append(ordered, standing)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.stats.Points != b.stats.Points {
			return a.stats.Points > b.stats.Points
		}
		if a.stats.ScoreDifference != b.stats.ScoreDifference {
			return a.stats.ScoreDifference > b.stats.ScoreDifference
		}
		if a.stats.ScoreFor != b.stats.ScoreFor {
			return a.stats.ScoreFor > b.stats.ScoreFor
		}
		return a.participantID < b.participantID
	})

	entries := make([]models.RankingEntry, 0, len(ordered))
	for _, standing := range ordered {
		entries = append(entries, models.RankingEntry{
			ParticipantID: standing.participantID,
			Stats:         standing.stats,
		})
	}
	return entries, nil
}

func leagueTied(a, b models.RankingEntry) bool {
	return a.Stats.Points == b.Stats.Points &&
		a.Stats.ScoreDifference == b.Stats.ScoreDifference &&
		a.Stats.ScoreFor == b.Stats.ScoreFor
}
