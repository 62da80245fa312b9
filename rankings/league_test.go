package rankings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/tournament-engine/models"
)

func TestLeagueRank_PointsAndScoreDifference(t *testing.T) {
	// A, B, C beat each other in a cycle, everyone beats D
	sessions := []*models.Session{
		groupMatch("R1M1", "", 1, 1, 2, 3, 0), // A > B
		groupMatch("R2M1", "", 2, 2, 3, 2, 1), // B > C
		groupMatch("R3M1", "", 3, 3, 1, 1, 0), // C > A
		groupMatch("R1M2", "", 1, 1, 4, 1, 0),
		groupMatch("R2M2", "", 2, 2, 4, 1, 0),
		groupMatch("R3M2", "", 3, 3, 4, 1, 0),
	}

	c := NewLeagueCalculator()
	entries, err := c.Rank(sessions)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// all of A, B, C hold 6 points; score difference decides
	assert.Equal(t, int64(1), entries[0].ParticipantID) // diff +3
	assert.Equal(t, int64(3), entries[1].ParticipantID) // diff +1
	assert.Equal(t, int64(2), entries[2].ParticipantID) // diff -1
	assert.Equal(t, int64(4), entries[3].ParticipantID)

	assert.Equal(t, 6, entries[0].Stats.Points)
	assert.Equal(t, 3, entries[0].Stats.ScoreDifference)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank, entries[3].Rank})
}

func TestLeagueRank_SharedRanks(t *testing.T) {
	// same cycle without scores: A, B, C are indistinguishable
	sessions := []*models.Session{
		groupMatch("R1M1", "", 1, 1, 2, -1, -1),
		groupMatch("R2M1", "", 2, 2, 3, -1, -1),
		groupMatch("R3M1", "", 3, 3, 1, -1, -1),
		groupMatch("R1M2", "", 1, 1, 4, -1, -1),
		groupMatch("R2M2", "", 2, 2, 4, -1, -1),
		groupMatch("R3M2", "", 3, 3, 4, -1, -1),
	}

	c := NewLeagueCalculator()
	entries, err := c.Rank(sessions)
	require.NoError(t, err)

	assert.Equal(t, 1, rankOf(entries, 1))
	assert.Equal(t, 1, rankOf(entries, 2))
	assert.Equal(t, 1, rankOf(entries, 3))
	assert.Equal(t, 4, rankOf(entries, 4))
}

func TestLeagueRank_WinsAndLossesTracked(t *testing.T) {
	sessions := []*models.Session{
		groupMatch("R1M1", "", 1, 10, 20, 2, 1),
		groupMatch("R2M1", "", 2, 10, 30, 1, 0),
		groupMatch("R3M1", "", 3, 20, 30, 1, 0),
	}

	c := NewLeagueCalculator()
	entries, err := c.Rank(sessions)
	require.NoError(t, err)

	top := entries[0]
	assert.Equal(t, int64(10), top.ParticipantID)
	assert.Equal(t, 2, top.Stats.Wins)
	assert.Equal(t, 0, top.Stats.Losses)
	assert.Equal(t, 6, top.Stats.Points)
	assert.Equal(t, 3, top.Stats.ScoreFor)
	assert.Equal(t, 1, top.Stats.ScoreAgainst)
}

func TestLeagueRankGroup_FiltersByGroup(t *testing.T) {
	sessions := []*models.Session{
		groupMatch("GA_R1M1", "A", 1, 1, 2, 1, 0),
		groupMatch("GB_R1M1", "B", 1, 3, 4, 1, 0),
	}

	c := NewLeagueCalculator()
	entries, err := c.RankGroup(sessions, "A")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].ParticipantID)
	assert.Equal(t, int64(2), entries[1].ParticipantID)
}

func TestLeagueRank_NoCompletedSessions(t *testing.T) {
	sessions := []*models.Session{
		{BracketUID: "R1M1", Phase: models.PhaseGroupStage, RoundNumber: 1, RequiredParticipants: 2},
	}
	c := NewLeagueCalculator()
	_, err := c.Rank(sessions)
	assert.ErrorIs(t, err, ErrNoCompletedSessions)
}
