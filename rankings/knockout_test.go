package rankings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/tournament-engine/models"
)

func eightPlayerBracket() []*models.Session {
	return []*models.Session{
		knockoutMatch("R1M1", 1, 1, 8),
		knockoutMatch("R1M2", 1, 2, 7),
		knockoutMatch("R1M3", 1, 3, 6),
		knockoutMatch("R1M4", 1, 4, 5),
		knockoutMatch("R2M1", 2, 1, 4),
		knockoutMatch("R2M2", 2, 3, 2),
		knockoutMatch("R3M1", 3, 1, 3),
	}
}

func TestKnockoutRank_FullBracket(t *testing.T) {
	c := NewKnockoutCalculator()
	entries, err := c.Rank(eightPlayerBracket())
	require.NoError(t, err)
	require.Len(t, entries, 8)

	// champion, then runner-up, then the semifinal losers
	assert.Equal(t, int64(1), entries[0].ParticipantID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, resultWin, entries[0].Stats.FinalResult)

	assert.Equal(t, int64(3), entries[1].ParticipantID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, resultRunnerUp, entries[1].Stats.FinalResult)

	// semifinal losers tie at rank 3
	assert.Equal(t, 3, rankOf(entries, 2))
	assert.Equal(t, 3, rankOf(entries, 4))

	// first-round losers share a rank and numbering is not dense
	for _, id := range []int64{5, 6, 7, 8} {
		assert.Equal(t, 5, rankOf(entries, id))
	}
}

func TestKnockoutRank_BronzeBreaksSemifinalTie(t *testing.T) {
	sessions := append(eightPlayerBracket(),
		headToHead(models.BronzeSessionUID, models.PhaseKnockout, 3, "", 4, 2, -1, -1))

	c := NewKnockoutCalculator()
	entries, err := c.Rank(sessions)
	require.NoError(t, err)

	// finalists stay on top; bronze only orders the semifinal losers
	assert.Equal(t, int64(1), entries[0].ParticipantID)
	assert.Equal(t, int64(3), entries[1].ParticipantID)
	assert.Equal(t, int64(4), entries[2].ParticipantID)
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, int64(2), entries[3].ParticipantID)
	assert.Equal(t, 4, entries[3].Rank)

	// bronze participants keep their semifinal round, not the bronze round
	assert.Equal(t, entries[3].Stats.RoundReached, entries[2].Stats.RoundReached)
	assert.Less(t, entries[2].Stats.RoundReached, entries[0].Stats.RoundReached)
}

func TestKnockoutRank_PartialBracket(t *testing.T) {
	// only the first round has been played
	sessions := []*models.Session{
		knockoutMatch("R1M1", 1, 1, 8),
		knockoutMatch("R1M2", 1, 2, 7),
		&models.Session{BracketUID: "R2M1", Phase: models.PhaseKnockout, RoundNumber: 2, RequiredParticipants: 2},
	}

	c := NewKnockoutCalculator()
	entries, err := c.Rank(sessions)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// round 1 winners ahead of round 1 losers
	assert.Equal(t, 1, rankOf(entries, 1))
	assert.Equal(t, 1, rankOf(entries, 2))
	assert.Equal(t, 3, rankOf(entries, 7))
	assert.Equal(t, 3, rankOf(entries, 8))
}

func TestKnockoutRank_NoCompletedSessions(t *testing.T) {
	sessions := []*models.Session{
		{BracketUID: "R1M1", Phase: models.PhaseKnockout, RoundNumber: 1, RequiredParticipants: 2},
	}
	c := NewKnockoutCalculator()
	_, err := c.Rank(sessions)
	assert.ErrorIs(t, err, ErrNoCompletedSessions)
}

func TestKnockoutRank_Idempotent(t *testing.T) {
	c := NewKnockoutCalculator()
	first, err := c.Rank(eightPlayerBracket())
	require.NoError(t, err)
	second, err := c.Rank(eightPlayerBracket())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
