package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/tournament-engine/models"
)

func participantIDs(n int) []int64 {
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, int64(i*100))
	}
	return ids
}

func TestKnockoutGenerate_SessionAndRoundCounts(t *testing.T) {
	tests := []struct {
		n         int
		wantRound int
	}{
		{n: 2, wantRound: 1},
		{n: 3, wantRound: 2},
		{n: 4, wantRound: 2},
		{n: 5, wantRound: 3},
		{n: 8, wantRound: 3},
		{n: 13, wantRound: 4},
		{n: 16, wantRound: 4},
	}

	g := NewKnockoutGenerator()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_participants", tt.n), func(t *testing.T) {
			sessions, err := g.Generate(context.Background(), GenerateParams{
				ParticipantIDs: participantIDs(tt.n),
			})
			require.NoError(t, err)

			// single elimination always plays exactly n-1 matches
			assert.Len(t, sessions, tt.n-1)

			maxRound := 0
			for _, s := range sessions {
				assert.Equal(t, models.PhaseKnockout, s.Phase)
				assert.Equal(t, 2, s.RequiredParticipants)
				if s.Round > maxRound {
					maxRound = s.Round
				}
			}
			assert.Equal(t, tt.wantRound, maxRound)
		})
	}
}

func TestKnockoutGenerate_NotEnoughParticipants(t *testing.T) {
	g := NewKnockoutGenerator()
	_, err := g.Generate(context.Background(), GenerateParams{ParticipantIDs: []int64{1}})
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestKnockoutGenerate_EightParticipantBracket(t *testing.T) {
	ids := participantIDs(8)
	g := NewKnockoutGenerator()
	sessions, err := g.Generate(context.Background(), GenerateParams{ParticipantIDs: ids})
	require.NoError(t, err)
	require.Len(t, sessions, 7)

	byUID := make(map[string]*PlannedSession)
	for _, s := range sessions {
		byUID[s.UID] = s
	}

	// round 1 pairs seed i against seed 7-i
	require.Contains(t, byUID, "R1M1")
	assert.Equal(t, []int64{ids[0], ids[7]}, byUID["R1M1"].ParticipantIDs)
	assert.Equal(t, []int64{ids[1], ids[6]}, byUID["R1M2"].ParticipantIDs)
	assert.Equal(t, []int64{ids[2], ids[5]}, byUID["R1M3"].ParticipantIDs)
	assert.Equal(t, []int64{ids[3], ids[4]}, byUID["R1M4"].ParticipantIDs)

	// advancement: top and bottom halves fold into the two semifinals
	wantTargets := map[string]struct {
		uid  string
		slot int
	}{
		"R1M1": {"R2M1", 1},
		"R1M2": {"R2M2", 1},
		"R1M3": {"R2M2", 2},
		"R1M4": {"R2M1", 2},
		"R2M1": {"R3M1", 1},
		"R2M2": {"R3M1", 2},
	}
	for uid, want := range wantTargets {
		s := byUID[uid]
		require.NotNil(t, s.NextUID, "session %s should have an advancement target", uid)
		assert.Equal(t, want.uid, *s.NextUID, "session %s", uid)
		assert.Equal(t, want.slot, *s.WinnerSlot, "session %s", uid)
	}

	// the final has no target
	assert.Nil(t, byUID["R3M1"].NextUID)

	// later-round sessions start empty
	assert.Empty(t, byUID["R2M1"].ParticipantIDs)
	assert.Empty(t, byUID["R3M1"].ParticipantIDs)
}

func TestKnockoutGenerate_ByesPreSeedNextRound(t *testing.T) {
	ids := participantIDs(5)
	g := NewKnockoutGenerator()
	sessions, err := g.Generate(context.Background(), GenerateParams{ParticipantIDs: ids})
	require.NoError(t, err)
	require.Len(t, sessions, 4)

	byRound := make(map[int][]*PlannedSession)
	for _, s := range sessions {
		byRound[s.Round] = append(byRound[s.Round], s)
	}

	// only seeds 4 and 5 actually play in round 1
	require.Len(t, byRound[1], 1)
	assert.ElementsMatch(t, []int64{ids[3], ids[4]}, byRound[1][0].ParticipantIDs)

	// the three byes appear directly in round 2 sessions
	require.Len(t, byRound[2], 2)
	var roundTwoSeeded []int64
	for _, s := range byRound[2] {
		roundTwoSeeded = append(roundTwoSeeded, s.ParticipantIDs...)
	}
	assert.ElementsMatch(t, []int64{ids[0], ids[1], ids[2]}, roundTwoSeeded)
}

func TestKnockoutGenerate_BronzeMatch(t *testing.T) {
	g := NewKnockoutGenerator()
	sessions, err := g.Generate(context.Background(), GenerateParams{
		ParticipantIDs: participantIDs(8),
		Params:         models.FormatParams{WithBronzeMatch: true},
	})
	require.NoError(t, err)
	require.Len(t, sessions, 8)

	var bronze *PlannedSession
	var semifinals []*PlannedSession
	for _, s := range sessions {
		if s.UID == models.BronzeSessionUID {
			bronze = s
		}
		if s.Round == 2 {
			semifinals = append(semifinals, s)
		}
	}
	require.NotNil(t, bronze)
	assert.Equal(t, 3, bronze.Round)
	assert.Empty(t, bronze.ParticipantIDs)

	require.Len(t, semifinals, 2)
	for i, semifinal := range semifinals {
		require.NotNil(t, semifinal.LoserNextUID)
		assert.Equal(t, models.BronzeSessionUID, *semifinal.LoserNextUID)
		assert.Equal(t, i+1, *semifinal.LoserSlot)
	}
}

func TestKnockoutGenerate_BronzeSkippedWithoutTwoSemifinals(t *testing.T) {
	// two participants means the final is the only session
	g := NewKnockoutGenerator()
	sessions, err := g.Generate(context.Background(), GenerateParams{
		ParticipantIDs: participantIDs(2),
		Params:         models.FormatParams{WithBronzeMatch: true},
	})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestKnockoutGenerate_Deterministic(t *testing.T) {
	ids := participantIDs(13)
	g := NewKnockoutGenerator()

	first, err := g.Generate(context.Background(), GenerateParams{ParticipantIDs: ids})
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), GenerateParams{ParticipantIDs: ids})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
