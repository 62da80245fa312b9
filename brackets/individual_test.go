package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/tournament-engine/models"
)

func TestIndividualGenerate_OneSessionPerRound(t *testing.T) {
	ids := participantIDs(6)
	g := NewIndividualGenerator()
	sessions, err := g.Generate(context.Background(), GenerateParams{
		ParticipantIDs: ids,
		Params:         models.FormatParams{NumRounds: 3},
	})
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	for i, s := range sessions {
		assert.Equal(t, i+1, s.Round)
		assert.Equal(t, ids, s.ParticipantIDs)
		assert.Equal(t, len(ids), s.RequiredParticipants)
	}
}

func TestIndividualGenerate_DefaultsToSingleRound(t *testing.T) {
	g := NewIndividualGenerator()
	sessions, err := g.Generate(context.Background(), GenerateParams{ParticipantIDs: participantIDs(4)})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestIndividualGenerate_NotEnoughParticipants(t *testing.T) {
	g := NewIndividualGenerator()
	_, err := g.Generate(context.Background(), GenerateParams{ParticipantIDs: participantIDs(1)})
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}
