package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillforge/tournament-engine/models"
)

var (
	ErrNotEnoughParticipants = errors.New("not enough participants to generate sessions")
	ErrLeagueTooLarge        = errors.New("league exceeds the maximum participant count")
	ErrInvalidGroupCount     = errors.New("invalid group count")
	ErrInvalidQualifierCount = errors.New("invalid qualifier count")
	ErrUnsupportedFormat     = errors.New("unsupported tournament format")
)

// PlannedSession is a generator's description of one session before it is
// persisted. UIDs are unique within a tournament; NextUID/WinnerSlot (and
// LoserNextUID/LoserSlot for semifinals feeding a bronze match) describe
// deterministic advancement targets.
type PlannedSession struct {
	UID                  string
	Phase                models.SessionPhase
	Round                int
	OrderInRound         int
	GroupKey             string
	ParticipantIDs       []int64
	RequiredParticipants int

	NextUID      *string
	WinnerSlot   *int
	LoserNextUID *string
	LoserSlot    *int
}

type GenerateParams struct {
	ParticipantIDs []int64
	Params         models.FormatParams
}

// Generator turns a participant list and format parameters into a session
// plan. Implementations are deterministic given the same input ordering and
// perform no I/O.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*PlannedSession, error)
	Name() string
}

// ForFormat returns the generator for a tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatKnockout:
		return NewKnockoutGenerator(), nil
	case models.FormatLeague:
		return NewLeagueGenerator(), nil
	case models.FormatGroupKnockout:
		return NewGroupKnockoutGenerator(), nil
	case models.FormatIndividual:
		return NewIndividualGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
