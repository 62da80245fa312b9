package rankings

import (
	"errors"
	"fmt"

	"github.com/skillforge/tournament-engine/models"
)

var (
	ErrNoCompletedSessions = errors.New("no completed sessions to rank")
	ErrUnsupportedFormat   = errors.New("no ranking calculator for format")
)

// Calculator turns a set of completed sessions into an ordered standings
// list. Implementations are pure: re-running one on the same input yields
// identical output. Participants with zero recorded sessions are excluded,
// not ranked last.
type Calculator interface {
	Rank(sessions []*models.Session) ([]models.RankingEntry, error)
	Name() string
}

// ForFormat returns the calculator for a tournament format.
func ForFormat(format models.TournamentFormat, params models.FormatParams) (Calculator, error) {
	switch format {
	case models.FormatKnockout:
		return NewKnockoutCalculator(), nil
	case models.FormatLeague:
		return NewLeagueCalculator(), nil
	case models.FormatGroupKnockout:
		return NewGroupKnockoutCalculator(), nil
	case models.FormatIndividual:
		return NewIndividualCalculator(params.ScoringRule), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// assignRanks applies standard competition ranking to an already-sorted
// list: entries whose sort keys compare equal share a rank, and numbering
// continues from the next distinct group ("1, 2, 2, 4"), not densely.
func assignRanks(entries []models.RankingEntry, tied func(a, b models.RankingEntry) bool) {
	for i := range entries {
		if i > 0 && tied(entries[i-1], entries[i]) {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
