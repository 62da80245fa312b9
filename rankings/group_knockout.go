package rankings

import (
	"github.com/skillforge/tournament-engine/models"
)

// GroupKnockoutCalculator composes the two head-to-head calculators: the
// knockout calculator orders the qualifiers who reached the knockout
// phase, and everyone eliminated in the groups is ranked below them by
// their group-stage league statistics.
type GroupKnockoutCalculator struct {
	knockout *KnockoutCalculator
	league   *LeagueCalculator
}

func NewGroupKnockoutCalculator() *GroupKnockoutCalculator {
	return &GroupKnockoutCalculator{
		knockout: NewKnockoutCalculator(),
		league:   NewLeagueCalculator(),
	}
}

func (c *GroupKnockoutCalculator) Name() string { return "GroupKnockout" }

func (c *GroupKnockoutCalculator) Rank(sessions []*models.Session) ([]models.RankingEntry, error) {
	knockoutEntries, err := c.knockout.Rank(sessions)
	if err != nil {
		return nil, err
	}
	qualified := make(map[int64]bool, len(knockoutEntries))
	for _, entry := range knockoutEntries {
		qualified[entry.ParticipantID] = true
	}

	groupEntries, err := c.league.Rank(sessions)
	if err != nil {
		return nil, err
	}

	var eliminated []models.RankingEntry
	for _, groupEntry := range groupEntries {
		if !qualified[groupEntry.ParticipantID] {
			eliminated = append(eliminated, groupEntry)
		}
	}
	// Re-number the eliminated block below the qualifiers, preserving
	// shared ranks within it.
	offset := len(knockoutEntries)
	for i := range eliminated {
		if i > 0 && leagueTied(eliminated[i-1], eliminated[i]) {
			eliminated[i].Rank = eliminated[i-1].Rank
			continue
		}
		eliminated[i].Rank = offset + i + 1
	}
	return append(knockoutEntries, eliminated...), nil
}
