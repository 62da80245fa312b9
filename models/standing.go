package models

// TieBreakStats carries the per-format statistics that produced a ranking
// entry. Only the fields relevant to the tournament's format are populated.
type TieBreakStats struct {
	// League formats and group stages.
	Points          int `json:"points,omitempty"`
	Wins            int `json:"wins,omitempty"`
	Losses          int `json:"losses,omitempty"`
	ScoreFor        int `json:"score_for,omitempty"`
	ScoreAgainst    int `json:"score_against,omitempty"`
	ScoreDifference int `json:"score_difference,omitempty"`

	// Knockout formats.
	RoundReached     int    `json:"round_reached,omitempty"`
	FinalResult      string `json:"final_result,omitempty"` // "win", "runner_up", "loss"
	EliminationScore int    `json:"elimination_score,omitempty"`

	// Individual formats.
	TotalScore int `json:"total_score,omitempty"`
	BestScore  int `json:"best_score,omitempty"`
	Rounds     int `json:"rounds,omitempty"`
}

// RankingEntry is one participant's computed final position. Ranks form a
// contiguous sequence starting at 1; ties share a rank and numbering
// continues from the next distinct group (standard competition ranking).
type RankingEntry struct {
	ParticipantID int64         `json:"participant_id"`
	Rank          int           `json:"rank"`
	Stats         TieBreakStats `json:"tie_break_stats"`
}
