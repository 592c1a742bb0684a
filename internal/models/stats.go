package models

import "time"

// UserStats is the per (user, ruleset) mutable aggregate. Exactly one live
// row exists per pair; it is created lazily on the first valid score and
// mutated only by processors inside the orchestrator's transaction.
type UserStats struct {
	UserID      int64   `json:"user_id"`
	RulesetID   Ruleset `json:"ruleset_id"`
	TotalScore  int64   `json:"total_score"`
	RankedScore int64   `json:"ranked_score"`
	PlayCount   int     `json:"play_count"`
	PlayTime    int     `json:"play_time"` // seconds
	TotalHits   int64   `json:"total_hits"`
	MaxCombo    int     `json:"max_combo"`
	CountSS     int     `json:"count_ss"`
	CountS      int     `json:"count_s"`
	CountA      int     `json:"count_a"`
}

// ProcessHistory records which pipeline version last processed a score.
// One row per score, updated in place on re-processing. ProcessedVersion is
// monotonically non-decreasing.
type ProcessHistory struct {
	ScoreID          int64     `json:"score_id"`
	ProcessedVersion int       `json:"processed_version"`
	ProcessedAt      time.Time `json:"processed_at"`
}
