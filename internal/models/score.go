package models

import "time"

// Ruleset identifies the game mode a score was set in.
type Ruleset int

const (
	RulesetOsu Ruleset = iota
	RulesetTaiko
	RulesetCatch
	RulesetMania
)

// Valid reports whether the ruleset is one the pipeline aggregates stats for.
func (r Ruleset) Valid() bool {
	return r >= RulesetOsu && r <= RulesetMania
}

// Grade is the letter rank assigned to a score on submission.
type Grade string

const (
	GradeXH Grade = "XH" // SS with hidden/flashlight
	GradeX  Grade = "X"  // SS
	GradeSH Grade = "SH"
	GradeS  Grade = "S"
	GradeA  Grade = "A"
	GradeB  Grade = "B"
	GradeC  Grade = "C"
	GradeD  Grade = "D"
)

// Score is an immutable submission record. The pipeline only reads it,
// except for the computed performance value and the ranked flag which are
// written back after calculation.
type Score struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	BeatmapID     int64          `json:"beatmap_id"`
	RulesetID     Ruleset        `json:"ruleset_id"`
	BuildID       int64          `json:"build_id"`
	Passed        bool           `json:"passed"`
	TotalScore    int64          `json:"total_score"`
	Accuracy      float64        `json:"accuracy"`
	MaxCombo      int            `json:"max_combo"`
	Grade         Grade          `json:"rank"`
	Statistics    map[string]int `json:"statistics"`
	Mods          Mods           `json:"mods"`
	LegacyScoreID *int64         `json:"legacy_score_id,omitempty"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	EndedAt       time.Time      `json:"ended_at"`

	// Written back by the performance processor.
	PP     *float64 `json:"pp,omitempty"`
	Ranked bool     `json:"ranked"`
}

// IsLegacyScore reports whether the score was migrated from the previous
// scoring system.
func (s *Score) IsLegacyScore() bool {
	return s.LegacyScoreID != nil
}

// TotalHits sums the per-hit-result statistics.
func (s *Score) TotalHits() int {
	total := 0
	for _, n := range s.Statistics {
		total += n
	}
	return total
}
