package processor

import (
	"context"

	"github.com/beatpulse/score-statistics/internal/models"
)

// RankCounts maintains the per-grade counters. Ordered after Performance
// because only ranked scores count, and the ranked flag is set there.
type RankCounts struct{}

func NewRankCounts() *RankCounts { return &RankCounts{} }

func (*RankCounts) Name() string            { return "rank_counts" }
func (*RankCounts) Order() int              { return 50 }
func (*RankCounts) RunOnFailedScores() bool { return false }
func (*RankCounts) RunOnLegacyScores() bool { return false }

func (*RankCounts) Apply(_ context.Context, score *models.Score, stats *models.UserStats) error {
	adjustRankCounts(score, stats, 1)
	return nil
}

// Revert uses the ranked flag persisted by the previous processing run, so
// the decrement mirrors exactly what was counted then.
func (*RankCounts) Revert(_ context.Context, score *models.Score, stats *models.UserStats, _ int) error {
	adjustRankCounts(score, stats, -1)
	return nil
}

func (*RankCounts) ApplyGlobal(context.Context, *models.Score) error { return nil }

func adjustRankCounts(score *models.Score, stats *models.UserStats, delta int) {
	if !score.Ranked {
		return
	}
	switch score.Grade {
	case models.GradeXH, models.GradeX:
		stats.CountSS = clampCount(stats.CountSS + delta)
	case models.GradeSH, models.GradeS:
		stats.CountS = clampCount(stats.CountS + delta)
	case models.GradeA:
		stats.CountA = clampCount(stats.CountA + delta)
	}
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
