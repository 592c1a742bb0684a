package processor

import (
	"context"

	"github.com/beatpulse/score-statistics/internal/models"
)

// PlayCount counts every submitted play, passed or failed, legacy included.
type PlayCount struct{}

func NewPlayCount() *PlayCount { return &PlayCount{} }

func (*PlayCount) Name() string            { return "play_count" }
func (*PlayCount) Order() int              { return 0 }
func (*PlayCount) RunOnFailedScores() bool { return true }
func (*PlayCount) RunOnLegacyScores() bool { return true }

func (*PlayCount) Apply(_ context.Context, _ *models.Score, stats *models.UserStats) error {
	stats.PlayCount++
	return nil
}

func (*PlayCount) Revert(_ context.Context, _ *models.Score, stats *models.UserStats, _ int) error {
	if stats.PlayCount > 0 {
		stats.PlayCount--
	}
	return nil
}

func (*PlayCount) ApplyGlobal(context.Context, *models.Score) error { return nil }
