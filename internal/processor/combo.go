package processor

import (
	"context"

	"github.com/beatpulse/score-statistics/internal/models"
)

// MaxCombo tracks the user's highest combo on passing scores.
type MaxCombo struct{}

func NewMaxCombo() *MaxCombo { return &MaxCombo{} }

func (*MaxCombo) Name() string            { return "max_combo" }
func (*MaxCombo) Order() int              { return 20 }
func (*MaxCombo) RunOnFailedScores() bool { return false }
func (*MaxCombo) RunOnLegacyScores() bool { return true }

func (*MaxCombo) Apply(_ context.Context, score *models.Score, stats *models.UserStats) error {
	if score.MaxCombo > stats.MaxCombo {
		stats.MaxCombo = score.MaxCombo
	}
	return nil
}

// Revert is a no-op: a maximum cannot be unwound without the pre-apply
// value, and reapplying the same score leaves the maximum unchanged.
func (*MaxCombo) Revert(context.Context, *models.Score, *models.UserStats, int) error {
	return nil
}

func (*MaxCombo) ApplyGlobal(context.Context, *models.Score) error { return nil }
