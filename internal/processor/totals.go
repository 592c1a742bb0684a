package processor

import (
	"context"

	"github.com/beatpulse/score-statistics/internal/cache"
	"github.com/beatpulse/score-statistics/internal/models"
)

// totalHitsSinceVersion is the pipeline version that introduced total hit
// tracking; reverting older contributions must not subtract hits that were
// never added.
const totalHitsSinceVersion = 10

// Totals folds the score total into the user's total score, and into the
// ranked total when the beatmap's approval status qualifies.
type Totals struct {
	beatmaps *cache.Beatmaps
}

func NewTotals(beatmaps *cache.Beatmaps) *Totals {
	return &Totals{beatmaps: beatmaps}
}

func (*Totals) Name() string            { return "totals" }
func (*Totals) Order() int              { return 10 }
func (*Totals) RunOnFailedScores() bool { return false }
func (*Totals) RunOnLegacyScores() bool { return false }

func (t *Totals) Apply(ctx context.Context, score *models.Score, stats *models.UserStats) error {
	stats.TotalScore += score.TotalScore
	stats.TotalHits += int64(score.TotalHits())

	ranked, err := t.countsAsRanked(ctx, score)
	if err != nil {
		return err
	}
	if ranked {
		stats.RankedScore += score.TotalScore
	}
	return nil
}

func (t *Totals) Revert(ctx context.Context, score *models.Score, stats *models.UserStats, fromVersion int) error {
	stats.TotalScore -= score.TotalScore
	if fromVersion >= totalHitsSinceVersion {
		stats.TotalHits -= int64(score.TotalHits())
	}

	ranked, err := t.countsAsRanked(ctx, score)
	if err != nil {
		return err
	}
	if ranked {
		stats.RankedScore -= score.TotalScore
	}
	return nil
}

func (*Totals) ApplyGlobal(context.Context, *models.Score) error { return nil }

func (t *Totals) countsAsRanked(ctx context.Context, score *models.Score) (bool, error) {
	beatmap, err := t.beatmaps.Get(ctx, score.BeatmapID)
	if err != nil {
		return false, err
	}
	if beatmap == nil {
		return false, nil
	}
	return beatmap.Status == models.StatusRanked || beatmap.Status == models.StatusApproved, nil
}
