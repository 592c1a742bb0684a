package processor

import (
	"context"

	"github.com/beatpulse/score-statistics/internal/cache"
	"github.com/beatpulse/score-statistics/internal/models"
)

// PlayTime accumulates seconds played. The contribution is the mod-adjusted
// beatmap length, capped by the measured submission window when the client
// reported one (failed scores rarely reach full length).
type PlayTime struct {
	beatmaps *cache.Beatmaps
}

func NewPlayTime(beatmaps *cache.Beatmaps) *PlayTime {
	return &PlayTime{beatmaps: beatmaps}
}

func (*PlayTime) Name() string            { return "play_time" }
func (*PlayTime) Order() int              { return 30 }
func (*PlayTime) RunOnFailedScores() bool { return true }
func (*PlayTime) RunOnLegacyScores() bool { return true }

func (p *PlayTime) Apply(ctx context.Context, score *models.Score, stats *models.UserStats) error {
	seconds, err := p.contribution(ctx, score)
	if err != nil {
		return err
	}
	stats.PlayTime += seconds
	return nil
}

func (p *PlayTime) Revert(ctx context.Context, score *models.Score, stats *models.UserStats, _ int) error {
	seconds, err := p.contribution(ctx, score)
	if err != nil {
		return err
	}
	stats.PlayTime -= seconds
	if stats.PlayTime < 0 {
		stats.PlayTime = 0
	}
	return nil
}

func (*PlayTime) ApplyGlobal(context.Context, *models.Score) error { return nil }

// contribution is deterministic for a given score so Revert subtracts
// exactly what Apply added.
func (p *PlayTime) contribution(ctx context.Context, score *models.Score) (int, error) {
	var elapsed int
	if score.StartedAt != nil {
		elapsed = int(score.EndedAt.Sub(*score.StartedAt).Seconds())
		if elapsed < 0 {
			elapsed = 0
		}
	}

	beatmap, err := p.beatmaps.Get(ctx, score.BeatmapID)
	if err != nil {
		return 0, err
	}
	if beatmap == nil {
		return elapsed, nil
	}

	length := int(float64(beatmap.TotalLength) / score.Mods.SpeedMultiplier())
	if score.StartedAt != nil && elapsed < length {
		return elapsed, nil
	}
	return length, nil
}
