package processor

import (
	"context"

	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/cache"
	"github.com/beatpulse/score-statistics/internal/models"
	"github.com/beatpulse/score-statistics/internal/performance"
)

// Performance computes the score's performance total and ranked flag. A
// score that cannot earn performance (unknown beatmap, blacklisted pair,
// disallowed build or mods, calculator silence) is marked non-ranked and
// the pipeline continues; none of these conditions is fatal.
type Performance struct {
	beatmaps   *cache.Beatmaps
	attributes *cache.Attributes
	gate       *cache.Gate
	calculator performance.Calculator
	logger     *zap.SugaredLogger
}

func NewPerformance(beatmaps *cache.Beatmaps, attributes *cache.Attributes, gate *cache.Gate, calculator performance.Calculator, logger *zap.SugaredLogger) *Performance {
	return &Performance{
		beatmaps:   beatmaps,
		attributes: attributes,
		gate:       gate,
		calculator: calculator,
		logger:     logger,
	}
}

func (*Performance) Name() string            { return "performance" }
func (*Performance) Order() int              { return 40 }
func (*Performance) RunOnFailedScores() bool { return false }
func (*Performance) RunOnLegacyScores() bool { return false }

func (p *Performance) Apply(ctx context.Context, score *models.Score, _ *models.UserStats) error {
	beatmap, err := p.beatmaps.Get(ctx, score.BeatmapID)
	if err != nil {
		return err
	}
	if beatmap == nil {
		return p.markNonRanked(score, "beatmap not found")
	}
	if !p.gate.IsBeatmapValidForPerformance(beatmap, score.RulesetID) {
		return p.markNonRanked(score, "beatmap not valid for performance")
	}
	if !score.IsLegacyScore() && !p.gate.BuildAllowed(score.BuildID) {
		return p.markNonRanked(score, "build not allowed")
	}
	if !score.Mods.AllowsPerformance() {
		return p.markNonRanked(score, "mods not eligible")
	}

	attrs, err := p.attributes.Get(ctx, score.BeatmapID, score.RulesetID, score.Mods)
	if err != nil {
		return err
	}
	if attrs == nil {
		return p.markNonRanked(score, "no difficulty attributes")
	}

	total, err := p.calculator.Total(ctx, score, attrs)
	if err != nil {
		p.logger.Warnw("Performance calculation unavailable",
			"scoreID", score.ID, "beatmapID", score.BeatmapID, "error", err)
		return p.markNonRanked(score, "calculation unavailable")
	}

	score.PP = &total
	score.Ranked = true
	return nil
}

// Revert leaves the aggregate untouched: the performance value lives on the
// score row and is fully recomputed by the next Apply.
func (*Performance) Revert(context.Context, *models.Score, *models.UserStats, int) error {
	return nil
}

func (*Performance) ApplyGlobal(context.Context, *models.Score) error { return nil }

func (p *Performance) markNonRanked(score *models.Score, reason string) error {
	score.PP = nil
	score.Ranked = false
	p.logger.Debugw("Score marked non-ranked", "scoreID", score.ID, "reason", reason)
	return nil
}
