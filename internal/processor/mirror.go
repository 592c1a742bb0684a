package processor

import (
	"context"

	"github.com/beatpulse/score-statistics/internal/mirror"
	"github.com/beatpulse/score-statistics/internal/models"
)

// StatsReader loads the committed aggregate for the legacy mirror. Reading
// after commit guarantees the mirrored row reflects what the transaction
// actually wrote.
type StatsReader interface {
	UserStats(ctx context.Context, userID int64, ruleset models.Ruleset) (*models.UserStats, error)
}

// LegacyMirror pushes the user's committed aggregates to the old MySQL
// stats table after every processed score.
type LegacyMirror struct {
	stats  StatsReader
	legacy *mirror.Legacy
}

func NewLegacyMirror(stats StatsReader, legacy *mirror.Legacy) *LegacyMirror {
	return &LegacyMirror{stats: stats, legacy: legacy}
}

func (*LegacyMirror) Name() string            { return "legacy_mirror" }
func (*LegacyMirror) Order() int              { return 70 }
func (*LegacyMirror) RunOnFailedScores() bool { return false }
func (*LegacyMirror) RunOnLegacyScores() bool { return true }

func (*LegacyMirror) Apply(context.Context, *models.Score, *models.UserStats) error { return nil }

func (*LegacyMirror) Revert(context.Context, *models.Score, *models.UserStats, int) error {
	return nil
}

func (m *LegacyMirror) ApplyGlobal(ctx context.Context, score *models.Score) error {
	stats, err := m.stats.UserStats(ctx, score.UserID, score.RulesetID)
	if err != nil {
		return err
	}
	if stats == nil {
		return nil
	}
	return m.legacy.UpsertUserStats(ctx, stats)
}

// ScoreArchive appends every processed score, failed ones included, to the
// ClickHouse analytics table.
type ScoreArchive struct {
	archive *mirror.Archive
}

func NewScoreArchive(archive *mirror.Archive) *ScoreArchive {
	return &ScoreArchive{archive: archive}
}

func (*ScoreArchive) Name() string            { return "score_archive" }
func (*ScoreArchive) Order() int              { return 80 }
func (*ScoreArchive) RunOnFailedScores() bool { return true }
func (*ScoreArchive) RunOnLegacyScores() bool { return true }

func (*ScoreArchive) Apply(context.Context, *models.Score, *models.UserStats) error { return nil }

func (*ScoreArchive) Revert(context.Context, *models.Score, *models.UserStats, int) error {
	return nil
}

func (a *ScoreArchive) ApplyGlobal(ctx context.Context, score *models.Score) error {
	return a.archive.InsertScore(ctx, score, CurrentVersion)
}
