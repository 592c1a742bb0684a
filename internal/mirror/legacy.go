// Package mirror holds the best-effort post-commit collaborators: the
// legacy MySQL stats mirror and the ClickHouse score archive. Both run
// outside the per-user transaction so cross-store writes never hold it open.
package mirror

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/beatpulse/score-statistics/internal/models"
)

// Legacy mirrors the user's headline aggregates into the previous scoring
// system's MySQL table so the old site keeps displaying current numbers.
type Legacy struct {
	db *sql.DB
}

func NewLegacy(db *sql.DB) *Legacy {
	return &Legacy{db: db}
}

func (l *Legacy) UpsertUserStats(ctx context.Context, stats *models.UserStats) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO legacy_user_stats (user_id, ruleset_id, total_score, ranked_score, play_count, play_time, max_combo)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_score = VALUES(total_score),
			ranked_score = VALUES(ranked_score),
			play_count = VALUES(play_count),
			play_time = VALUES(play_time),
			max_combo = VALUES(max_combo)
	`,
		stats.UserID, stats.RulesetID, stats.TotalScore, stats.RankedScore,
		stats.PlayCount, stats.PlayTime, stats.MaxCombo,
	)
	if err != nil {
		return fmt.Errorf("mirror user stats %d/%d: %w", stats.UserID, stats.RulesetID, err)
	}
	return nil
}
