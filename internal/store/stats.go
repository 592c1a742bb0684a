package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/beatpulse/score-statistics/internal/models"
)

const userStatsColumns = `
	user_id, ruleset_id, total_score, ranked_score, play_count, play_time,
	total_hits, max_combo, count_ss, count_s, count_a
`

func scanUserStats(row pgx.Row) (*models.UserStats, error) {
	stats := &models.UserStats{}
	err := row.Scan(
		&stats.UserID, &stats.RulesetID, &stats.TotalScore, &stats.RankedScore,
		&stats.PlayCount, &stats.PlayTime, &stats.TotalHits, &stats.MaxCombo,
		&stats.CountSS, &stats.CountS, &stats.CountA,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// UserStats reads the aggregate row for (user, ruleset) without locking.
// Returns (nil, nil) when no row exists.
func (s *Store) UserStats(ctx context.Context, userID int64, ruleset models.Ruleset) (*models.UserStats, error) {
	stats, err := scanUserStats(s.db.QueryRow(ctx, `
		SELECT `+userStatsColumns+` FROM user_stats
		WHERE user_id = $1 AND ruleset_id = $2
	`, userID, ruleset))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user stats %d/%d: %w", userID, ruleset, err)
	}
	return stats, nil
}

// UserStatsForUpdate fetches the aggregate row inside a transaction with a
// row lock, creating it lazily for supported rulesets. Returns (nil, nil)
// for unsupported rulesets: the caller skips the item.
func (s *Store) UserStatsForUpdate(ctx context.Context, q DBTX, userID int64, ruleset models.Ruleset) (*models.UserStats, error) {
	if !ruleset.Valid() {
		return nil, nil
	}

	_, err := q.Exec(ctx, `
		INSERT INTO user_stats (user_id, ruleset_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, ruleset_id) DO NOTHING
	`, userID, ruleset)
	if err != nil {
		return nil, fmt.Errorf("ensure user stats %d/%d: %w", userID, ruleset, err)
	}

	stats, err := scanUserStats(q.QueryRow(ctx, `
		SELECT `+userStatsColumns+` FROM user_stats
		WHERE user_id = $1 AND ruleset_id = $2
		FOR UPDATE
	`, userID, ruleset))
	if err != nil {
		return nil, fmt.Errorf("lock user stats %d/%d: %w", userID, ruleset, err)
	}
	return stats, nil
}

// SaveUserStats persists the mutated aggregate. Runs inside the
// orchestrator's transaction.
func (s *Store) SaveUserStats(ctx context.Context, q DBTX, stats *models.UserStats) error {
	_, err := q.Exec(ctx, `
		UPDATE user_stats SET
			total_score = $3, ranked_score = $4, play_count = $5, play_time = $6,
			total_hits = $7, max_combo = $8, count_ss = $9, count_s = $10, count_a = $11
		WHERE user_id = $1 AND ruleset_id = $2
	`,
		stats.UserID, stats.RulesetID, stats.TotalScore, stats.RankedScore,
		stats.PlayCount, stats.PlayTime, stats.TotalHits, stats.MaxCombo,
		stats.CountSS, stats.CountS, stats.CountA,
	)
	if err != nil {
		return fmt.Errorf("save user stats %d/%d: %w", stats.UserID, stats.RulesetID, err)
	}
	return nil
}
