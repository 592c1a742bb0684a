package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/beatpulse/score-statistics/internal/models"
)

// Score loads a submitted score by id. Returns (nil, nil) when the score
// does not exist.
func (s *Store) Score(ctx context.Context, id int64) (*models.Score, error) {
	query := `
		SELECT score_id, user_id, beatmap_id, ruleset_id, build_id, passed,
		       total_score, accuracy, max_combo, rank, statistics, mods,
		       legacy_score_id, started_at, ended_at, pp, ranked
		FROM scores
		WHERE score_id = $1
	`

	score := &models.Score{}
	var statsJSON []byte
	var mods int64
	err := s.db.QueryRow(ctx, query, id).Scan(
		&score.ID, &score.UserID, &score.BeatmapID, &score.RulesetID,
		&score.BuildID, &score.Passed, &score.TotalScore, &score.Accuracy,
		&score.MaxCombo, &score.Grade, &statsJSON, &mods,
		&score.LegacyScoreID, &score.StartedAt, &score.EndedAt,
		&score.PP, &score.Ranked,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load score %d: %w", id, err)
	}

	score.Mods = models.Mods(mods)
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &score.Statistics); err != nil {
			return nil, fmt.Errorf("decode score %d statistics: %w", id, err)
		}
	}
	return score, nil
}

// SaveScorePerformance writes back the computed performance value and the
// ranked flag. Runs inside the orchestrator's transaction.
func (s *Store) SaveScorePerformance(ctx context.Context, q DBTX, score *models.Score) error {
	_, err := q.Exec(ctx, `
		UPDATE scores SET pp = $2, ranked = $3 WHERE score_id = $1
	`, score.ID, score.PP, score.Ranked)
	if err != nil {
		return fmt.Errorf("save score %d performance: %w", score.ID, err)
	}
	return nil
}

// MarkScorePreserved flags a passed score as exempt from deletion.
// Post-commit, best-effort.
func (s *Store) MarkScorePreserved(ctx context.Context, scoreID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE scores SET preserved = true WHERE score_id = $1
	`, scoreID)
	return err
}

// UserScoreIDs lists a user's score ids for one ruleset in ascending order,
// the replay order used by batch reprocessing.
func (s *Store) UserScoreIDs(ctx context.Context, userID int64, ruleset models.Ruleset) ([]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT score_id FROM scores
		WHERE user_id = $1 AND ruleset_id = $2
		ORDER BY score_id
	`, userID, ruleset)
	if err != nil {
		return nil, fmt.Errorf("list scores for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProcessHistory returns the processing record for a score, or (nil, nil)
// when the score has never been processed.
func (s *Store) ProcessHistory(ctx context.Context, scoreID int64) (*models.ProcessHistory, error) {
	history := &models.ProcessHistory{}
	err := s.db.QueryRow(ctx, `
		SELECT score_id, processed_version, processed_at
		FROM score_process_history
		WHERE score_id = $1
	`, scoreID).Scan(&history.ScoreID, &history.ProcessedVersion, &history.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load process history %d: %w", scoreID, err)
	}
	return history, nil
}

// UpsertProcessHistory records that a score was processed at the given
// pipeline version. Runs inside the orchestrator's transaction.
func (s *Store) UpsertProcessHistory(ctx context.Context, q DBTX, scoreID int64, version int) error {
	_, err := q.Exec(ctx, `
		INSERT INTO score_process_history (score_id, processed_version, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (score_id)
		DO UPDATE SET processed_version = EXCLUDED.processed_version, processed_at = NOW()
	`, scoreID, version)
	if err != nil {
		return fmt.Errorf("upsert process history %d: %w", scoreID, err)
	}
	return nil
}
