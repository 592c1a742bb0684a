package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/beatpulse/score-statistics/internal/models"
)

// Beatmap loads beatmap reference data by id. Returns (nil, nil) when the
// beatmap is unknown so callers can cache the miss.
func (s *Store) Beatmap(ctx context.Context, id int64) (*models.Beatmap, error) {
	beatmap := &models.Beatmap{}
	err := s.db.QueryRow(ctx, `
		SELECT beatmap_id, beatmapset_id, status, playmode, total_length
		FROM beatmaps
		WHERE beatmap_id = $1
	`, id).Scan(&beatmap.ID, &beatmap.SetID, &beatmap.Status, &beatmap.Playmode, &beatmap.TotalLength)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load beatmap %d: %w", id, err)
	}
	return beatmap, nil
}

// BlacklistEntry excludes one (beatmap, ruleset) pair from performance.
type BlacklistEntry struct {
	BeatmapID int64
	RulesetID models.Ruleset
}

// PerformanceBlacklist loads the full blacklist for the wholesale cache
// refresh.
func (s *Store) PerformanceBlacklist(ctx context.Context) ([]BlacklistEntry, error) {
	rows, err := s.db.Query(ctx, `SELECT beatmap_id, ruleset_id FROM performance_blacklist`)
	if err != nil {
		return nil, fmt.Errorf("load performance blacklist: %w", err)
	}
	defer rows.Close()

	var entries []BlacklistEntry
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.BeatmapID, &e.RulesetID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AllowedBuildIDs loads the ids of client builds whose scores may earn
// performance, for the wholesale cache refresh.
func (s *Store) AllowedBuildIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT build_id FROM builds WHERE allow_performance`)
	if err != nil {
		return nil, fmt.Errorf("load allowed builds: %w", err)
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
