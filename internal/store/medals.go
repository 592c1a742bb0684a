package store

import (
	"context"
	"fmt"
	"time"

	"github.com/beatpulse/score-statistics/internal/models"
)

// Medals loads all medal definitions ordered by their declared ordering.
func (s *Store) Medals(ctx context.Context) ([]models.Medal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT medal_id, slug, name, ordering, kind, stat, threshold, pack_id
		FROM medals
		ORDER BY ordering, medal_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load medals: %w", err)
	}
	defer rows.Close()

	var medals []models.Medal
	for rows.Next() {
		var m models.Medal
		var stat *string
		var threshold *int64
		if err := rows.Scan(&m.ID, &m.Slug, &m.Name, &m.Ordering, &m.Kind, &stat, &threshold, &m.PackID); err != nil {
			return nil, err
		}
		if stat != nil {
			m.Stat = *stat
		}
		if threshold != nil {
			m.Threshold = *threshold
		}
		medals = append(medals, m)
	}
	return medals, rows.Err()
}

// Packs loads every pack definition keyed by pack id.
func (s *Store) Packs(ctx context.Context) (map[int64]*models.Pack, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.pack_id, p.no_reduction_mods, i.beatmapset_id
		FROM medal_packs p
		JOIN medal_pack_items i ON i.pack_id = p.pack_id
		ORDER BY p.pack_id, i.beatmapset_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load packs: %w", err)
	}
	defer rows.Close()

	packs := make(map[int64]*models.Pack)
	for rows.Next() {
		var packID, setID int64
		var noReduction bool
		if err := rows.Scan(&packID, &noReduction, &setID); err != nil {
			return nil, err
		}
		pack, ok := packs[packID]
		if !ok {
			pack = &models.Pack{ID: packID, NoReductionMods: noReduction}
			packs[packID] = pack
		}
		pack.BeatmapsetIDs = append(pack.BeatmapsetIDs, setID)
	}
	return packs, rows.Err()
}

// UserMedalIDs returns the set of medal ids already awarded to a user.
func (s *Store) UserMedalIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	rows, err := s.db.Query(ctx, `
		SELECT medal_id FROM user_achievements WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d medals: %w", userID, err)
	}
	defer rows.Close()

	awarded := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		awarded[id] = struct{}{}
	}
	return awarded, rows.Err()
}

// UserAchievements lists a user's award facts, most recent first.
func (s *Store) UserAchievements(ctx context.Context, userID int64) ([]models.UserAchievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, medal_id, score_id, awarded_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY awarded_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d achievements: %w", userID, err)
	}
	defer rows.Close()

	var list []models.UserAchievement
	for rows.Next() {
		var ua models.UserAchievement
		if err := rows.Scan(&ua.UserID, &ua.MedalID, &ua.ScoreID, &ua.AwardedAt); err != nil {
			return nil, err
		}
		list = append(list, ua)
	}
	return list, rows.Err()
}

// InsertUserAchievement appends the award fact. Returns false when the
// (user, medal) pair already exists; the fact is never updated.
func (s *Store) InsertUserAchievement(ctx context.Context, userID, medalID, scoreID int64, awardedAt time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO user_achievements (user_id, medal_id, score_id, awarded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, medal_id) DO NOTHING
	`, userID, medalID, scoreID, awardedAt)
	if err != nil {
		return false, fmt.Errorf("insert achievement %d/%d: %w", userID, medalID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// QualifyingSetIDs returns, for the given beatmapsets, the subset on which
// the user has at least one qualifying score: passed, and free of reduction
// mods when noReduction is set. Completion is evaluated at set granularity,
// so multiple difficulties of one set collapse to a single entry.
func (s *Store) QualifyingSetIDs(ctx context.Context, userID int64, setIDs []int64, noReduction bool) (map[int64]struct{}, error) {
	query := `
		SELECT DISTINCT b.beatmapset_id
		FROM scores s
		JOIN beatmaps b ON b.beatmap_id = s.beatmap_id
		WHERE s.user_id = $1 AND s.passed AND b.beatmapset_id = ANY($2)
	`
	args := []any{userID, setIDs}
	if noReduction {
		query += ` AND (s.mods & $3) = 0`
		args = append(args, int64(models.ReductionMods))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("qualifying sets for user %d: %w", userID, err)
	}
	defer rows.Close()

	qualified := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		qualified[id] = struct{}{}
	}
	return qualified, rows.Err()
}
