package mirror

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/beatpulse/score-statistics/internal/models"
)

// Archive appends processed scores to the ClickHouse analytics table.
type Archive struct {
	conn driver.Conn
}

func NewArchive(conn driver.Conn) *Archive {
	return &Archive{conn: conn}
}

func (a *Archive) InsertScore(ctx context.Context, score *models.Score, processedVersion int) error {
	var pp float64
	if score.PP != nil {
		pp = *score.PP
	}

	err := a.conn.AsyncInsert(ctx, `
		INSERT INTO score_stats.processed_scores (
			score_id, user_id, beatmap_id, ruleset_id, passed, ranked,
			total_score, accuracy, max_combo, rank, mods, pp,
			processed_version, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, false,
		score.ID, score.UserID, score.BeatmapID, uint8(score.RulesetID),
		score.Passed, score.Ranked, score.TotalScore, score.Accuracy,
		uint32(score.MaxCombo), string(score.Grade), uint32(score.Mods), pp,
		uint16(processedVersion), score.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("archive score %d: %w", score.ID, err)
	}
	return nil
}
