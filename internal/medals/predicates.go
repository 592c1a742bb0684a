package medals

import "github.com/beatpulse/score-statistics/internal/models"

// evaluateSimple checks a threshold medal against the just-updated aggregate
// and the triggering score.
func evaluateSimple(medal models.Medal, score *models.Score, stats *models.UserStats) bool {
	value, ok := statValue(medal.Stat, score, stats)
	return ok && value >= medal.Threshold
}

func statValue(stat string, score *models.Score, stats *models.UserStats) (int64, bool) {
	switch stat {
	case "score_total":
		return score.TotalScore, true
	case "score_combo":
		return int64(score.MaxCombo), true
	}

	if stats == nil {
		return 0, false
	}
	switch stat {
	case "play_count":
		return int64(stats.PlayCount), true
	case "play_time":
		return int64(stats.PlayTime), true
	case "total_score":
		return stats.TotalScore, true
	case "ranked_score":
		return stats.RankedScore, true
	case "total_hits":
		return stats.TotalHits, true
	case "max_combo":
		return int64(stats.MaxCombo), true
	default:
		return 0, false
	}
}
