package medals

import (
	"testing"

	"github.com/beatpulse/score-statistics/internal/models"
)

func TestStatValueSources(t *testing.T) {
	score := &models.Score{TotalScore: 1234, MaxCombo: 567}
	stats := &models.UserStats{
		PlayCount:   10,
		PlayTime:    3600,
		TotalScore:  99999,
		RankedScore: 88888,
		TotalHits:   777,
		MaxCombo:    650,
	}

	cases := []struct {
		stat string
		want int64
	}{
		{"score_total", 1234},
		{"score_combo", 567},
		{"play_count", 10},
		{"play_time", 3600},
		{"total_score", 99999},
		{"ranked_score", 88888},
		{"total_hits", 777},
		{"max_combo", 650},
	}
	for _, tc := range cases {
		got, ok := statValue(tc.stat, score, stats)
		if !ok || got != tc.want {
			t.Errorf("statValue(%s) = %d,%v, want %d,true", tc.stat, got, ok, tc.want)
		}
	}

	if _, ok := statValue("unknown_stat", score, stats); ok {
		t.Error("unknown stat resolved")
	}
}

func TestEvaluateSimpleWithoutStats(t *testing.T) {
	medal := models.Medal{Kind: models.MedalSimple, Stat: "play_count", Threshold: 1}
	if evaluateSimple(medal, &models.Score{}, nil) {
		t.Error("aggregate medal satisfied without a stats row")
	}

	// Score-sourced stats still work without an aggregate.
	medal = models.Medal{Kind: models.MedalSimple, Stat: "score_combo", Threshold: 100}
	if !evaluateSimple(medal, &models.Score{MaxCombo: 150}, nil) {
		t.Error("score-sourced medal should not need a stats row")
	}
}
