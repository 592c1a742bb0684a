package processor

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/models"
)

func testScore() *models.Score {
	return &models.Score{
		ID:        1001,
		UserID:    7,
		BeatmapID: 55,
		RulesetID: models.RulesetOsu,
		Passed:    true,
	}
}

func TestProcessScoreSkipsCurrentVersion(t *testing.T) {
	db := &mockDatastore{stats: &models.UserStats{UserID: 7}}
	pub := &mockPublisher{}
	var calls []string
	registry := NewRegistry(&recordingProcessor{name: "p", order: 0, calls: &calls})
	orch := NewOrchestrator(db, registry, pub, zap.NewNop().Sugar())

	item := Item{
		Score:   testScore(),
		History: &models.ProcessHistory{ScoreID: 1001, ProcessedVersion: CurrentVersion},
	}
	if err := orch.ProcessScore(context.Background(), item); err != nil {
		t.Fatalf("ProcessScore: %v", err)
	}

	if db.txCount != 0 {
		t.Errorf("expected no transaction, got %d", db.txCount)
	}
	if len(calls) != 0 {
		t.Errorf("expected no processor calls, got %v", calls)
	}
	if len(pub.published) != 0 {
		t.Errorf("expected no publish, got %v", pub.published)
	}
}

func TestProcessScoreSkipsWithoutStatsRow(t *testing.T) {
	db := &mockDatastore{stats: nil}
	pub := &mockPublisher{}
	var calls []string
	registry := NewRegistry(&recordingProcessor{name: "p", order: 0, calls: &calls})
	orch := NewOrchestrator(db, registry, pub, zap.NewNop().Sugar())

	if err := orch.ProcessScore(context.Background(), Item{Score: testScore()}); err != nil {
		t.Fatalf("expected silent skip, got %v", err)
	}

	if db.historyUpserted {
		t.Error("history must not be written for a skipped score")
	}
	if len(calls) != 0 {
		t.Errorf("expected no processor calls, got %v", calls)
	}
	if len(pub.indexPushes) != 0 {
		t.Errorf("expected no index push, got %v", pub.indexPushes)
	}
}

func TestProcessScoreAppliesInOrderAndPersists(t *testing.T) {
	db := &mockDatastore{stats: &models.UserStats{UserID: 7}}
	pub := &mockPublisher{}
	var calls []string
	registry := NewRegistry(
		&recordingProcessor{name: "second", order: 10, calls: &calls},
		&recordingProcessor{name: "first", order: 0, calls: &calls},
	)
	orch := NewOrchestrator(db, registry, pub, zap.NewNop().Sugar())

	if err := orch.ProcessScore(context.Background(), Item{Score: testScore()}); err != nil {
		t.Fatalf("ProcessScore: %v", err)
	}

	want := []string{"apply:first", "apply:second", "global:first", "global:second"}
	if len(calls) != len(want) {
		t.Fatalf("calls %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: got %s, want %s", i, calls[i], want[i])
		}
	}

	if db.savedStats == nil {
		t.Error("user stats were not saved")
	}
	if !db.historyUpserted || db.historyVersion != CurrentVersion {
		t.Errorf("history version %d, want %d", db.historyVersion, CurrentVersion)
	}
	if len(db.preservedScores) != 1 || db.preservedScores[0] != 1001 {
		t.Errorf("preserved %v, want [1001]", db.preservedScores)
	}
	if len(pub.indexPushes) != 1 || len(pub.published) != 1 {
		t.Errorf("pushes=%v published=%v, want one each", pub.indexPushes, pub.published)
	}
}

func TestProcessScoreRevertsBeforeApplyOnUpgrade(t *testing.T) {
	db := &mockDatastore{stats: &models.UserStats{UserID: 7}}
	pub := &mockPublisher{}
	var calls []string
	registry := NewRegistry(&recordingProcessor{name: "p", order: 0, calls: &calls})
	orch := NewOrchestrator(db, registry, pub, zap.NewNop().Sugar())

	item := Item{
		Score:   testScore(),
		History: &models.ProcessHistory{ScoreID: 1001, ProcessedVersion: CurrentVersion - 1},
	}
	if err := orch.ProcessScore(context.Background(), item); err != nil {
		t.Fatalf("ProcessScore: %v", err)
	}

	want := []string{"revert:p", "apply:p", "global:p"}
	if len(calls) != len(want) {
		t.Fatalf("calls %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: got %s, want %s", i, calls[i], want[i])
		}
	}
	if db.historyVersion != CurrentVersion {
		t.Errorf("history version %d, want %d", db.historyVersion, CurrentVersion)
	}
}

func TestProcessScoreFailedScoreSkipsPassedOnlyProcessors(t *testing.T) {
	db := &mockDatastore{stats: &models.UserStats{UserID: 7}}
	pub := &mockPublisher{}
	var calls []string
	registry := NewRegistry(
		&recordingProcessor{name: "all", order: 0, onFailed: true, onLegacy: true, calls: &calls},
		&recordingProcessor{name: "passed_only", order: 10, calls: &calls},
	)
	orch := NewOrchestrator(db, registry, pub, zap.NewNop().Sugar())

	score := testScore()
	score.Passed = false
	if err := orch.ProcessScore(context.Background(), Item{Score: score}); err != nil {
		t.Fatalf("ProcessScore: %v", err)
	}

	for _, call := range calls {
		if call == "apply:passed_only" || call == "global:passed_only" {
			t.Errorf("passed-only processor ran for a failed score: %v", calls)
		}
	}
	// Failed scores are never preserved.
	if len(db.preservedScores) != 0 {
		t.Errorf("failed score was preserved: %v", db.preservedScores)
	}
}

func TestProcessScoreApplyErrorAbortsTransaction(t *testing.T) {
	db := &mockDatastore{stats: &models.UserStats{UserID: 7}}
	pub := &mockPublisher{}
	var calls []string
	registry := NewRegistry(&recordingProcessor{
		name: "broken", order: 0, applyErr: errors.New("boom"), calls: &calls,
	})
	orch := NewOrchestrator(db, registry, pub, zap.NewNop().Sugar())

	err := orch.ProcessScore(context.Background(), Item{Score: testScore()})
	if err == nil {
		t.Fatal("expected error from failing processor")
	}

	if db.savedStats != nil {
		t.Error("stats saved despite failed apply")
	}
	if len(pub.indexPushes) != 0 || len(pub.published) != 0 {
		t.Error("side effects ran despite failed transaction")
	}
}

func TestProcessScoreSideEffectFailuresAreNotFatal(t *testing.T) {
	db := &mockDatastore{stats: &models.UserStats{UserID: 7}}
	pub := &mockPublisher{failAll: true}
	var calls []string
	registry := NewRegistry(&recordingProcessor{name: "p", order: 0, calls: &calls})
	orch := NewOrchestrator(db, registry, pub, zap.NewNop().Sugar())

	if err := orch.ProcessScore(context.Background(), Item{Score: testScore()}); err != nil {
		t.Fatalf("side effect failure leaked out: %v", err)
	}
	if !db.historyUpserted {
		t.Error("transaction should have committed")
	}
}
