package processor

import (
	"context"
	"fmt"

	"github.com/beatpulse/score-statistics/internal/cache"
	"github.com/beatpulse/score-statistics/internal/models"
	"github.com/beatpulse/score-statistics/internal/store"
)

// mockBeatmapSource serves beatmaps from a map and counts fetches.
type mockBeatmapSource struct {
	beatmaps map[int64]*models.Beatmap
	calls    int
}

func (m *mockBeatmapSource) Beatmap(_ context.Context, id int64) (*models.Beatmap, error) {
	m.calls++
	return m.beatmaps[id], nil
}

func newBeatmapCache(beatmaps ...*models.Beatmap) *cache.Beatmaps {
	src := &mockBeatmapSource{beatmaps: make(map[int64]*models.Beatmap)}
	for _, b := range beatmaps {
		src.beatmaps[b.ID] = b
	}
	return cache.NewBeatmaps(src)
}

// mockGateSource feeds the performance gate.
type mockGateSource struct {
	blacklist []store.BlacklistEntry
	builds    []int64
}

func (m *mockGateSource) PerformanceBlacklist(context.Context) ([]store.BlacklistEntry, error) {
	return m.blacklist, nil
}

func (m *mockGateSource) AllowedBuildIDs(context.Context) ([]int64, error) {
	return m.builds, nil
}

// mockCalculator returns canned attributes and totals.
type mockCalculator struct {
	attrs     models.DifficultyAttributes
	total     float64
	totalErr  error
	attrCalls int
}

func (m *mockCalculator) Attributes(context.Context, int64, models.Ruleset, models.Mods) (models.DifficultyAttributes, error) {
	m.attrCalls++
	return m.attrs, nil
}

func (m *mockCalculator) Total(context.Context, *models.Score, models.DifficultyAttributes) (float64, error) {
	return m.total, m.totalErr
}

// mockDatastore records the orchestrator's persistence calls.
type mockDatastore struct {
	stats *models.UserStats // returned by UserStatsForUpdate, nil means no row

	savedStats       *models.UserStats
	savedPerformance *models.Score
	historyVersion   int
	historyUpserted  bool
	preservedScores  []int64
	txCount          int
}

func (m *mockDatastore) WithTx(_ context.Context, fn func(q store.DBTX) error) error {
	m.txCount++
	return fn(nil)
}

func (m *mockDatastore) UserStatsForUpdate(context.Context, store.DBTX, int64, models.Ruleset) (*models.UserStats, error) {
	return m.stats, nil
}

func (m *mockDatastore) SaveUserStats(_ context.Context, _ store.DBTX, stats *models.UserStats) error {
	copied := *stats
	m.savedStats = &copied
	return nil
}

func (m *mockDatastore) SaveScorePerformance(_ context.Context, _ store.DBTX, score *models.Score) error {
	m.savedPerformance = score
	return nil
}

func (m *mockDatastore) UpsertProcessHistory(_ context.Context, _ store.DBTX, _ int64, version int) error {
	m.historyUpserted = true
	m.historyVersion = version
	return nil
}

func (m *mockDatastore) MarkScorePreserved(_ context.Context, scoreID int64) error {
	m.preservedScores = append(m.preservedScores, scoreID)
	return nil
}

// mockPublisher records outbound notifications.
type mockPublisher struct {
	indexPushes []int64
	published   []int64
	failAll     bool
}

func (m *mockPublisher) PushToIndex(_ context.Context, scoreID int64) error {
	if m.failAll {
		return fmt.Errorf("redis down")
	}
	m.indexPushes = append(m.indexPushes, scoreID)
	return nil
}

func (m *mockPublisher) PublishProcessed(_ context.Context, scoreID int64, _ int) error {
	if m.failAll {
		return fmt.Errorf("redis down")
	}
	m.published = append(m.published, scoreID)
	return nil
}

// recordingProcessor logs every call so ordering can be asserted.
type recordingProcessor struct {
	name     string
	order    int
	onFailed bool
	onLegacy bool
	applyErr error

	calls *[]string
}

func (p *recordingProcessor) Name() string            { return p.name }
func (p *recordingProcessor) Order() int              { return p.order }
func (p *recordingProcessor) RunOnFailedScores() bool { return p.onFailed }
func (p *recordingProcessor) RunOnLegacyScores() bool { return p.onLegacy }

func (p *recordingProcessor) Apply(context.Context, *models.Score, *models.UserStats) error {
	if p.applyErr != nil {
		return p.applyErr
	}
	*p.calls = append(*p.calls, "apply:"+p.name)
	return nil
}

func (p *recordingProcessor) Revert(context.Context, *models.Score, *models.UserStats, int) error {
	*p.calls = append(*p.calls, "revert:"+p.name)
	return nil
}

func (p *recordingProcessor) ApplyGlobal(context.Context, *models.Score) error {
	*p.calls = append(*p.calls, "global:"+p.name)
	return nil
}
