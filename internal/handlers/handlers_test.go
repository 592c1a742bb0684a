package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/medals"
	"github.com/beatpulse/score-statistics/internal/models"
)

type fakeStatsReader struct {
	stats        map[int64]*models.UserStats
	achievements map[int64][]models.UserAchievement
}

func (f *fakeStatsReader) UserStats(_ context.Context, userID int64, _ models.Ruleset) (*models.UserStats, error) {
	return f.stats[userID], nil
}

func (f *fakeStatsReader) UserAchievements(_ context.Context, userID int64) ([]models.UserAchievement, error) {
	return f.achievements[userID], nil
}

// fakeMedalStore backs the engine for the reload endpoint.
type fakeMedalStore struct {
	reloads int
}

func (f *fakeMedalStore) Medals(context.Context) ([]models.Medal, error) {
	f.reloads++
	return nil, nil
}

func (f *fakeMedalStore) Packs(context.Context) (map[int64]*models.Pack, error) {
	return map[int64]*models.Pack{}, nil
}

func (f *fakeMedalStore) UserMedalIDs(context.Context, int64) (map[int64]struct{}, error) {
	return nil, nil
}

func (f *fakeMedalStore) UserStats(context.Context, int64, models.Ruleset) (*models.UserStats, error) {
	return nil, nil
}

func (f *fakeMedalStore) QualifyingSetIDs(context.Context, int64, []int64, bool) (map[int64]struct{}, error) {
	return nil, nil
}

func (f *fakeMedalStore) InsertUserAchievement(context.Context, int64, int64, int64, time.Time) (bool, error) {
	return false, nil
}

func newTestHandler(stats *fakeStatsReader, store *fakeMedalStore) http.Handler {
	engine := medals.NewEngine(store, zap.NewNop().Sugar(), time.Hour)
	h := New(stats, engine, zap.NewNop().Sugar())
	return h.Router([]string{"*"})
}

func TestHealth(t *testing.T) {
	router := newTestHandler(&fakeStatsReader{}, &fakeMedalStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
}

func TestUserStatsEndpoint(t *testing.T) {
	stats := &fakeStatsReader{stats: map[int64]*models.UserStats{
		7: {UserID: 7, RulesetID: models.RulesetOsu, PlayCount: 42},
	}}
	router := newTestHandler(stats, &fakeMedalStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/users/7/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got models.UserStats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != 7 || got.PlayCount != 42 {
		t.Errorf("got %+v, want user 7 with 42 plays", got)
	}
}

func TestUserStatsNotFound(t *testing.T) {
	router := newTestHandler(&fakeStatsReader{}, &fakeMedalStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/users/999/stats", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestUserStatsBadInput(t *testing.T) {
	router := newTestHandler(&fakeStatsReader{}, &fakeMedalStore{})

	cases := []string{
		"/api/v1/users/abc/stats",
		"/api/v1/users/7/stats?ruleset=9",
		"/api/v1/users/7/stats?ruleset=x",
	}
	for _, path := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", path, rec.Code)
		}
	}
}

func TestUserMedalsEndpoint(t *testing.T) {
	stats := &fakeStatsReader{achievements: map[int64][]models.UserAchievement{
		7: {{UserID: 7, MedalID: 3, ScoreID: 100}},
	}}
	router := newTestHandler(stats, &fakeMedalStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/users/7/medals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var body struct {
		UserID int64                    `json:"user_id"`
		Medals []models.UserAchievement `json:"medals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Medals) != 1 || body.Medals[0].MedalID != 3 {
		t.Errorf("medals %+v, want one with id 3", body.Medals)
	}
}

func TestUserMedalsEmptyList(t *testing.T) {
	router := newTestHandler(&fakeStatsReader{}, &fakeMedalStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/users/7/medals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var body struct {
		Medals []models.UserAchievement `json:"medals"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Medals == nil {
		t.Error("medals should serialize as an empty list, not null")
	}
}

func TestReloadMedals(t *testing.T) {
	store := &fakeMedalStore{}
	router := newTestHandler(&fakeStatsReader{}, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/system/reload-medals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if store.reloads != 1 {
		t.Errorf("reloads %d, want 1", store.reloads)
	}
}
