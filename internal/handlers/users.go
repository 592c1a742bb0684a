package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/beatpulse/score-statistics/internal/models"
)

// StatsReader is the read-only store surface the user endpoints need.
type StatsReader interface {
	UserStats(ctx context.Context, userID int64, ruleset models.Ruleset) (*models.UserStats, error)
	UserAchievements(ctx context.Context, userID int64) ([]models.UserAchievement, error)
}

// UserStats returns the user's aggregate for one ruleset (default osu).
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ruleset := models.RulesetOsu
	if raw := r.URL.Query().Get("ruleset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !models.Ruleset(n).Valid() {
			h.errorResponse(w, http.StatusBadRequest, "invalid ruleset")
			return
		}
		ruleset = models.Ruleset(n)
	}

	stats, err := h.stats.UserStats(r.Context(), userID, ruleset)
	if err != nil {
		h.logger.Errorw("User stats lookup failed", "userID", userID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "stats lookup failed")
		return
	}
	if stats == nil {
		h.errorResponse(w, http.StatusNotFound, "no stats for user")
		return
	}

	h.jsonResponse(w, http.StatusOK, stats)
}

// UserMedals returns every medal the user has been awarded.
func (h *Handler) UserMedals(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid user id")
		return
	}

	achievements, err := h.stats.UserAchievements(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("User medals lookup failed", "userID", userID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "medals lookup failed")
		return
	}
	if achievements == nil {
		achievements = []models.UserAchievement{}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"medals":  achievements,
	})
}
