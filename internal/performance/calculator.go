// Package performance defines the interface to the external
// difficulty/performance calculator. The pipeline never implements the
// ruleset mathematics; it only caches and gates the calculator's outputs.
package performance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/beatpulse/score-statistics/internal/models"
)

// Calculator computes difficulty attributes and performance totals.
// A nil-attributes / nil-error response means the calculator has no result
// for the combination; callers mark the score non-ranked and continue.
type Calculator interface {
	Attributes(ctx context.Context, beatmapID int64, ruleset models.Ruleset, mods models.Mods) (models.DifficultyAttributes, error)
	Total(ctx context.Context, score *models.Score, attrs models.DifficultyAttributes) (float64, error)
}

// HTTPCalculator talks to the calculator service over HTTP.
type HTTPCalculator struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCalculator(baseURL string) *HTTPCalculator {
	return &HTTPCalculator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type attributesRequest struct {
	BeatmapID int64          `json:"beatmap_id"`
	RulesetID models.Ruleset `json:"ruleset_id"`
	Mods      models.Mods    `json:"mods"`
}

type attributesResponse struct {
	Attributes models.DifficultyAttributes `json:"attributes"`
}

func (c *HTTPCalculator) Attributes(ctx context.Context, beatmapID int64, ruleset models.Ruleset, mods models.Mods) (models.DifficultyAttributes, error) {
	var resp attributesResponse
	ok, err := c.post(ctx, "/api/v1/difficulty", attributesRequest{
		BeatmapID: beatmapID, RulesetID: ruleset, Mods: mods,
	}, &resp)
	if err != nil || !ok {
		return nil, err
	}
	return resp.Attributes, nil
}

type totalRequest struct {
	Score      *models.Score               `json:"score"`
	Attributes models.DifficultyAttributes `json:"attributes"`
}

type totalResponse struct {
	Total float64 `json:"total"`
}

func (c *HTTPCalculator) Total(ctx context.Context, score *models.Score, attrs models.DifficultyAttributes) (float64, error) {
	var resp totalResponse
	ok, err := c.post(ctx, "/api/v1/performance", totalRequest{Score: score, Attributes: attrs}, &resp)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("calculator has no performance result for score %d", score.ID)
	}
	return resp.Total, nil
}

// post returns ok=false on 404/422 (no result for this combination) and an
// error for transport failures or other statuses.
func (c *HTTPCalculator) post(ctx context.Context, path string, payload, out any) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("calculator request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode calculator response: %w", err)
		}
		return true, nil
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return false, nil
	default:
		return false, fmt.Errorf("calculator returned status %d", resp.StatusCode)
	}
}

// Unavailable is the Calculator used when no calculator endpoint is
// configured. Every lookup reports "no result", so scores stay non-ranked.
type Unavailable struct{}

func (Unavailable) Attributes(context.Context, int64, models.Ruleset, models.Mods) (models.DifficultyAttributes, error) {
	return nil, nil
}

func (Unavailable) Total(_ context.Context, score *models.Score, _ models.DifficultyAttributes) (float64, error) {
	return 0, fmt.Errorf("no performance calculator configured (score %d)", score.ID)
}
