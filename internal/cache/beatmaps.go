// Package cache holds the process-local stat caches read by processors:
// memoized beatmap and difficulty-attribute lookups, and the periodically
// rebuilt performance gate (blacklist + build permissions).
package cache

import (
	"context"
	"sync"

	"github.com/beatpulse/score-statistics/internal/models"
)

// BeatmapSource is the underlying beatmap lookup, usually the store.
type BeatmapSource interface {
	Beatmap(ctx context.Context, id int64) (*models.Beatmap, error)
}

// Beatmaps memoizes beatmap lookups for the process lifetime. Misses are
// cached as nil entries so a missing beatmap is fetched at most once.
type Beatmaps struct {
	source BeatmapSource

	mu      sync.Mutex
	entries map[int64]*models.Beatmap
}

func NewBeatmaps(source BeatmapSource) *Beatmaps {
	return &Beatmaps{
		source:  source,
		entries: make(map[int64]*models.Beatmap),
	}
}

// Get returns the beatmap for id, fetching it once on first use.
// Returns (nil, nil) for a cached or fresh miss.
func (c *Beatmaps) Get(ctx context.Context, id int64) (*models.Beatmap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if beatmap, ok := c.entries[id]; ok {
		return beatmap, nil
	}

	beatmap, err := c.source.Beatmap(ctx, id)
	if err != nil {
		return nil, err
	}
	c.entries[id] = beatmap
	return beatmap, nil
}
