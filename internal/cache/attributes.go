package cache

import (
	"context"
	"sync"

	"github.com/beatpulse/score-statistics/internal/models"
)

// AttributeKey identifies one difficulty computation. Mods are stored
// normalized so cosmetically different mod lists share an entry.
type AttributeKey struct {
	BeatmapID int64
	RulesetID models.Ruleset
	Mods      models.Mods
}

// AttributeSource computes difficulty attributes, usually the external
// performance calculator client.
type AttributeSource interface {
	Attributes(ctx context.Context, beatmapID int64, ruleset models.Ruleset, mods models.Mods) (models.DifficultyAttributes, error)
}

// Attributes memoizes difficulty-attribute computations for the process
// lifetime. A nil result ("calculator has no answer") is cached too, so a
// failing combination is computed at most once.
type Attributes struct {
	source AttributeSource

	mu      sync.Mutex
	entries map[AttributeKey]models.DifficultyAttributes
}

func NewAttributes(source AttributeSource) *Attributes {
	return &Attributes{
		source:  source,
		entries: make(map[AttributeKey]models.DifficultyAttributes),
	}
}

// Get returns the attributes for (beatmap, ruleset, mods), computing them
// once on first use. The mod list is normalized before keying.
func (c *Attributes) Get(ctx context.Context, beatmapID int64, ruleset models.Ruleset, mods models.Mods) (models.DifficultyAttributes, error) {
	key := AttributeKey{BeatmapID: beatmapID, RulesetID: ruleset, Mods: mods.Normalized()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if attrs, ok := c.entries[key]; ok {
		return attrs, nil
	}

	attrs, err := c.source.Attributes(ctx, beatmapID, ruleset, key.Mods)
	if err != nil {
		return nil, err
	}
	c.entries[key] = attrs
	return attrs, nil
}
