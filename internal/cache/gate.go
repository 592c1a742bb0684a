package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/models"
	"github.com/beatpulse/score-statistics/internal/store"
)

// GateSource loads the blacklist and build permissions, usually the store.
type GateSource interface {
	PerformanceBlacklist(ctx context.Context) ([]store.BlacklistEntry, error)
	AllowedBuildIDs(ctx context.Context) ([]int64, error)
}

// Gate answers whether a score may earn performance: beatmap blacklist and
// client build permissions. Both sets are rebuilt wholesale on a timer;
// stale reads between refreshes are acceptable because the underlying data
// changes rarely and staleness only delays a decision.
type Gate struct {
	source GateSource
	logger *zap.SugaredLogger

	mu            sync.RWMutex
	blacklist     map[store.BlacklistEntry]struct{}
	allowedBuilds map[int64]struct{}
}

func NewGate(source GateSource, logger *zap.SugaredLogger) *Gate {
	return &Gate{
		source:        source,
		logger:        logger,
		blacklist:     make(map[store.BlacklistEntry]struct{}),
		allowedBuilds: make(map[int64]struct{}),
	}
}

// Refresh rebuilds both sets from the source. On error the previous sets
// are kept.
func (g *Gate) Refresh(ctx context.Context) error {
	entries, err := g.source.PerformanceBlacklist(ctx)
	if err != nil {
		return err
	}
	builds, err := g.source.AllowedBuildIDs(ctx)
	if err != nil {
		return err
	}

	blacklist := make(map[store.BlacklistEntry]struct{}, len(entries))
	for _, e := range entries {
		blacklist[e] = struct{}{}
	}
	allowed := make(map[int64]struct{}, len(builds))
	for _, id := range builds {
		allowed[id] = struct{}{}
	}

	g.mu.Lock()
	g.blacklist = blacklist
	g.allowedBuilds = allowed
	g.mu.Unlock()
	return nil
}

// Start refreshes once immediately and then on every tick until ctx is
// canceled.
func (g *Gate) Start(ctx context.Context, interval time.Duration) {
	if err := g.Refresh(ctx); err != nil {
		g.logger.Errorw("Initial performance gate refresh failed", "error", err)
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := g.Refresh(ctx); err != nil {
					g.logger.Warnw("Performance gate refresh failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// IsBeatmapValidForPerformance reports whether scores on the beatmap may
// earn performance for the given ruleset: not blacklisted, and approval
// status Ranked or Approved.
func (g *Gate) IsBeatmapValidForPerformance(beatmap *models.Beatmap, ruleset models.Ruleset) bool {
	g.mu.RLock()
	_, blacklisted := g.blacklist[store.BlacklistEntry{BeatmapID: beatmap.ID, RulesetID: ruleset}]
	g.mu.RUnlock()
	if blacklisted {
		return false
	}
	return beatmap.Status == models.StatusRanked || beatmap.Status == models.StatusApproved
}

// BuildAllowed reports whether the submitting client build may earn
// performance. Legacy scores carry no build and bypass this check.
func (g *Gate) BuildAllowed(buildID int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.allowedBuilds[buildID]
	return ok
}
