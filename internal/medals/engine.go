// Package medals implements the achievement award engine: a stateful
// at-most-once completion tracker over simple aggregate thresholds and
// multi-beatmapset pack conditions.
package medals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/models"
)

var medalsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scorestats_medals_awarded_total",
	Help: "Total number of medals awarded",
})

// Store is the persistence surface the engine needs.
type Store interface {
	Medals(ctx context.Context) ([]models.Medal, error)
	Packs(ctx context.Context) (map[int64]*models.Pack, error)
	UserMedalIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
	UserStats(ctx context.Context, userID int64, ruleset models.Ruleset) (*models.UserStats, error)
	QualifyingSetIDs(ctx context.Context, userID int64, setIDs []int64, noReduction bool) (map[int64]struct{}, error)
	InsertUserAchievement(ctx context.Context, userID, medalID, scoreID int64, awardedAt time.Time) (bool, error)
}

// Award is the notification emitted synchronously after each award decision.
// Delivery is in-process and not durable: a crash between the fact insert
// and emission loses the notification, never the award.
type Award struct {
	UserID  int64
	MedalID int64
	Score   *models.Score
}

// Observer receives award notifications.
type Observer func(Award)

// Engine evaluates medal conditions against each processed score. Medal and
// pack definitions are reloaded when older than reloadAfter, or explicitly
// via Reload.
type Engine struct {
	store       Store
	logger      *zap.SugaredLogger
	reloadAfter time.Duration

	mu       sync.RWMutex
	medals   []models.Medal
	packs    map[int64]*models.Pack
	loadedAt time.Time

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

func NewEngine(store Store, logger *zap.SugaredLogger, reloadAfter time.Duration) *Engine {
	if reloadAfter <= 0 {
		reloadAfter = 5 * time.Minute
	}
	return &Engine{
		store:       store,
		logger:      logger,
		reloadAfter: reloadAfter,
		packs:       make(map[int64]*models.Pack),
		observers:   make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns its remove function. There is
// no ambient global subscriber list; wiring is explicit.
func (e *Engine) Subscribe(obs Observer) (unsubscribe func()) {
	e.obsMu.Lock()
	id := e.nextObsID
	e.nextObsID++
	e.observers[id] = obs
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		delete(e.observers, id)
		e.obsMu.Unlock()
	}
}

// Reload replaces the medal and pack definitions from the store.
func (e *Engine) Reload(ctx context.Context) error {
	medals, err := e.store.Medals(ctx)
	if err != nil {
		return fmt.Errorf("reload medals: %w", err)
	}
	packs, err := e.store.Packs(ctx)
	if err != nil {
		return fmt.Errorf("reload packs: %w", err)
	}

	e.mu.Lock()
	e.medals = medals
	e.packs = packs
	e.loadedAt = time.Now()
	e.mu.Unlock()

	e.logger.Infow("Loaded medal definitions", "medals", len(medals), "packs", len(packs))
	return nil
}

// Check evaluates every not-yet-awarded medal for the score's user. Failed
// scores never trigger evaluation.
func (e *Engine) Check(ctx context.Context, score *models.Score) error {
	if !score.Passed {
		return nil
	}

	medals, packs, err := e.definitions(ctx)
	if err != nil {
		return err
	}
	if len(medals) == 0 {
		return nil
	}

	awarded, err := e.store.UserMedalIDs(ctx, score.UserID)
	if err != nil {
		return err
	}

	// Stats were committed before this runs, so the load observes the
	// just-updated aggregate.
	stats, err := e.store.UserStats(ctx, score.UserID, score.RulesetID)
	if err != nil {
		return err
	}

	for _, medal := range medals {
		if _, done := awarded[medal.ID]; done {
			continue
		}

		satisfied, err := e.satisfied(ctx, medal, packs, score, stats)
		if err != nil {
			return err
		}
		if satisfied {
			if err := e.award(ctx, medal, score); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) definitions(ctx context.Context) ([]models.Medal, map[int64]*models.Pack, error) {
	e.mu.RLock()
	stale := time.Since(e.loadedAt) > e.reloadAfter
	medals, packs := e.medals, e.packs
	e.mu.RUnlock()

	if stale {
		if err := e.Reload(ctx); err != nil {
			return nil, nil, err
		}
		e.mu.RLock()
		medals, packs = e.medals, e.packs
		e.mu.RUnlock()
	}
	return medals, packs, nil
}

func (e *Engine) satisfied(ctx context.Context, medal models.Medal, packs map[int64]*models.Pack, score *models.Score, stats *models.UserStats) (bool, error) {
	switch medal.Kind {
	case models.MedalSimple:
		return evaluateSimple(medal, score, stats), nil
	case models.MedalPack:
		if medal.PackID == nil {
			e.logger.Warnw("Pack medal without pack id", "medal", medal.Slug)
			return false, nil
		}
		pack, ok := packs[*medal.PackID]
		if !ok {
			e.logger.Warnw("Pack medal references unknown pack", "medal", medal.Slug, "packID", *medal.PackID)
			return false, nil
		}
		return e.packCompleted(ctx, score.UserID, pack)
	default:
		e.logger.Warnw("Unknown medal kind", "medal", medal.Slug, "kind", medal.Kind)
		return false, nil
	}
}

// packCompleted recomputes completion from the user's full qualifying-score
// history: sets can be completed in any order, and a disqualifying play may
// later be replaced by a qualifying one. Completion is at set granularity.
func (e *Engine) packCompleted(ctx context.Context, userID int64, pack *models.Pack) (bool, error) {
	if len(pack.BeatmapsetIDs) == 0 {
		return false, nil
	}

	qualified, err := e.store.QualifyingSetIDs(ctx, userID, pack.BeatmapsetIDs, pack.NoReductionMods)
	if err != nil {
		return false, err
	}

	for _, setID := range pack.BeatmapsetIDs {
		if _, ok := qualified[setID]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// award inserts the fact and, only when this call created it, notifies the
// observers synchronously so they see monotonically increasing award facts.
func (e *Engine) award(ctx context.Context, medal models.Medal, score *models.Score) error {
	inserted, err := e.store.InsertUserAchievement(ctx, score.UserID, medal.ID, score.ID, time.Now())
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	medalsAwarded.Inc()
	e.logger.Infow("Medal awarded", "medal", medal.Slug, "userID", score.UserID, "scoreID", score.ID)

	e.obsMu.Lock()
	observers := make([]Observer, 0, len(e.observers))
	for _, obs := range e.observers {
		observers = append(observers, obs)
	}
	e.obsMu.Unlock()

	for _, obs := range observers {
		obs(Award{UserID: score.UserID, MedalID: medal.ID, Score: score})
	}
	return nil
}
