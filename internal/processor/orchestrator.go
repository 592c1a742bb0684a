package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/models"
	"github.com/beatpulse/score-statistics/internal/store"
)

// errStatsMissing tags the silent skip for items without a user stats row
// (unsupported ruleset / malformed submission). Never surfaced to callers.
var errStatsMissing = errors.New("no user stats row for score")

// Datastore is the transactional persistence surface the orchestrator needs.
type Datastore interface {
	WithTx(ctx context.Context, fn func(q store.DBTX) error) error
	UserStatsForUpdate(ctx context.Context, q store.DBTX, userID int64, ruleset models.Ruleset) (*models.UserStats, error)
	SaveUserStats(ctx context.Context, q store.DBTX, stats *models.UserStats) error
	SaveScorePerformance(ctx context.Context, q store.DBTX, score *models.Score) error
	UpsertProcessHistory(ctx context.Context, q store.DBTX, scoreID int64, version int) error
	MarkScorePreserved(ctx context.Context, scoreID int64) error
}

// Publisher delivers the best-effort outbound notifications.
type Publisher interface {
	PushToIndex(ctx context.Context, scoreID int64) error
	PublishProcessed(ctx context.Context, scoreID int64, version int) error
}

// Item bundles a score with its processing history, if any. This is the
// unit of work delivered by the queue and by the batch reprocessor.
type Item struct {
	Score   *models.Score
	History *models.ProcessHistory
}

// Orchestrator drives one score through the pipeline.
type Orchestrator struct {
	db        Datastore
	registry  *Registry
	publisher Publisher
	logger    *zap.SugaredLogger
}

func NewOrchestrator(db Datastore, registry *Registry, publisher Publisher, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		db:        db,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessScore applies all eligible processors to the score's user aggregate
// inside one read-committed transaction, reverting the prior contribution
// first when the score was processed at an older version. Any error inside
// the transaction propagates to the caller; redelivery is expected. Errors
// in post-commit side effects are logged and swallowed.
func (o *Orchestrator) ProcessScore(ctx context.Context, item Item) error {
	score := item.Score

	// Redelivery safety: already processed at the current version.
	if item.History != nil && item.History.ProcessedVersion == CurrentVersion {
		scoresSkippedVersion.Inc()
		return nil
	}

	eligible := o.registry.Eligible(score)

	start := time.Now()
	err := o.db.WithTx(ctx, func(q store.DBTX) error {
		stats, err := o.db.UserStatsForUpdate(ctx, q, score.UserID, score.RulesetID)
		if err != nil {
			return err
		}
		if stats == nil {
			return errStatsMissing
		}

		if item.History != nil {
			for _, p := range eligible {
				if err := p.Revert(ctx, score, stats, item.History.ProcessedVersion); err != nil {
					return fmt.Errorf("revert %s for score %d: %w", p.Name(), score.ID, err)
				}
			}
			scoresReverted.Inc()
		}

		for _, p := range eligible {
			if err := p.Apply(ctx, score, stats); err != nil {
				return fmt.Errorf("apply %s for score %d: %w", p.Name(), score.ID, err)
			}
		}

		if err := o.db.SaveUserStats(ctx, q, stats); err != nil {
			return err
		}
		if err := o.db.SaveScorePerformance(ctx, q, score); err != nil {
			return err
		}
		return o.db.UpsertProcessHistory(ctx, q, score.ID, CurrentVersion)
	})
	transactionDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, errStatsMissing) {
		scoresSkippedNoStats.Inc()
		o.logger.Debugw("Skipping score without user stats",
			"scoreID", score.ID, "userID", score.UserID, "ruleset", score.RulesetID)
		return nil
	}
	if err != nil {
		scoresFailed.Inc()
		return err
	}

	o.runPostCommitEffects(ctx, score, eligible)

	scoresProcessed.Inc()
	return nil
}

// runPostCommitEffects performs the non-transactional side effects in order:
// preserve flag, ApplyGlobal, index push, processed event. None of them may
// roll back the committed stat change, so failures are logged and skipped.
func (o *Orchestrator) runPostCommitEffects(ctx context.Context, score *models.Score, eligible []Processor) {
	if score.Passed {
		if err := o.db.MarkScorePreserved(ctx, score.ID); err != nil {
			sideEffectFailures.Inc()
			o.logger.Warnw("Failed to mark score preserved", "scoreID", score.ID, "error", err)
		}
	}

	for _, p := range eligible {
		if err := p.ApplyGlobal(ctx, score); err != nil {
			sideEffectFailures.Inc()
			o.logger.Warnw("ApplyGlobal failed", "processor", p.Name(), "scoreID", score.ID, "error", err)
		}
	}

	if err := o.publisher.PushToIndex(ctx, score.ID); err != nil {
		sideEffectFailures.Inc()
		o.logger.Warnw("Search index push failed", "scoreID", score.ID, "error", err)
	}

	if err := o.publisher.PublishProcessed(ctx, score.ID, CurrentVersion); err != nil {
		sideEffectFailures.Inc()
		o.logger.Warnw("Processed event publish failed", "scoreID", score.ID, "error", err)
	}
}
