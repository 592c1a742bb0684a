package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/models"
	"github.com/beatpulse/score-statistics/internal/processor"
)

// Loader resolves ids into pipeline items.
type Loader interface {
	Score(ctx context.Context, id int64) (*models.Score, error)
	ProcessHistory(ctx context.Context, scoreID int64) (*models.ProcessHistory, error)
	UserScoreIDs(ctx context.Context, userID int64, ruleset models.Ruleset) ([]int64, error)
}

// Pipeline processes one item. Satisfied by *processor.Orchestrator.
type Pipeline interface {
	ProcessScore(ctx context.Context, item processor.Item) error
}

func processOne(ctx context.Context, loader Loader, pipeline Pipeline, logger *zap.SugaredLogger, scoreID int64) error {
	score, err := loader.Score(ctx, scoreID)
	if err != nil {
		return fmt.Errorf("load score %d: %w", scoreID, err)
	}
	if score == nil {
		logger.Warnw("Score does not exist, skipping", "scoreID", scoreID)
		return nil
	}

	history, err := loader.ProcessHistory(ctx, scoreID)
	if err != nil {
		return fmt.Errorf("load process history for score %d: %w", scoreID, err)
	}

	return pipeline.ProcessScore(ctx, processor.Item{Score: score, History: history})
}

// NewScoreReprocessor builds an engine whose keys are score ids. Already
// current scores are skipped inside the pipeline's version check.
func NewScoreReprocessor(workers int, loader Loader, pipeline Pipeline, logger *zap.SugaredLogger) *Engine {
	return NewEngine(workers, func(ctx context.Context, scoreID int64) error {
		return processOne(ctx, loader, pipeline, logger, scoreID)
	}, logger)
}

// NewUserReprocessor builds an engine whose keys are user ids. Each user's
// scores are replayed oldest first so aggregates rebuild in submission
// order. User keys keep the single-writer invariant: all of one user's
// scores stay on one worker.
func NewUserReprocessor(workers int, ruleset models.Ruleset, loader Loader, pipeline Pipeline, logger *zap.SugaredLogger) *Engine {
	return NewEngine(workers, func(ctx context.Context, userID int64) error {
		scoreIDs, err := loader.UserScoreIDs(ctx, userID, ruleset)
		if err != nil {
			return fmt.Errorf("list scores for user %d: %w", userID, err)
		}

		for _, scoreID := range scoreIDs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := processOne(ctx, loader, pipeline, logger, scoreID); err != nil {
				logger.Errorw("Score reprocess failed", "userID", userID, "scoreID", scoreID, "error", err)
			}
		}
		return nil
	}, logger)
}
